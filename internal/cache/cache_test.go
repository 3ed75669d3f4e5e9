package cache

import (
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	tests := []struct {
		cacheType string
		wantErr   bool
		stores    bool
	}{
		{TypeMemory, false, true},
		{"", false, true},
		{TypeLRU, false, true},
		{TypeNone, false, false},
		{"redis", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.cacheType, func(t *testing.T) {
			c, err := New[string](tt.cacheType, 8)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer c.Stop()

			c.Set("фн", "замена", time.Hour)
			_, ok := c.Get("фн")
			if ok != tt.stores {
				t.Errorf("Get() ok = %v, want %v", ok, tt.stores)
			}
		})
	}
}
