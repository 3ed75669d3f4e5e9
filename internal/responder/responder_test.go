package responder

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kitbuilder587/ikar-assistant/internal/config"
	"github.com/kitbuilder587/ikar-assistant/internal/llm"
	"github.com/kitbuilder587/ikar-assistant/internal/llm/mock"
	"github.com/kitbuilder587/ikar-assistant/internal/metrics"
)

func TestNew(t *testing.T) {
	logger := zap.NewNop()

	r, err := New(config.ResponderConfig{Type: config.ResponderKeyword}, nil, logger, nil)
	require.NoError(t, err)
	assert.Equal(t, "keyword", r.Name())

	r, err = New(config.ResponderConfig{Type: config.ResponderModel}, mock.New(), logger, nil)
	require.NoError(t, err)
	assert.Equal(t, "model", r.Name())

	_, err = New(config.ResponderConfig{Type: config.ResponderModel}, nil, logger, nil)
	assert.Error(t, err)

	_, err = New(config.ResponderConfig{Type: "oracle"}, nil, logger, nil)
	assert.ErrorIs(t, err, config.ErrInvalidResponder)
}

func TestNew_KeywordsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kw.yaml")
	require.NoError(t, os.WriteFile(path, []byte("entries:\n  - keyword: эвотор\n    answer: Перезагрузите Эвотор\n"), 0o644))

	r, err := New(config.ResponderConfig{Type: config.ResponderKeyword, KeywordsFile: path}, nil, zap.NewNop(), nil)
	require.NoError(t, err)

	got, err := r.Respond(context.Background(), "Эвотор завис")
	require.NoError(t, err)
	assert.Equal(t, "Перезагрузите Эвотор", got)
}

func TestNew_InstrumentedRecordsCalls(t *testing.T) {
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())

	r, err := New(config.ResponderConfig{Type: config.ResponderModel}, mock.New().WithError(llm.ErrAuthFailed), zap.NewNop(), m)
	require.NoError(t, err)

	_, err = r.Respond(context.Background(), "1с")
	require.Error(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.ResponderCallsTotal.WithLabelValues("model", "error")))
}
