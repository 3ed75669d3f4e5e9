package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kitbuilder587/ikar-assistant/internal/config"
	"github.com/kitbuilder587/ikar-assistant/internal/llm/mock"
	"github.com/kitbuilder587/ikar-assistant/internal/llm/ollama"
)

func testConfig(t *testing.T) *config.Config {
	home := t.TempDir()
	return &config.Config{
		Home:      home,
		History:   config.HistoryConfig{Backend: config.BackendSQLite, Path: filepath.Join(home, "data", "ikar_history.db"), Limit: 50},
		Responder: config.ResponderConfig{Type: config.ResponderKeyword, MaxLength: 200, MinAnswerLength: 20},
		LLM:       config.LLMConfig{Provider: "mock"},
		Links:     config.LinksConfig{Provider: config.LinksStatic, MaxResults: 5},
		Cache:     config.CacheConfig{Type: "memory", TTL: time.Minute},
		Speech: config.SpeechConfig{
			TTSCommand:     "ikar-no-such-tts",
			AmbientCommand: "ikar-no-such-player",
			AmbientFile:    filepath.Join(home, "assets", "ambient.mp3"),
		},
	}
}

func TestNew_OfflineRunSearch(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(t), zap.NewNop(), nil, Options{})
	require.NoError(t, err)

	outcome, err := a.Search.RunSearch(ctx, "не печатает чек")
	require.NoError(t, err)
	assert.Contains(t, outcome.Answer, "Проблемы с печатью чеков")
	assert.Len(t, outcome.Links, 5)

	entries, err := a.Recent.Recent(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, outcome.ResponseText, entries[0].Response)

	a.StartAmbient(ctx)
	require.NoError(t, a.Close())
}

func TestNew_ModelResponderWithInjectedClient(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Responder.Type = config.ResponderModel

	client := mock.New().WithResponse("Перезапустите драйвер ККТ и проверьте кабель.")
	a, err := New(ctx, cfg, zap.NewNop(), nil, Options{LLMClient: client})
	require.NoError(t, err)
	defer a.Close()

	outcome, err := a.Search.RunSearch(ctx, "касса не отвечает")
	require.NoError(t, err)
	assert.Equal(t, "Перезапустите драйвер ККТ и проверьте кабель.", outcome.Answer)
	assert.Equal(t, 1, client.Calls())
}

func TestNew_InvalidResponder(t *testing.T) {
	cfg := testConfig(t)
	cfg.Responder.Type = "oracle"

	_, err := New(context.Background(), cfg, zap.NewNop(), nil, Options{})
	assert.ErrorIs(t, err, config.ErrInvalidResponder)
}

func TestNewLLMClient(t *testing.T) {
	cfg := testConfig(t)

	cfg.LLM.Provider = "ollama"
	c, err := NewLLMClient(cfg, zap.NewNop())
	require.NoError(t, err)
	_, ok := c.(*ollama.Client)
	assert.True(t, ok)

	cfg.LLM.Provider = "gpt2"
	_, err = NewLLMClient(cfg, zap.NewNop())
	assert.True(t, errors.Is(err, config.ErrInvalidLLMProvider))
}
