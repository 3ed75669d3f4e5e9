package bootstrap

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitbuilder587/ikar-assistant/internal/config"
	"github.com/kitbuilder587/ikar-assistant/internal/domain"
)

func testConfig(home string) *config.Config {
	return &config.Config{
		Home:      home,
		History:   config.HistoryConfig{Backend: config.BackendSQLite, Path: filepath.Join(home, "data", "ikar_history.db"), Limit: 50},
		Responder: config.ResponderConfig{Type: config.ResponderKeyword},
		LLM:       config.LLMConfig{Provider: "mock"},
		Links:     config.LinksConfig{Provider: config.LinksStatic},
		Speech: config.SpeechConfig{
			TTSCommand:     "espeak-ng -v ru",
			AmbientCommand: "mpv --loop=inf",
		},
	}
}

func TestEnsureDirs(t *testing.T) {
	home := filepath.Join(t.TempDir(), "ikar")

	created, err := EnsureDirs(home)
	require.NoError(t, err)
	assert.Len(t, created, len(Dirs))

	for _, d := range Dirs {
		info, err := os.Stat(filepath.Join(home, d))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}

	created, err = EnsureDirs(home)
	require.NoError(t, err)
	assert.Empty(t, created, "second run creates nothing")
}

func TestEnsureDirs_Partial(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, "data"), 0o755))

	created, err := EnsureDirs(home)
	require.NoError(t, err)
	assert.Len(t, created, len(Dirs)-1)
}

func TestCheckDependencies(t *testing.T) {
	none := func(string) (string, error) { return "", exec.ErrNotFound }
	all := func(f string) (string, error) { return "/usr/bin/" + f, nil }

	t.Run("offline config needs nothing", func(t *testing.T) {
		r := CheckDependencies(testConfig(t.TempDir()), none)
		assert.True(t, r.OK())
		assert.NoError(t, r.Err())
		assert.Contains(t, r.String(), "? tts")
	})

	t.Run("optional binaries found", func(t *testing.T) {
		r := CheckDependencies(testConfig(t.TempDir()), all)
		assert.Contains(t, r.String(), "+ tts")
		assert.Contains(t, r.String(), "+ ambient player")
	})

	t.Run("missing credentials are fatal", func(t *testing.T) {
		cfg := testConfig(t.TempDir())
		cfg.Responder.Type = config.ResponderModel
		cfg.LLM.Provider = "openrouter"
		cfg.Links.Provider = config.LinksGoogle
		cfg.Google.APIKey = "key"
		cfg.History.Backend = config.BackendPostgres

		r := CheckDependencies(cfg, all)
		assert.False(t, r.OK())

		names := []string{}
		for _, c := range r.Missing() {
			names = append(names, c.Name)
		}
		assert.ElementsMatch(t, []string{"DATABASE_URL", "OPENROUTER_API_KEY", "GOOGLE_CSE_ID"}, names)

		err := r.Err()
		assert.True(t, errors.Is(err, domain.ErrDependencyMissing))
		assert.Equal(t, domain.FailureDependencyUnavailable, domain.KindOf(err))
		assert.Contains(t, r.String(), "Overall: ISSUES")
	})

	t.Run("gigachat client credentials", func(t *testing.T) {
		cfg := testConfig(t.TempDir())
		cfg.Responder.Type = config.ResponderModel
		cfg.LLM.Provider = "gigachat"
		cfg.LLM.GigaChat.ClientID = "id"
		cfg.LLM.GigaChat.ClientSecret = "secret"

		assert.True(t, CheckDependencies(cfg, none).OK())
	})
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	home := filepath.Join(t.TempDir(), "ikar")
	cfg := testConfig(home)

	r := Status(ctx, cfg)
	assert.False(t, r.OK())
	assert.Contains(t, r.String(), "database file not found")

	_, err := EnsureDirs(home)
	require.NoError(t, err)
	repo, err := OpenHistory(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	r = Status(ctx, cfg)
	assert.True(t, r.OK(), r.String())
	out := r.String()
	assert.Contains(t, out, "sqlite connected, 0 entries, 1 tables")
	assert.True(t, strings.HasSuffix(out, "Overall: OK\n"))
}

func TestOpenHistory_UnknownBackend(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.History.Backend = "mysql"

	_, err := OpenHistory(context.Background(), cfg)
	assert.ErrorIs(t, err, config.ErrInvalidBackend)
}
