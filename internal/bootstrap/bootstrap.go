package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kitbuilder587/ikar-assistant/internal/config"
	"github.com/kitbuilder587/ikar-assistant/internal/domain"
	"github.com/kitbuilder587/ikar-assistant/internal/repository"
	"github.com/kitbuilder587/ikar-assistant/internal/repository/postgres"
	"github.com/kitbuilder587/ikar-assistant/internal/repository/sqlite"
)

// Dirs - рабочие каталоги внутри IKAR_HOME
var Dirs = []string{"data", "logs", "models", "cache", "assets"}

// EnsureDirs создаёт недостающие каталоги и возвращает созданные. Повторный вызов ничего не меняет.
func EnsureDirs(home string) ([]string, error) {
	var created []string
	for _, d := range Dirs {
		path := filepath.Join(home, d)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return created, domain.NewFailure(domain.FailureStorage, "create dir "+path, err)
		}
		created = append(created, path)
	}
	return created, nil
}

// OpenHistory открывает хранилище истории по конфигу
func OpenHistory(ctx context.Context, cfg *config.Config) (repository.HistoryRepository, error) {
	switch cfg.History.Backend {
	case config.BackendPostgres:
		return postgres.Open(ctx, cfg.Database.URL)
	case config.BackendSQLite, "":
		return sqlite.NewHistoryRepo(ctx, cfg.History.Path)
	default:
		return nil, fmt.Errorf("%w %q", config.ErrInvalidBackend, cfg.History.Backend)
	}
}

type Check struct {
	Name     string
	OK       bool
	Detail   string
	Required bool
}

type Report struct {
	Title  string
	Checks []Check
}

func (r *Report) add(name string, ok, required bool, detail string) {
	r.Checks = append(r.Checks, Check{Name: name, OK: ok, Detail: detail, Required: required})
}

// OK - все обязательные проверки прошли
func (r Report) OK() bool {
	return len(r.Missing()) == 0
}

func (r Report) Missing() []Check {
	var out []Check
	for _, c := range r.Checks {
		if c.Required && !c.OK {
			out = append(out, c)
		}
	}
	return out
}

// Err - dependency_unavailable со списком того, чего не хватает
func (r Report) Err() error {
	missing := r.Missing()
	if len(missing) == 0 {
		return nil
	}
	names := make([]string, len(missing))
	for i, c := range missing {
		names[i] = c.Name
	}
	return domain.NewFailure(domain.FailureDependencyUnavailable, "check dependencies",
		fmt.Errorf("%w: %s", domain.ErrDependencyMissing, strings.Join(names, ", ")))
}

func (r Report) String() string {
	var sb strings.Builder
	if r.Title != "" {
		fmt.Fprintf(&sb, "=== %s ===\n", r.Title)
	}
	for _, c := range r.Checks {
		mark := "+"
		if !c.OK {
			mark = "-"
			if !c.Required {
				mark = "?"
			}
		}
		fmt.Fprintf(&sb, "%s %s", mark, c.Name)
		if c.Detail != "" {
			fmt.Fprintf(&sb, ": %s", c.Detail)
		}
		sb.WriteString("\n")
	}
	if r.OK() {
		sb.WriteString("Overall: OK\n")
	} else {
		sb.WriteString("Overall: ISSUES\n")
	}
	return sb.String()
}

type LookPathFunc func(file string) (string, error)

// CheckDependencies проверяет внешние зависимости выбранной конфигурации.
// Обязательные: ключи провайдеров и адрес базы. Необязательные: программы озвучки и фонового звука.
func CheckDependencies(cfg *config.Config, lookPath LookPathFunc) Report {
	r := Report{Title: "ИКАР-Ассистент: зависимости"}

	if cfg.History.Backend == config.BackendPostgres {
		r.add("DATABASE_URL", cfg.Database.URL != "", true, "postgres history")
	}

	if cfg.Responder.Type == config.ResponderModel {
		switch cfg.LLM.Provider {
		case "gigachat":
			ok := cfg.LLM.GigaChat.AuthKey != "" || (cfg.LLM.GigaChat.ClientID != "" && cfg.LLM.GigaChat.ClientSecret != "")
			r.add("GIGACHAT_AUTH_KEY", ok, true, "gigachat credentials")
		case "openrouter":
			r.add("OPENROUTER_API_KEY", cfg.LLM.OpenRouter.APIKey != "", true, "openrouter credentials")
		case "ollama":
			r.add("OLLAMA_URL", cfg.LLM.Ollama.BaseURL != "", true, cfg.LLM.Ollama.BaseURL)
		default:
			r.add("llm", true, true, cfg.LLM.Provider)
		}
	}

	switch cfg.Links.Provider {
	case config.LinksTavily:
		r.add("TAVILY_API_KEY", cfg.Tavily.APIKey != "", true, "tavily search")
	case config.LinksGoogle:
		r.add("GOOGLE_API_KEY", cfg.Google.APIKey != "", true, "google custom search")
		r.add("GOOGLE_CSE_ID", cfg.Google.CX != "", true, "google custom search")
	}

	r.add("tts", binaryAvailable(cfg.Speech.TTSCommand, lookPath), false, cfg.Speech.TTSCommand)
	r.add("ambient player", binaryAvailable(cfg.Speech.AmbientCommand, lookPath), false, cfg.Speech.AmbientCommand)

	return r
}

func binaryAvailable(command string, lookPath LookPathFunc) bool {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return false
	}
	_, err := lookPath(fields[0])
	return err == nil
}

type tableLister interface {
	Tables(ctx context.Context) ([]string, error)
}

// Status - сводка состояния установки: каталоги, база, провайдеры
func Status(ctx context.Context, cfg *config.Config) Report {
	r := Report{Title: "ИКАР-Ассистент Status Check"}

	for _, d := range Dirs {
		path := filepath.Join(cfg.Home, d)
		_, err := os.Stat(path)
		r.add(path, err == nil, true, existsDetail(err))
	}

	r.Checks = append(r.Checks, checkDatabase(ctx, cfg))

	r.add("responder", true, false, cfg.Responder.Type)
	if cfg.Responder.Type == config.ResponderModel {
		r.add("llm provider", true, false, cfg.LLM.Provider)
	}
	r.add("links provider", true, false, cfg.Links.Provider)

	return r
}

func checkDatabase(ctx context.Context, cfg *config.Config) Check {
	c := Check{Name: "database", Required: true}

	if cfg.History.Backend != config.BackendPostgres {
		if _, err := os.Stat(cfg.History.Path); errors.Is(err, os.ErrNotExist) {
			c.Detail = "database file not found: " + cfg.History.Path
			return c
		}
	}

	repo, err := OpenHistory(ctx, cfg)
	if err != nil {
		c.Detail = err.Error()
		return c
	}
	defer repo.Close()

	n, err := repo.Count(ctx)
	if err != nil {
		c.Detail = err.Error()
		return c
	}

	c.OK = true
	c.Detail = fmt.Sprintf("%s connected, %d entries", cfg.History.Backend, n)
	if tl, ok := repo.(tableLister); ok {
		if tables, err := tl.Tables(ctx); err == nil {
			c.Detail += fmt.Sprintf(", %d tables", len(tables))
		}
	}
	return c
}

func existsDetail(err error) string {
	if err == nil {
		return "exists"
	}
	return "missing"
}
