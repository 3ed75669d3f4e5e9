package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	ErrMissingToken       = errors.New("TELEGRAM_BOT_TOKEN is required")
	ErrMissingDB          = errors.New("DATABASE_URL is required for postgres history")
	ErrInvalidBackend     = errors.New("invalid history backend")
	ErrInvalidResponder   = errors.New("invalid responder")
	ErrInvalidLLMProvider = errors.New("invalid llm provider")
	ErrInvalidLinks       = errors.New("invalid links provider")
	ErrInvalidCache       = errors.New("invalid cache type")
	ErrInvalidChatID      = errors.New("invalid TELEGRAM_ADMIN_CHAT_IDS")
)

const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"

	ResponderKeyword = "keyword"
	ResponderModel   = "model"

	LinksStatic = "static"
	LinksTavily = "tavily"
	LinksGoogle = "google"
)

type Config struct {
	Home      string
	History   HistoryConfig
	Database  DatabaseConfig
	Responder ResponderConfig
	LLM       LLMConfig
	Links     LinksConfig
	Tavily    TavilyConfig
	Google    GoogleConfig
	Telegram  TelegramConfig
	Speech    SpeechConfig
	Log       LogConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Metrics   MetricsConfig
}

type HistoryConfig struct {
	Backend string
	Path    string
	Limit   int
}

type DatabaseConfig struct {
	URL string
}

type ResponderConfig struct {
	Type            string
	KeywordsFile    string
	MaxLength       int
	MinAnswerLength int
}

type LLMConfig struct {
	Provider   string
	OpenRouter OpenRouterConfig
	GigaChat   GigaChatConfig
	Ollama     OllamaConfig
	Timeout    time.Duration
}

type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type GigaChatConfig struct {
	AuthKey      string
	ClientID     string
	ClientSecret string
	Scope        string
	AuthURL      string
	BaseURL      string
}

type OllamaConfig struct {
	BaseURL string
	Model   string
}

type LinksConfig struct {
	Provider   string
	MaxResults int
	Timeout    time.Duration
}

type TavilyConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

type GoogleConfig struct {
	APIKey  string
	CX      string
	BaseURL string
}

type TelegramConfig struct {
	Token string
	Debug bool
	// чаты, которым доступны /history и /show; история общая для всех чатов
	AdminChatIDs []int64
}

type SpeechConfig struct {
	TTSCommand     string
	AmbientFile    string
	AmbientCommand string
}

type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type CacheConfig struct {
	Type string
	TTL  time.Duration
	Size int
}

type RateLimitConfig struct {
	RequestsPerMinute int
}

type MetricsConfig struct {
	Addr string
}

func Load() (*Config, error) {
	home := getEnvOrDefault("IKAR_HOME", "ikar")

	adminChats, err := parseChatIDs(os.Getenv("TELEGRAM_ADMIN_CHAT_IDS"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Home: home,
		History: HistoryConfig{
			Backend: getEnvOrDefault("HISTORY_BACKEND", BackendSQLite),
			Path:    getEnvOrDefault("HISTORY_DB_PATH", filepath.Join(home, "data", "ikar_history.db")),
			Limit:   getEnvIntOrDefault("HISTORY_LIMIT", 50),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Responder: ResponderConfig{
			Type:            getEnvOrDefault("RESPONDER", ResponderKeyword),
			KeywordsFile:    os.Getenv("RESPONDER_KEYWORDS_FILE"),
			MaxLength:       getEnvIntOrDefault("MODEL_MAX_LENGTH", 200),
			MinAnswerLength: getEnvIntOrDefault("MODEL_MIN_ANSWER_LENGTH", 20),
		},
		LLM: LLMConfig{
			Provider: getEnvOrDefault("LLM_PROVIDER", "mock"),
			OpenRouter: OpenRouterConfig{
				APIKey:  os.Getenv("OPENROUTER_API_KEY"),
				Model:   getEnvOrDefault("OPENROUTER_MODEL", "deepseek/deepseek-chat"),
				BaseURL: getEnvOrDefault("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
			},
			GigaChat: GigaChatConfig{
				AuthKey:      os.Getenv("GIGACHAT_AUTH_KEY"),
				ClientID:     os.Getenv("GIGACHAT_CLIENT_ID"),
				ClientSecret: os.Getenv("GIGACHAT_CLIENT_SECRET"),
				Scope:        getEnvOrDefault("GIGACHAT_SCOPE", "GIGACHAT_API_PERS"),
				AuthURL:      getEnvOrDefault("GIGACHAT_AUTH_URL", "https://ngw.devices.sberbank.ru:9443/api/v2/oauth"),
				BaseURL:      getEnvOrDefault("GIGACHAT_BASE_URL", "https://gigachat.devices.sberbank.ru/api/v1"),
			},
			Ollama: OllamaConfig{
				BaseURL: getEnvOrDefault("OLLAMA_URL", "http://localhost:11434"),
				Model:   getEnvOrDefault("OLLAMA_MODEL", "llama3.2"),
			},
			Timeout: time.Duration(getEnvIntOrDefault("LLM_TIMEOUT_SEC", 60)) * time.Second,
		},
		Links: LinksConfig{
			Provider:   getEnvOrDefault("LINKS_PROVIDER", LinksStatic),
			MaxResults: getEnvIntOrDefault("LINKS_MAX_RESULTS", 5),
			Timeout:    time.Duration(getEnvIntOrDefault("SEARCH_TIMEOUT_SEC", 30)) * time.Second,
		},
		Tavily: TavilyConfig{
			APIKey:  os.Getenv("TAVILY_API_KEY"),
			BaseURL: getEnvOrDefault("TAVILY_BASE_URL", "https://api.tavily.com"),
			Timeout: time.Duration(getEnvIntOrDefault("TAVILY_TIMEOUT_SEC", 30)) * time.Second,
		},
		Google: GoogleConfig{
			APIKey:  os.Getenv("GOOGLE_API_KEY"),
			CX:      os.Getenv("GOOGLE_CSE_ID"),
			BaseURL: os.Getenv("GOOGLE_BASE_URL"),
		},
		Telegram: TelegramConfig{
			Token: os.Getenv("TELEGRAM_BOT_TOKEN"),
			Debug: getEnvOrDefault("TELEGRAM_DEBUG", "") == "true",

			AdminChatIDs: adminChats,
		},
		Speech: SpeechConfig{
			TTSCommand:     getEnvOrDefault("TTS_COMMAND", "espeak-ng --stdin -v ru -s 150 -a 80"),
			AmbientFile:    getEnvOrDefault("AMBIENT_FILE", filepath.Join(home, "assets", "ambient.mp3")),
			AmbientCommand: getEnvOrDefault("AMBIENT_COMMAND", "mpv --no-video --really-quiet --loop=inf --volume=30"),
		},
		Log: LogConfig{
			Level:      getEnvOrDefault("LOG_LEVEL", "info"),
			File:       getEnvOrDefault("LOG_FILE", filepath.Join(home, "logs", "ikar.log")),
			MaxSizeMB:  getEnvIntOrDefault("LOG_MAX_SIZE_MB", 100),
			MaxBackups: getEnvIntOrDefault("LOG_MAX_BACKUPS", 3),
			MaxAgeDays: getEnvIntOrDefault("LOG_MAX_AGE_DAYS", 28),
		},
		Cache: CacheConfig{
			Type: getEnvOrDefault("CACHE_TYPE", "memory"),
			TTL:  time.Duration(getEnvIntOrDefault("CACHE_TTL_SEC", 3600)) * time.Second,
			Size: getEnvIntOrDefault("CACHE_SIZE", 256),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getEnvIntOrDefault("RATE_LIMIT_PER_MINUTE", 10),
		},
		Metrics: MetricsConfig{
			Addr: os.Getenv("METRICS_ADDR"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if err := oneOf(c.History.Backend, ErrInvalidBackend, BackendSQLite, BackendPostgres); err != nil {
		return err
	}
	if c.History.Backend == BackendPostgres && c.Database.URL == "" {
		return ErrMissingDB
	}
	if err := oneOf(c.Responder.Type, ErrInvalidResponder, ResponderKeyword, ResponderModel); err != nil {
		return err
	}
	if err := oneOf(c.LLM.Provider, ErrInvalidLLMProvider, "mock", "gigachat", "openrouter", "ollama"); err != nil {
		return err
	}
	if err := oneOf(c.Links.Provider, ErrInvalidLinks, LinksStatic, LinksTavily, LinksGoogle); err != nil {
		return err
	}
	if err := oneOf(c.Cache.Type, ErrInvalidCache, "memory", "lru", "none"); err != nil {
		return err
	}
	return nil
}

// ValidateTelegram - токен нужен только чат-оболочке
func (c *Config) ValidateTelegram() error {
	if c.Telegram.Token == "" {
		return ErrMissingToken
	}
	return nil
}

func oneOf(value string, sentinel error, allowed ...string) error {
	values := make([]interface{}, len(allowed))
	for i, a := range allowed {
		values[i] = a
	}
	if err := validation.Validate(value, validation.Required, validation.In(values...)); err != nil {
		return fmt.Errorf("%w %q: %v", sentinel, value, err)
	}
	return nil
}

// parseChatIDs разбирает список id через запятую, пустой список допустим
func parseChatIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidChatID, part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
