package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/jessevdk/go-flags"
)

// ErrHelp is returned by Load when --help was requested.
var ErrHelp = errors.New("help requested")

// Config holds the application configuration. Every field can be set by a
// command line flag or by the environment variable named in its env tag.
type Config struct {
	ServerPort      string        `long:"port" env:"SERVER_PORT" default:"8080" description:"HTTP server port"`
	LogLevel        string        `long:"log-level" env:"LOG_LEVEL" default:"info" description:"debug, info, warn or error"`
	LogFormat       string        `long:"log-format" env:"LOG_FORMAT" default:"json" choice:"json" choice:"text" description:"Log output format"`
	ShutdownTimeout time.Duration `long:"shutdown-timeout" env:"SHUTDOWN_TIMEOUT" default:"90s" description:"Grace period for in-flight extractions on shutdown"`

	DatabaseURL      string `long:"database-url" env:"DATABASE_URL" description:"Full PostgreSQL URL, overrides the postgres-* parts"`
	PostgresHost     string `long:"postgres-host" env:"POSTGRES_HOST" default:"localhost"`
	PostgresPort     string `long:"postgres-port" env:"POSTGRES_PORT" default:"5432"`
	PostgresUser     string `long:"postgres-user" env:"POSTGRES_USER" default:"recipes"`
	PostgresPassword string `long:"postgres-password" env:"POSTGRES_PASSWORD" default:"recipes"`
	PostgresDB       string `long:"postgres-db" env:"POSTGRES_DB" default:"recipes"`
	SkipMigrations   bool   `long:"skip-migrations" env:"SKIP_MIGRATIONS" description:"Do not apply schema migrations on start"`

	RedisAddr      string        `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address; empty disables the shared lock and progress log"`
	RedisPassword  string        `long:"redis-password" env:"REDIS_PASSWORD"`
	RedisDB        int           `long:"redis-db" env:"REDIS_DB" default:"0"`
	LockTTL        time.Duration `long:"lock-ttl" env:"LOCK_TTL" default:"5m" description:"Expiry of the shared per-URL extraction lock"`
	ProgressLogTTL time.Duration `long:"progress-log-ttl" env:"PROGRESS_LOG_TTL" default:"1h"`

	LLMAPIBase     string        `long:"llm-api-base" env:"LLM_API_BASE" default:"https://api.openai.com/v1" description:"OpenAI-compatible endpoint"`
	LLMAPIKey      string        `long:"llm-api-key" env:"LLM_API_KEY" description:"Defaults to OPENAI_API_KEY"`
	LLMModel       string        `long:"llm-model" env:"LLM_MODEL" default:"gpt-4o-mini"`
	LLMMaxTokens   int           `long:"llm-max-tokens" env:"LLM_MAX_TOKENS" default:"4096"`
	LLMTemperature float64       `long:"llm-temperature" env:"LLM_TEMPERATURE" default:"0.2"`
	LLMTimeout     time.Duration `long:"llm-timeout" env:"LLM_TIMEOUT" default:"90s"`

	OpenAIAPIKey         string        `long:"openai-api-key" env:"OPENAI_API_KEY" description:"Enables audio transcription"`
	WhisperModel         string        `long:"whisper-model" env:"WHISPER_MODEL" default:"whisper-1"`
	TranscriptionTimeout time.Duration `long:"transcription-timeout" env:"TRANSCRIPTION_TIMEOUT" default:"60s"`
	YtDlpPath            string        `long:"ytdlp-path" env:"YTDLP_PATH" default:"yt-dlp"`

	IGOEmbedToken string        `long:"ig-oembed-token" env:"IG_OEMBED_TOKEN"`
	YouTubeAPIKey string        `long:"youtube-api-key" env:"YOUTUBE_API_KEY"`
	FetchTimeout  time.Duration `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"10s"`

	ChromeEnabled   bool          `long:"chrome" env:"CHROME_ENABLED" description:"Render web pages with headless Chrome"`
	PageLoadTimeout time.Duration `long:"page-load-timeout" env:"PAGE_LOAD_TIMEOUT" default:"30s"`
	MaxBrowsers     int           `long:"max-browsers" env:"MAX_BROWSERS" default:"2"`

	DefaultLocale string `long:"default-locale" env:"DEFAULT_LOCALE" default:"Guam" description:"Cost location used when a request names none"`
}

// Load parses args (without the program name) and the environment.
func Load(args []string) (*Config, error) {
	var cfg Config
	parser := flags.NewParser(&cfg, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, ErrHelp
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	return &cfg, nil
}

// PostgresDSN returns DatabaseURL or a URL built from the postgres parts.
func (c *Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:     c.PostgresHost + ":" + c.PostgresPort,
		Path:     "/" + c.PostgresDB,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// LLMKey returns the key for the completion endpoint.
func (c *Config) LLMKey() string {
	if c.LLMAPIKey != "" {
		return c.LLMAPIKey
	}
	return c.OpenAIAPIKey
}

// TranscriptionEnabled reports whether a speech-to-text credential is set.
func (c *Config) TranscriptionEnabled() bool {
	return c.OpenAIAPIKey != ""
}
