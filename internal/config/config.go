package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

type Config struct {
	CompletionProvider string `env:"COMPLETION_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey       string `env:"OPENAI_API_KEY"`
	OpenAIModel        string `env:"OPENAI_MODEL" envDefault:"gpt-3.5-turbo"`
	OpenAIBaseURL      string `env:"OPENAI_BASE_URL"`
	GeminiAPIKey       string `env:"GEMINI_API_KEY"`
	GeminiModel        string `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash-latest"`

	SessionSecret string        `env:"SESSION_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	SessionStore  string        `env:"SESSION_STORE" envDefault:"memory"`
	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	CookieSecure  bool          `env:"COOKIE_SECURE" envDefault:"false"`

	// Credentials are compared as plain strings, exactly as configured.
	AuthUsername string `env:"AUTH_USERNAME"`
	AuthPassword string `env:"AUTH_PASSWORD"`

	HTTPPort           string   `env:"PORT" envDefault:"3000"`
	DatabaseURL        string   `env:"DATABASE_URL" envDefault:"./database.sqlite"`
	StaticDir          string   `env:"STATIC_DIR"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	LogLevel           string   `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadConfig reads an optional .env file, parses the environment into a
// Config and validates it.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, relying on environment variables")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, errors.Wrap(err, "parse environment")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadStorageConfig is LoadConfig without the validation of the HTTP-only
// settings. The maintenance commands only need the database location.
func LoadStorageConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, relying on environment variables")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, errors.Wrap(err, "parse environment")
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, errors.New("DATABASE_URL must not be empty")
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.CompletionProvider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY environment variable is required")
		}
		if c.OpenAIModel == "" {
			return errors.New("OPENAI_MODEL must not be empty")
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return errors.New("GEMINI_API_KEY environment variable is required")
		}
		if c.GeminiModel == "" {
			return errors.New("GEMINI_MODEL must not be empty")
		}
	default:
		return errors.Errorf("unknown COMPLETION_PROVIDER %q", c.CompletionProvider)
	}

	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET environment variable is required")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	switch c.SessionStore {
	case SessionStoreMemory:
	case SessionStoreRedis:
		if c.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required when SESSION_STORE=redis")
		}
	default:
		return errors.Errorf("unknown SESSION_STORE %q", c.SessionStore)
	}

	if c.AuthUsername == "" || c.AuthPassword == "" {
		return errors.New("AUTH_USERNAME and AUTH_PASSWORD environment variables are required")
	}
	if c.HTTPPort == "" {
		return errors.New("PORT must not be empty")
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return errors.New("DATABASE_URL must not be empty")
	}
	return nil
}
