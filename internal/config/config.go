package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	Env     string `envconfig:"APP_ENV" default:"development"`
	Port    int    `envconfig:"APP_PORT" default:"8080"`
	DB      DBConfig
	Redis   RedisConfig
	Limiter RateLimiterConfig
	CORS    CORSConfig
	JWT     JWTConfig
	LLM     LLMConfig
}

// storage configuration
type DBConfig struct {
	Backend          string        `envconfig:"STORAGE_BACKEND" default:"memory"`
	DSN              string        `envconfig:"DATABASE_URL"`
	MaxOpenConns     int           `envconfig:"DB_MAX_OPEN_CONNS" default:"20"`
	MaxConnLifetime  time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MongoURI         string        `envconfig:"MONGO_URI"`
	MongoDatabase    string        `envconfig:"MONGO_DATABASE" default:"interview_prep"`
	FirestoreProject string        `envconfig:"FIRESTORE_PROJECT"`
}

// Redis backs the explanation cache and the rate limiter. Both are off when
// URL is empty.
type RedisConfig struct {
	URL            string        `envconfig:"REDIS_URL"`
	ExplanationTTL time.Duration `envconfig:"EXPLANATION_CACHE_TTL" default:"24h"`
}

// rate limiting configuration
type RateLimiterConfig struct {
	Enabled     bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	AIPerMinute int  `envconfig:"RATE_LIMIT_AI_PER_MINUTE" default:"10"`
}

// CORS configuration
type CORSConfig struct {
	TrustedOrigins []string `envconfig:"CORS_TRUSTED_ORIGINS" default:"http://localhost:3000,http://localhost:4173,http://localhost:5173"`
}

// JWT configuration
type JWTConfig struct {
	Secret         string        `envconfig:"JWT_SECRET" required:"true"`
	AccessTokenTTL time.Duration `envconfig:"JWT_ACCESS_TOKEN_TTL" default:"168h"`
}

// generative model configuration
type LLMConfig struct {
	Provider     string        `envconfig:"LLM_PROVIDER" default:"gemini"`
	GeminiAPIKey string        `envconfig:"GEMINI_API_KEY"`
	GeminiModel  string        `envconfig:"GEMINI_MODEL" default:"gemini-1.5-flash"`
	GroqAPIKey   string        `envconfig:"GROQ_API_KEY"`
	GroqModel    string        `envconfig:"GROQ_MODEL" default:"meta-llama/llama-4-maverick-17b-128e-instruct"`
	Timeout      time.Duration `envconfig:"LLM_TIMEOUT" default:"30s"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
		"test":        true,
	}
	if !validEnvs[c.Env] {
		return fmt.Errorf("invalid environment: %s (must be one of: development, staging, production, test)", c.Env)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be between 1 and 65535)", c.Port)
	}

	switch c.DB.Backend {
	case "memory":
	case "postgres":
		if c.DB.DSN == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
		if c.DB.MaxOpenConns < 1 {
			return fmt.Errorf("DB_MAX_OPEN_CONNS must be at least 1")
		}
	case "mongo":
		if c.DB.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required for the mongo backend")
		}
	case "firestore":
		if c.DB.FirestoreProject == "" {
			return fmt.Errorf("FIRESTORE_PROJECT is required for the firestore backend")
		}
	default:
		return fmt.Errorf("invalid STORAGE_BACKEND: %s (must be one of: memory, postgres, mongo, firestore)", c.DB.Backend)
	}

	if c.Limiter.AIPerMinute < 1 {
		return fmt.Errorf("RATE_LIMIT_AI_PER_MINUTE must be at least 1")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if len(c.GetCORSOrigins()) == 0 {
		return fmt.Errorf("at least one trusted origin must be specified")
	}

	// A missing model key is not fatal: the AI routes report a
	// configuration error so operators can see it per request.
	switch c.LLM.Provider {
	case "gemini", "groq":
	default:
		return fmt.Errorf("invalid LLM_PROVIDER: %s (must be gemini or groq)", c.LLM.Provider)
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be positive")
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// GetCORSOrigins returns the list of trusted CORS origins
func (c *Config) GetCORSOrigins() []string {
	origins := make([]string, 0, len(c.CORS.TrustedOrigins))
	for _, origin := range c.CORS.TrustedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// LLMAPIKey returns the key for the selected provider.
func (c *Config) LLMAPIKey() string {
	if c.LLM.Provider == "groq" {
		return c.LLM.GroqAPIKey
	}
	return c.LLM.GeminiAPIKey
}

func (c *Config) String() string {
	return fmt.Sprintf("Config{Env=%s, Port=%d, DB.Backend=%s, DB.MaxOpenConns=%d, "+
		"Redis=%t, Limiter.Enabled=%t, Limiter.AIPerMinute=%d, CORS.Origins=%d, "+
		"JWT.AccessTokenTTL=%s, LLM.Provider=%s, LLM.Timeout=%s}",
		c.Env, c.Port, c.DB.Backend, c.DB.MaxOpenConns,
		c.Redis.URL != "", c.Limiter.Enabled, c.Limiter.AIPerMinute, len(c.CORS.TrustedOrigins),
		c.JWT.AccessTokenTTL, c.LLM.Provider, c.LLM.Timeout)
}
