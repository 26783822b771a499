package config

import (
	"fmt"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/kelseyhightower/envconfig"

	"github.com/ddiaz-itx/ai-interviewer/pkg"
)

// Config holds all application configuration
type Config struct {
	Env       string `envconfig:"APP_ENV" default:"development"`
	Port      int    `envconfig:"APP_PORT" default:"8080"`
	DB        DBConfig
	Redis     RedisConfig
	Limiter   RateLimiterConfig
	CORS      CORSConfig
	JWT       JWTConfig
	Crypto    CryptoConfig
	Admin     AdminConfig
	LLM       LLMConfig
	Cache     CacheConfig
	Interview InterviewConfig
}

// database configuration; an empty DSN selects the in-memory store
type DBConfig struct {
	DSN         string `envconfig:"DATABASE_URL"`
	AutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"true"`
}

// redis configuration; an empty address keeps cache and locks in process
type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// rate limiting configuration
type RateLimiterConfig struct {
	RPS     float64 `envconfig:"RATE_LIMIT_RPS" default:"10"`
	Burst   int     `envconfig:"RATE_LIMIT_BURST" default:"20"`
	Enabled bool    `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// CORS configuration
type CORSConfig struct {
	TrustedOrigins []string `envconfig:"CORS_TRUSTED_ORIGINS" default:"http://localhost:3000,http://localhost:4173,http://localhost:5173"`
}

// JWT configuration
type JWTConfig struct {
	Secret          string        `envconfig:"JWT_SECRET" required:"true"`
	AccessTokenTTL  time.Duration `envconfig:"JWT_ACCESS_TOKEN_TTL" default:"15m"`
	RefreshTokenTTL time.Duration `envconfig:"JWT_REFRESH_TOKEN_TTL" default:"168h"` // 7 days
}

// encryption configuration for documents at rest
type CryptoConfig struct {
	Secret string `envconfig:"AES_SECRET_KEY" required:"true"`
}

// single admin account; the password is stored as a bcrypt hash
type AdminConfig struct {
	Username     string `envconfig:"ADMIN_USERNAME" default:"admin"`
	PasswordHash string `envconfig:"ADMIN_PASSWORD_HASH" required:"true"`
}

// LLM provider configuration
type LLMConfig struct {
	Provider   string        `envconfig:"LLM_PROVIDER" default:"gemini"`
	APIKey     string        `envconfig:"LLM_API_KEY"`
	Model      string        `envconfig:"LLM_MODEL"`
	BaseURL    string        `envconfig:"LLM_BASE_URL"`
	Timeout    time.Duration `envconfig:"LLM_TIMEOUT" default:"30s"`
	MaxRetries int           `envconfig:"LLM_MAX_RETRIES" default:"3"`
}

// LLM response cache configuration
type CacheConfig struct {
	Enabled bool          `envconfig:"LLM_CACHE_ENABLED" default:"true"`
	MaxSize int           `envconfig:"LLM_CACHE_MAX_SIZE" default:"1000"`
	TTL     time.Duration `envconfig:"LLM_CACHE_TTL" default:"1h"`
}

// interview session configuration
type InterviewConfig struct {
	LinkTTL     time.Duration `envconfig:"INTERVIEW_LINK_TTL" default:"48h"`
	CallTimeout time.Duration `envconfig:"INTERVIEW_CALL_TIMEOUT" default:"60s"`
	LockTTL     time.Duration `envconfig:"INTERVIEW_LOCK_TTL" default:"5m"`
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

var validProviders = map[string]bool{
	"gemini": true,
	"openai": true,
	"groq":   true,
	"ollama": true,
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
	if c.Limiter.RPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be non-negative")
	}
	if c.Limiter.Burst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be at least 1")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	secretLen := len(c.Crypto.Secret)
	if secretLen != 16 && secretLen != 24 && secretLen != 32 {
		return fmt.Errorf("AES_SECRET_KEY must be 16, 24, or 32 bytes (got %d)", secretLen)
	}
	if len(c.CORS.TrustedOrigins) == 0 {
		return fmt.Errorf("at least one trusted origin must be specified")
	}
	if strings.TrimSpace(c.Admin.Username) == "" {
		return fmt.Errorf("ADMIN_USERNAME must not be empty")
	}
	if !pkg.IsPasswordHash(c.Admin.PasswordHash) {
		return fmt.Errorf("ADMIN_PASSWORD_HASH must be a bcrypt hash")
	}
	if !validProviders[c.LLM.Provider] {
		return fmt.Errorf("invalid LLM_PROVIDER: %s (must be one of: gemini, openai, groq, ollama)", c.LLM.Provider)
	}
	if c.LLM.Provider != "ollama" && c.LLM.APIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required for provider %s", c.LLM.Provider)
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be positive")
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("LLM_MAX_RETRIES must be non-negative")
	}
	if c.Cache.Enabled && c.Cache.MaxSize < 1 {
		return fmt.Errorf("LLM_CACHE_MAX_SIZE must be at least 1")
	}
	if c.Interview.LinkTTL <= 0 {
		return fmt.Errorf("INTERVIEW_LINK_TTL must be positive")
	}
	if c.Interview.CallTimeout <= 0 {
		return fmt.Errorf("INTERVIEW_CALL_TIMEOUT must be positive")
	}
	if c.Interview.LockTTL < c.Interview.CallTimeout {
		return fmt.Errorf("INTERVIEW_LOCK_TTL (%s) must not be shorter than INTERVIEW_CALL_TIMEOUT (%s)",
			c.Interview.LockTTL, c.Interview.CallTimeout)
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

func (c *Config) String() string {
	return fmt.Sprintf("Config{Env=%s, Port=%d, DB=%t, Redis=%t, "+
		"Limiter.RPS=%.2f, Limiter.Burst=%d, Limiter.Enabled=%t, CORS.Origins=%d, "+
		"JWT.AccessTokenTTL=%s, JWT.RefreshTokenTTL=%s, LLM.Provider=%s, LLM.Model=%s, "+
		"Cache.Enabled=%t, Cache.MaxSize=%d, Interview.LinkTTL=%s}",
		c.Env, c.Port, c.DB.DSN != "", c.Redis.Addr != "",
		c.Limiter.RPS, c.Limiter.Burst, c.Limiter.Enabled, len(c.CORS.TrustedOrigins),
		c.JWT.AccessTokenTTL, c.JWT.RefreshTokenTTL, c.LLM.Provider, c.LLM.Model,
		c.Cache.Enabled, c.Cache.MaxSize, c.Interview.LinkTTL)
}
