package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/utafrali/ShopyKart/pkg/config"
	"github.com/utafrali/ShopyKart/pkg/middleware"
)

// Store backends.
const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

const minJWTSecretLength = 32

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"STOREFRONT_HTTP_PORT" envDefault:"8080"`

	// Persistence
	StoreBackend  string `env:"STORE_BACKEND" envDefault:"mongo"`
	MongoURI      string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"shopykart"`
	MongoSlowMS   int    `env:"MONGO_SLOW_COMMAND_MS" envDefault:"200"`

	// Redis product cache
	RedisEnabled    bool   `env:"REDIS_ENABLED" envDefault:"false"`
	RedisAddr       string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword   string `env:"REDIS_PASSWORD"`
	RedisDB         int    `env:"REDIS_DB" envDefault:"0"`
	ProductCacheTTL int    `env:"PRODUCT_CACHE_TTL_SECONDS" envDefault:"300"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Auth
	JWTSecret        string `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	JWTAccessTTLMins int    `env:"JWT_ACCESS_TTL_MINUTES" envDefault:"60"`

	// Per-client limit on signup and login. AUTH_RATE_LIMIT_RPS=0 disables it.
	AuthRateLimitRPS   float64 `env:"AUTH_RATE_LIMIT_RPS" envDefault:"1"`
	AuthRateLimitBurst int     `env:"AUTH_RATE_LIMIT_BURST" envDefault:"10"`
	TrustProxyHeaders  bool    `env:"TRUST_PROXY_HEADERS" envDefault:"false"`

	// Cart writes
	CartMaxRetries int `env:"CART_MAX_RETRIES" envDefault:"5"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Bootstrap administrator, created on startup when the email is set.
	AdminName     string `env:"ADMIN_NAME" envDefault:"Administrator"`
	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	// OpenTelemetry
	OTelEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTelSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables and an optional .env
// file in the working directory.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg, ".env"); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	switch c.StoreBackend {
	case BackendMongo, BackendMemory:
	default:
		return fmt.Errorf("invalid STORE_BACKEND %q: want %q or %q", c.StoreBackend, BackendMongo, BackendMemory)
	}
	if !c.IsDevelopment() && len(c.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters outside development", minJWTSecretLength)
	}
	if c.JWTAccessTTLMins < 1 {
		return fmt.Errorf("invalid JWT_ACCESS_TTL_MINUTES: %d", c.JWTAccessTTLMins)
	}
	if c.AuthRateLimitRPS < 0 {
		return fmt.Errorf("invalid AUTH_RATE_LIMIT_RPS: %v", c.AuthRateLimitRPS)
	}
	if c.AuthRateLimitRPS > 0 && c.AuthRateLimitBurst < 1 {
		return fmt.Errorf("AUTH_RATE_LIMIT_BURST must be at least 1, got %d", c.AuthRateLimitBurst)
	}
	if c.CartMaxRetries < 1 || c.CartMaxRetries > 100 {
		return fmt.Errorf("CART_MAX_RETRIES must be between 1 and 100, got %d", c.CartMaxRetries)
	}
	if c.ProductCacheTTL < 0 {
		return fmt.Errorf("invalid PRODUCT_CACHE_TTL_SECONDS: %d", c.ProductCacheTTL)
	}
	if c.OTelSampleRate < 0 || c.OTelSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be within [0, 1], got %v", c.OTelSampleRate)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	return nil
}

// IsDevelopment reports whether the service runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// AccessTokenTTL returns the lifetime of issued access tokens.
func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.JWTAccessTTLMins) * time.Minute
}

// AuthRateLimit returns the limiter settings for the signup and login routes.
func (c *Config) AuthRateLimit() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		RPS:               c.AuthRateLimitRPS,
		Burst:             c.AuthRateLimitBurst,
		TrustProxyHeaders: c.TrustProxyHeaders,
	}
}

// ProductCacheDuration returns the Redis TTL for cached products.
func (c *Config) ProductCacheDuration() time.Duration {
	return time.Duration(c.ProductCacheTTL) * time.Second
}

// SlowCommandThreshold returns the duration above which a MongoDB command is
// logged as slow.
func (c *Config) SlowCommandThreshold() time.Duration {
	return time.Duration(c.MongoSlowMS) * time.Millisecond
}
