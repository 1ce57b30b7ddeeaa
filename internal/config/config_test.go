package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, BackendMongo, cfg.StoreBackend)
	assert.Equal(t, 5, cfg.CartMaxRetries)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.KafkaEnabled)
	assert.False(t, cfg.RedisEnabled)
	assert.Equal(t, time.Hour, cfg.AccessTokenTTL())
	assert.Equal(t, 5*time.Minute, cfg.ProductCacheDuration())
	assert.Equal(t, 200*time.Millisecond, cfg.SlowCommandThreshold())

	limit := cfg.AuthRateLimit()
	assert.True(t, limit.Enabled())
	assert.Equal(t, 1.0, limit.RPS)
	assert.Equal(t, 10, limit.Burst)
	assert.False(t, limit.TrustProxyHeaders)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STOREFRONT_HTTP_PORT", "9000")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("CART_MAX_RETRIES", "10")
	t.Setenv("AUTH_RATE_LIMIT_RPS", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.HTTPPort)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 10, cfg.CartMaxRetries)
	assert.False(t, cfg.AuthRateLimit().Enabled())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Environment:      "development",
			HTTPPort:         8080,
			StoreBackend:     BackendMemory,
			JWTSecret:        "short",
			JWTAccessTTLMins: 60,
			CartMaxRetries:   5,
			ProductCacheTTL:  60,
			OTelSampleRate:   1,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"port out of range", func(c *Config) { c.HTTPPort = 70000 }, "invalid HTTP port"},
		{"unknown backend", func(c *Config) { c.StoreBackend = "postgres" }, "STORE_BACKEND"},
		{"short secret in production", func(c *Config) { c.Environment = "production" }, "JWT_SECRET"},
		{"long secret in production", func(c *Config) {
			c.Environment = "production"
			c.JWTSecret = "0123456789abcdef0123456789abcdef"
		}, ""},
		{"zero retries", func(c *Config) { c.CartMaxRetries = 0 }, "CART_MAX_RETRIES"},
		{"too many retries", func(c *Config) { c.CartMaxRetries = 101 }, "CART_MAX_RETRIES"},
		{"zero token ttl", func(c *Config) { c.JWTAccessTTLMins = 0 }, "JWT_ACCESS_TTL_MINUTES"},
		{"sample rate above one", func(c *Config) { c.OTelSampleRate = 1.5 }, "OTEL_SAMPLE_RATE"},
		{"negative auth rate", func(c *Config) { c.AuthRateLimitRPS = -1 }, "AUTH_RATE_LIMIT_RPS"},
		{"auth rate without burst", func(c *Config) { c.AuthRateLimitRPS = 2 }, "AUTH_RATE_LIMIT_BURST"},
		{"auth rate with burst", func(c *Config) {
			c.AuthRateLimitRPS = 2
			c.AuthRateLimitBurst = 4
		}, ""},
		{"kafka without brokers", func(c *Config) { c.KafkaEnabled = true }, "KAFKA_BROKERS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
