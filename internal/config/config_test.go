package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "LOG_LEVEL", "SERVICES", "DOB_VALIDATION_LEVEL", "CACHE_BACKEND", "SLOT_STORE", "ASSIST_PROVIDER", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, []string{ServiceTime, ServiceDOB, ServiceSlots}, cfg.Services)
	assert.Equal(t, "America/New_York", cfg.DefaultTimezone)
	assert.Equal(t, "standard", cfg.DOBValidationLevel)
	assert.Equal(t, "memory", cfg.CacheBackend)
	assert.Equal(t, 20, cfg.SlotPageSize)
	assert.Equal(t, 5, cfg.SlotResultLimit)
	assert.Equal(t, 3, cfg.StoreMaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.StoreBaseDelay)
	assert.Nil(t, cfg.CORSAllowedOrigins)
	assert.Zero(t, cfg.RateLimitRPS)
	require.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SERVICES", "time, dob,,")
	t.Setenv("DOB_VALIDATION_LEVEL", "STRICT")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("CACHE_TTL", "45s")
	t.Setenv("SLOT_PAGE_SIZE", "50")
	t.Setenv("STORE_BASE_DELAY", "not-a-duration")
	t.Setenv("SKIP_SIGNATURE_VERIFICATION", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, []string{"time", "dob"}, cfg.Services)
	assert.True(t, cfg.Enabled(ServiceTime))
	assert.False(t, cfg.Enabled(ServiceSlots))
	assert.Equal(t, "strict", cfg.DOBValidationLevel)
	assert.Equal(t, 45*time.Second, cfg.CacheTTL)
	assert.Equal(t, 50, cfg.SlotPageSize)
	assert.Equal(t, 100*time.Millisecond, cfg.StoreBaseDelay, "invalid duration falls back")
	assert.True(t, cfg.SkipSignatureVerification)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.InDelta(t, 2.5, cfg.RateLimitRPS, 1e-9)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	t.Setenv("SERVICES", "")
	t.Setenv("DOB_VALIDATION_LEVEL", "")
	t.Setenv("CACHE_BACKEND", "")
	t.Setenv("SLOT_STORE", "")
	t.Setenv("ASSIST_PROVIDER", "")
	base := Load
	cases := map[string]func(c *Config){
		"dob level":        func(c *Config) { c.DOBValidationLevel = "lenient" },
		"cache backend":    func(c *Config) { c.CacheBackend = "memcached" },
		"redis addr":       func(c *Config) { c.CacheBackend = "redis"; c.RedisAddr = "" },
		"slot store":       func(c *Config) { c.SlotStore = "mongo" },
		"postgres url":     func(c *Config) { c.SlotStore = "postgres"; c.DatabaseURL = "" },
		"assist provider":  func(c *Config) { c.AssistProvider = "openai" },
		"gemini key":       func(c *Config) { c.AssistProvider = "gemini"; c.GeminiAPIKey = "" },
		"bedrock model id": func(c *Config) { c.AssistProvider = "bedrock"; c.BedrockModelID = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := base()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}

	c := base()
	c.Services = []string{ServiceTime}
	c.SlotStore = "mongo"
	assert.NoError(t, c.Validate(), "slot store is ignored when slots are disabled")
}
