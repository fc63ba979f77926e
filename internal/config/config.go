package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Services that can be switched on per deployment.
const (
	ServiceTime  = "time"
	ServiceDOB   = "dob"
	ServiceSlots = "slots"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string
	Services []string

	DefaultTimezone    string
	DOBValidationLevel string
	VocabularySource   string

	CacheBackend  string
	CacheTTL      time.Duration
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	SlotStore        string
	SlotsTable       string
	SlotSeedFile     string
	DatabaseURL      string
	SlotPageSize     int
	SlotResultLimit  int
	StoreMaxAttempts int
	StoreBaseDelay   time.Duration

	BlandWebhookSecret        string
	SkipSignatureVerification bool

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	AssistProvider string
	GeminiAPIKey   string
	GeminiModel    string
	BedrockModelID string

	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Services: getEnvAsList("SERVICES", []string{ServiceTime, ServiceDOB, ServiceSlots}),

		DefaultTimezone:    getEnv("DEFAULT_TIMEZONE", "America/New_York"),
		DOBValidationLevel: strings.ToLower(getEnv("DOB_VALIDATION_LEVEL", "standard")),
		VocabularySource:   getEnv("VOCABULARY_SOURCE", ""),

		CacheBackend:  strings.ToLower(getEnv("CACHE_BACKEND", "memory")),
		CacheTTL:      getEnvAsDuration("CACHE_TTL", time.Minute),
		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		SlotStore:        strings.ToLower(getEnv("SLOT_STORE", "memory")),
		SlotsTable:       getEnv("SLOTS_TABLE", "appointment_slots"),
		SlotSeedFile:     getEnv("SLOT_SEED_FILE", ""),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		SlotPageSize:     getEnvAsInt("SLOT_PAGE_SIZE", 20),
		SlotResultLimit:  getEnvAsInt("SLOT_RESULT_LIMIT", 5),
		StoreMaxAttempts: getEnvAsInt("STORE_MAX_ATTEMPTS", 3),
		StoreBaseDelay:   getEnvAsDuration("STORE_BASE_DELAY", 100*time.Millisecond),

		BlandWebhookSecret:        getEnv("BLAND_WEBHOOK_SECRET", ""),
		SkipSignatureVerification: getEnvAsBool("SKIP_SIGNATURE_VERIFICATION", false),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		AssistProvider: strings.ToLower(getEnv("ASSIST_PROVIDER", "none")),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModel:    getEnv("GEMINI_MODEL", ""),
		BedrockModelID: getEnv("BEDROCK_MODEL_ID", ""),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),
		RateLimitRPS:       getEnvAsFloat("RATE_LIMIT_RPS", 0),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 10),
	}
}

// Enabled reports whether service is listed in SERVICES.
func (c *Config) Enabled(service string) bool {
	for _, s := range c.Services {
		if strings.EqualFold(s, service) {
			return true
		}
	}
	return false
}

// Validate rejects combinations the API server cannot start with.
func (c *Config) Validate() error {
	switch c.DOBValidationLevel {
	case "strict", "standard", "loose":
	default:
		return fmt.Errorf("config: DOB_VALIDATION_LEVEL must be strict, standard or loose, got %q", c.DOBValidationLevel)
	}
	switch c.CacheBackend {
	case "memory", "none":
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("config: REDIS_ADDR is required when CACHE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("config: unknown CACHE_BACKEND %q", c.CacheBackend)
	}
	if c.Enabled(ServiceSlots) {
		switch c.SlotStore {
		case "memory", "dynamodb":
		case "postgres":
			if c.DatabaseURL == "" {
				return fmt.Errorf("config: DATABASE_URL is required when SLOT_STORE=postgres")
			}
		default:
			return fmt.Errorf("config: unknown SLOT_STORE %q", c.SlotStore)
		}
	}
	switch c.AssistProvider {
	case "", "none":
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("config: GEMINI_API_KEY is required when ASSIST_PROVIDER=gemini")
		}
	case "bedrock":
		if c.BedrockModelID == "" {
			return fmt.Errorf("config: BEDROCK_MODEL_ID is required when ASSIST_PROVIDER=bedrock")
		}
	default:
		return fmt.Errorf("config: unknown ASSIST_PROVIDER %q", c.AssistProvider)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
