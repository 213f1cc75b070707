package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	JWTSecret     string
	JWTTTL        time.Duration
	AdminEmail    string
	AdminPassword string

	CORSAllowedOrigins []string
	RateLimitRequests  int
	RateLimitWindow    time.Duration

	// Property search
	PropertyCacheTTL        time.Duration
	PropertyCacheSize       int
	PropertyCacheRedis      bool
	PropertyDedupMode       string
	PropertyProviderTimeout time.Duration
	PropertyCurrencySymbol  string
	ApifyAPIToken           string
	ApifyBaseURL            string
	MagicBricksActorID      string
	HousingActorID          string
	WarmCities              []string

	// Translation and transcription
	MyMemoryBaseURL        string
	MyMemoryContactEmail   string
	LibreTranslateURL      string
	TranslateTimeout       time.Duration
	AssemblyAIAPIKey       string
	AssemblyAIBaseURL      string
	TranscribePollInterval time.Duration
	TranscribeMaxWait      time.Duration

	// Assistant
	GeminiAPIKey   string
	GeminiModelID  string
	BedrockModelID string

	// AWS
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	ActivityQueueURL    string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		JWTSecret:     getEnv("JWT_SECRET", ""),
		JWTTTL:        getEnvAsDuration("JWT_TTL", 24*time.Hour),
		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		RateLimitRequests:  getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:    getEnvAsDuration("RATE_LIMIT_WINDOW", 15*time.Minute),

		PropertyCacheTTL:        getEnvAsDuration("PROPERTY_CACHE_TTL", 30*time.Minute),
		PropertyCacheSize:       getEnvAsInt("PROPERTY_CACHE_SIZE", 64),
		PropertyCacheRedis:      getEnvAsBool("PROPERTY_CACHE_REDIS", false),
		PropertyDedupMode:       strings.ToLower(getEnv("PROPERTY_DEDUP_MODE", "id")),
		PropertyProviderTimeout: getEnvAsDuration("PROPERTY_PROVIDER_TIMEOUT", 90*time.Second),
		PropertyCurrencySymbol:  getEnv("PROPERTY_CURRENCY_SYMBOL", "₹"),
		ApifyAPIToken:           getEnv("APIFY_API_TOKEN", ""),
		ApifyBaseURL:            getEnv("APIFY_BASE_URL", "https://api.apify.com"),
		MagicBricksActorID:      getEnv("MAGICBRICKS_ACTOR_ID", "OGrVzUv64ImXJ1Cen"),
		HousingActorID:          getEnv("HOUSING_ACTOR_ID", "2r88Kn1xhj9HiIvR8"),
		WarmCities:              getEnvAsList("WARM_CITIES", []string{"New-Delhi", "Mumbai", "Bangalore"}),

		MyMemoryBaseURL:        getEnv("MYMEMORY_BASE_URL", "https://api.mymemory.translated.net"),
		MyMemoryContactEmail:   getEnv("MYMEMORY_CONTACT_EMAIL", ""),
		LibreTranslateURL:      getEnv("LIBRETRANSLATE_URL", ""),
		TranslateTimeout:       getEnvAsDuration("TRANSLATE_TIMEOUT", 10*time.Second),
		AssemblyAIAPIKey:       getEnv("ASSEMBLYAI_API_KEY", ""),
		AssemblyAIBaseURL:      getEnv("ASSEMBLYAI_BASE_URL", "https://api.assemblyai.com"),
		TranscribePollInterval: getEnvAsDuration("TRANSCRIBE_POLL_INTERVAL", 3*time.Second),
		TranscribeMaxWait:      getEnvAsDuration("TRANSCRIBE_MAX_WAIT", 2*time.Minute),

		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModelID:  getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),
		BedrockModelID: getEnv("BEDROCK_MODEL_ID", ""),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		ActivityQueueURL:    getEnv("ACTIVITY_QUEUE_URL", ""),
	}
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
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
