package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port      string
	Env       string
	LogLevel  string
	LogFormat string

	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	RedisEnabled  bool

	// Engine tunables. Tolerances are expressed as durations; the store
	// query and the matcher both compare in whole seconds.
	BatchSize                    int
	TimestampTolerance           time.Duration
	DurationTolerance            time.Duration
	AutoResolveThreshold         float64
	DuplicateConfidenceThreshold float64

	SourceWeightCarrier float64
	SourceWeightDevice  float64
	SourceWeightManual  float64

	ResolvedPairCacheTTL time.Duration

	WorkerInterval time.Duration
	WorkerLookback time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", "8080"),
		Env:       getEnv("ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		RedisEnabled:  getEnvAsBool("REDIS_ENABLED", false),

		BatchSize:                    getEnvAsInt("CONFLICT_BATCH_SIZE", 100),
		TimestampTolerance:           getEnvAsDuration("TIMESTAMP_TOLERANCE", time.Second),
		DurationTolerance:            getEnvAsDuration("DURATION_TOLERANCE", time.Second),
		AutoResolveThreshold:         getEnvAsFloat("AUTO_RESOLVE_THRESHOLD", 0.9),
		DuplicateConfidenceThreshold: getEnvAsFloat("DUPLICATE_CONFIDENCE_THRESHOLD", 0.8),

		SourceWeightCarrier: getEnvAsFloat("SOURCE_WEIGHT_CARRIER", 0.9),
		SourceWeightDevice:  getEnvAsFloat("SOURCE_WEIGHT_DEVICE", 0.7),
		SourceWeightManual:  getEnvAsFloat("SOURCE_WEIGHT_MANUAL", 0.5),

		ResolvedPairCacheTTL: getEnvAsDuration("RESOLVED_PAIR_CACHE_TTL", 24*time.Hour),

		WorkerInterval: getEnvAsDuration("WORKER_INTERVAL", 15*time.Minute),
		WorkerLookback: getEnvAsDuration("WORKER_LOOKBACK", 24*time.Hour),
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
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
