package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string

	// AnonymizerSalt seeds PII token generation. Empty means a random salt
	// per process, which breaks cross-restart token consistency but is fine
	// for development.
	AnonymizerSalt string

	// PostgresURL enables the durable tracking store when set.
	PostgresURL string

	// CalendarURL points at the external calendar booking service. Empty
	// selects the simulated booker.
	CalendarURL     string
	CalendarTimeout time.Duration

	// RateLimitPerMinute caps API requests per client IP. Zero disables
	// rate limiting.
	RateLimitPerMinute int

	Redis RedisConfig
}

// RedisConfig holds connection settings for the optional Redis-backed
// session mapping store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// SessionMappingTTL bounds retention of per-session anonymization mappings.
var SessionMappingTTL = 30 * time.Minute

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("IDENTIA_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:            addr,
		JWTSigningKey:   jwtSigningKey,
		AnonymizerSalt:  os.Getenv("IDENTIA_ANONYMIZER_SALT"),
		PostgresURL:     os.Getenv("IDENTIA_POSTGRES_URL"),
		CalendarURL:     os.Getenv("IDENTIA_CALENDAR_URL"),
		CalendarTimeout: envDuration("IDENTIA_CALENDAR_TIMEOUT", 5*time.Second),

		RateLimitPerMinute: envInt("IDENTIA_RATE_LIMIT_PER_MINUTE", 120),
		Redis: RedisConfig{
			URL:          os.Getenv("IDENTIA_REDIS_URL"),
			PoolSize:     envInt("IDENTIA_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("IDENTIA_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("IDENTIA_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("IDENTIA_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("IDENTIA_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
	}
}

func envInt(key string, fallback int) int {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if v, err := time.ParseDuration(raw); err == nil {
			return v
		}
	}
	return fallback
}
