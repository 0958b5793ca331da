package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr          string
	DatabaseURL   string
	JWTSigningKey string
	Redis         RedisConfig

	// ExpirySweepInterval controls how often overdue envelopes are swept.
	ExpirySweepInterval time.Duration
	// VerifyAttemptWindow bounds access-code attempts per envelope and email.
	VerifyAttemptWindow time.Duration
}

// RedisConfig captures Redis connection settings. An empty URL disables Redis
// and the process falls back to in-memory equivalents.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:                envOr("SIGNET_ADDR", ":8080"),
		DatabaseURL:         os.Getenv("SIGNET_DATABASE_URL"),
		JWTSigningKey:       envOr("SIGNET_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		ExpirySweepInterval: envDuration("SIGNET_EXPIRY_SWEEP_INTERVAL", time.Minute),
		VerifyAttemptWindow: envDuration("SIGNET_VERIFY_ATTEMPT_WINDOW", 15*time.Minute),
		Redis: RedisConfig{
			URL:          os.Getenv("SIGNET_REDIS_URL"),
			PoolSize:     envInt("SIGNET_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("SIGNET_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("SIGNET_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("SIGNET_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("SIGNET_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
