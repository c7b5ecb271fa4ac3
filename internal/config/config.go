package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddr     string
	RAGBaseURL     string
	TopK           int
	PgConn         string
	LogLevel       string
	LogFormat      string
	SessionIdleTTL time.Duration
}

// Load reads the environment, after loading the given .env files if they exist.
// With no files it tries ./.env.
func Load(envFiles ...string) *Config {
	_ = godotenv.Load(envFiles...)

	return &Config{
		ServerAddr:     getenv("SERVER_ADDR", ":4200"),
		RAGBaseURL:     getenv("RAG_API_URL", "http://localhost:8000"),
		TopK:           getenvInt("TOP_K", 4),
		PgConn:         getenv("PG_CONN", ""),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		LogFormat:      getenv("LOG_FORMAT", "json"),
		SessionIdleTTL: getenvDuration("SESSION_IDLE_TTL", 30*time.Minute),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return i
		}
	}
	return def
}

func getenvDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
