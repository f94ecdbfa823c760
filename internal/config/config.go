package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the client's runtime settings, sourced from the
// environment with sensible local defaults.
type Config struct {
	APIBaseURL    string
	BroadcastURL  string
	StatePath     string
	LogLevel      string
	JoinTimeout   time.Duration
	ReconnectWait time.Duration
}

// Load reads .env when present and resolves the configuration.
func Load() Config {
	// Missing .env is fine; plain environment variables still apply.
	_ = godotenv.Load()

	return Config{
		APIBaseURL:    getEnv("QUIZROOM_API_URL", "http://localhost:8000"),
		BroadcastURL:  getEnv("QUIZROOM_BROADCAST_URL", "nats://localhost:4222"),
		StatePath:     getEnv("QUIZROOM_STATE_FILE", defaultStatePath()),
		LogLevel:      getEnv("QUIZROOM_LOG_LEVEL", "info"),
		JoinTimeout:   getEnvAsDuration("QUIZROOM_JOIN_TIMEOUT", 10*time.Second),
		ReconnectWait: getEnvAsDuration("QUIZROOM_RECONNECT_WAIT", 2*time.Second),
	}
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".quizroom/state.yaml"
	}
	return filepath.Join(dir, "quizroom", "state.yaml")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
