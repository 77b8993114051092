package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddress string
	PostgresConn  string

	SourceBaseURL string
	SourceTimeout time.Duration

	// TotalPagesWanted × PageSize is the target record count of the
	// ingestion run. Both are fixed at startup.
	TotalPagesWanted int
	PageSize         int

	LogLevel  string
	LogPretty bool
}

// Load reads the configuration from the environment, with a .env file as
// an optional source for local runs.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerAddress:    getEnv("SERVER_ADDRESS", ":8080"),
		PostgresConn:     os.Getenv("POSTGRES_CONN"),
		SourceBaseURL:    getEnv("TENDERS_API_URL", "https://tenders.guru/api/pl"),
		SourceTimeout:    getDuration("TENDERS_API_TIMEOUT", 30*time.Second),
		TotalPagesWanted: getInt("TOTAL_PAGES_WANTED", 100),
		PageSize:         getInt("SOURCE_PAGE_SIZE", 100),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogPretty:        os.Getenv("LOG_PRETTY") == "true",
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return fallback
}

func getInt(key string, fallback int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil && value > 0 {
		return value
	}

	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value, err := time.ParseDuration(os.Getenv(key)); err == nil && value > 0 {
		return value
	}

	return fallback
}
