package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings for the server. Values come from the
// environment, with a .env file loaded first if one exists.
type Config struct {
	Port      string
	AWSRegion string
	S3Bucket  string

	// ImageCacheSize bounds the number of decoded images held in memory.
	ImageCacheSize int

	LogLevel      string
	SocketEnabled bool
}

// Load reads configuration from the environment.
func Load() *Config {
	// Ignore the error: a missing .env just means plain env vars are used.
	_ = godotenv.Load()

	return &Config{
		Port:           getEnvDefault("PORT", "8080"),
		AWSRegion:      getEnvDefault("AWS_REGION", "us-east-1"),
		S3Bucket:       os.Getenv("S3_BUCKET_NAME"),
		ImageCacheSize: getEnvInt("IMAGE_CACHE_SIZE", 50),
		LogLevel:       getEnvDefault("LOG_LEVEL", "info"),
		SocketEnabled:  isTruthy(getEnvDefault("SOCKET_ENABLED", "true")),
	}
}

func getEnvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
