package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	IdPURL   string   // Base URL of the identity provider, used to fetch its JWKS (default: http://localhost:8080)
	Issuer   string   // Expected token issuer (default: imagegallery-idp)
	Audience []string // Accepted token audiences (default: imagegalleryapi)

	DatabaseFile string // Path to SQLite database file (default: ./gallery.db)

	KeyRefreshInterval time.Duration // How often the JWKS is refetched (default: 10m)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8081)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		IdPURL:             strings.TrimSuffix(getEnvOrDefault("GALLERY_IDP_URL", "http://localhost:8080"), "/"),
		Issuer:             getEnvOrDefault("GALLERY_ISSUER", "imagegallery-idp"),
		Audience:           splitList(getEnvOrDefault("GALLERY_AUDIENCE", "imagegalleryapi")),
		DatabaseFile:       getEnvOrDefault("GALLERY_DATABASE_FILE", "gallery.db"),
		KeyRefreshInterval: getEnvDurationOrDefault("GALLERY_KEY_REFRESH_INTERVAL", 10*time.Minute),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8081),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if intValue, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return intValue
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	return defaultValue
}
