package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kaszm/imagegallery/internal/idp/service"
	"github.com/kaszm/imagegallery/pkg/authsdk"
)

type Config struct {
	Issuer    string   // Issuer claim for tokens (default: imagegallery-idp)
	PublicURL string   // Externally reachable base URL used in mailed links (default: http://localhost:<port>)
	Audience  []string // Audience of issued access tokens (default: imagegalleryapi)
	Clients   []string // Allowed public client ids (default: imagegalleryclient)

	// RoleScopes maps a role to the API scopes it may request, parsed from
	// "role=scope scope;role=scope".
	RoleScopes  map[string][]string
	DefaultRole string // Role for self-registered users (default: employee)

	StoreDriver    string // Persistence backend, sqlite or mongodb (default: sqlite)
	DatabaseFile   string // Path to SQLite database file (default: ./idp.db)
	MongoURI       string // MongoDB connection string, replica set required (default: mongodb://localhost:27017)
	MongoDatabase  string // MongoDB database name (default: idp)
	PepperFile     string // Path to file containing pepper for password hashing (default: ./pepper)
	SigningKeyFile string // Path to the Ed25519 PEM signing key, created on first start (default: ./signing.pem)

	MailFrom     string // Sender address of verification mail
	SMTPHost     string // Optional: mail is logged instead of sent when empty
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string

	SeedUsers    bool   // Create verified admin and employee dev accounts on start (default: false, refused when ENV=prod)
	SeedPassword string // Password of the seeded accounts, required with SeedUsers

	GoogleClientID    string // Optional: enables POST /v1/external/google
	GoogleDefaultRole string // Role of accounts created from Google sign in (default: employee)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:            getEnvOrDefault("IDP_ISSUER", "imagegallery-idp"),
		PublicURL:         os.Getenv("IDP_PUBLIC_URL"),
		Audience:          splitList(getEnvOrDefault("IDP_AUDIENCE", "imagegalleryapi")),
		Clients:           splitList(getEnvOrDefault("IDP_CLIENTS", "imagegalleryclient")),
		DefaultRole:       getEnvOrDefault("IDP_DEFAULT_ROLE", service.DefaultRole),
		StoreDriver:       getEnvOrDefault("IDP_STORE_DRIVER", "sqlite"),
		DatabaseFile:      getEnvOrDefault("IDP_DATABASE_FILE", "idp.db"),
		MongoURI:          getEnvOrDefault("IDP_MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:     getEnvOrDefault("IDP_MONGO_DATABASE", "idp"),
		PepperFile:        getEnvOrDefault("IDP_PEPPER_FILE", "pepper"),
		SigningKeyFile:    getEnvOrDefault("IDP_SIGNING_KEY_FILE", "signing.pem"),
		MailFrom:          getEnvOrDefault("IDP_MAIL_FROM", "noreply@imagegallery.local"),
		SMTPHost:          os.Getenv("SMTP_HOST"),
		SMTPPort:          getEnvIntOrDefault("SMTP_PORT", 587),
		SMTPUsername:      os.Getenv("SMTP_USERNAME"),
		SMTPPassword:      os.Getenv("SMTP_PASSWORD"),
		SeedUsers:         getEnvBoolOrDefault("IDP_SEED_USERS", false),
		SeedPassword:      os.Getenv("IDP_SEED_PASSWORD"),
		GoogleClientID:    os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleDefaultRole: getEnvOrDefault("GOOGLE_DEFAULT_ROLE", service.DefaultRole),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	cfg.RoleScopes = parseRoleScopes(getEnvOrDefault("IDP_ROLE_SCOPES",
		"admin="+authsdk.ScopeGalleryRead+" "+authsdk.ScopeGalleryWrite+
			";employee="+authsdk.ScopeGalleryRead+" "+authsdk.ScopeGalleryWrite))

	if cfg.PublicURL == "" {
		cfg.PublicURL = "http://localhost:" + strconv.Itoa(cfg.Port)
	}

	return cfg
}

// parseRoleScopes reads "admin=a b;employee=a". Entries without a role are
// skipped.
func parseRoleScopes(s string) map[string][]string {
	out := make(map[string][]string)
	for _, entry := range strings.Split(s, ";") {
		role, scopes, _ := strings.Cut(entry, "=")
		role = strings.TrimSpace(role)
		if role == "" {
			continue
		}
		out[role] = append(out[role], strings.Fields(scopes)...)
	}
	return out
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
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
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

	// Bare integers are minutes.
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
