package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the server configuration, loaded from the environment.
type Config struct {
	Addr         string // listen address, e.g. ":8080"
	DBPath       string // sqlite database file
	ForgeBaseURL string // Forgejo instance this server authenticates against
	PublicURL    string // externally visible base URL, used for OAuth callbacks

	SessionSecret  string // HMAC key for session tokens
	SessionTTLDays int

	// Optional OAuth2 application registered on the forge. The OAuth login
	// routes are only mounted when both values are set.
	OAuthClientID     string
	OAuthClientSecret string
}

// Load reads configuration from the environment. A .env file in the working
// directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Addr:              ":" + envOr("TODOD_PORT", "8080"),
		DBPath:            envOr("TODOD_DB_PATH", "./data/todos.db"),
		ForgeBaseURL:      envOr("FORGE_BASE_URL", ""),
		PublicURL:         envOr("TODOD_PUBLIC_URL", "http://localhost:8080"),
		SessionSecret:     envOr("SESSION_SECRET", ""),
		OAuthClientID:     os.Getenv("OAUTH_CLIENT_ID"),
		OAuthClientSecret: os.Getenv("OAUTH_CLIENT_SECRET"),
	}

	ttlStr := envOr("SESSION_TTL_DAYS", "7")
	ttl, err := strconv.Atoi(ttlStr)
	if err != nil || ttl <= 0 {
		return nil, fmt.Errorf("invalid SESSION_TTL_DAYS %q", ttlStr)
	}
	cfg.SessionTTLDays = ttl

	if cfg.ForgeBaseURL == "" {
		return nil, fmt.Errorf("FORGE_BASE_URL is required")
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}
	return cfg, nil
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
