package config

import (
	"fmt"
	"net/url"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DatabaseURL string

	// Web Server
	WebBind      string
	WebUIBaseURL string

	// Google OAuth2 sign-in
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string

	// Session
	JWTSecret string

	// Discord companion bot, disabled when the token is empty
	DiscordToken string
}

func Load() (*Config, error) {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		WebBind:            getEnvDefault("WEB_BIND", "0.0.0.0:3000"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURI:  getEnvDefault("GOOGLE_REDIRECT_URI", "http://localhost:3000/api/auth/callback"),
		JWTSecret:          getEnvDefault("JWT_SECRET", "dev-only-change-me"),
		DiscordToken:       os.Getenv("DISCORD_TOKEN"),
	}

	// Extract base URL from redirect URI
	cfg.WebUIBaseURL = extractBaseURL(cfg.GoogleRedirectURI)

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.GoogleClientID == "" {
		return nil, fmt.Errorf("GOOGLE_CLIENT_ID is required")
	}
	if cfg.GoogleClientSecret == "" {
		return nil, fmt.Errorf("GOOGLE_CLIENT_SECRET is required")
	}

	return cfg, nil
}

func getEnvDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func extractBaseURL(redirectURI string) string {
	// e.g., "http://localhost:3000/api/auth/callback" -> "http://localhost:3000"
	parsed, err := url.Parse(redirectURI)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "http://localhost:3000"
	}

	return fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host)
}
