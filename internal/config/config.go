// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config contains runtime configuration values.
type Config struct {
	HTTPPort string

	// BaseURL is the externally reachable URL of this service, used to build
	// the webhook callback URL handed to the platform.
	BaseURL string

	// WebhookSecret is the unguessable path suffix of the webhook endpoint.
	WebhookSecret string

	CMSURL          string
	CMSServiceToken string
	CMSCollection   string

	AuthProxyURL string
	AuthorizeURL string

	StravaAPIURL  string
	EnrichmentURL string

	// MongoURI enables the webhook/sync audit log when set.
	MongoURI      string
	MongoDatabase string

	// RedisAddr switches the verification-token store to Redis when set.
	RedisAddr     string
	RedisPassword string
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	webhookSecret := strings.TrimSpace(os.Getenv("WEBHOOK_SECRET"))
	if webhookSecret == "" {
		return Config{}, fmt.Errorf("WEBHOOK_SECRET is required")
	}
	cmsServiceToken := strings.TrimSpace(os.Getenv("CMS_SERVICE_TOKEN"))
	if cmsServiceToken == "" {
		return Config{}, fmt.Errorf("CMS_SERVICE_TOKEN is required")
	}

	cfg := Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		BaseURL:         getEnv("BASE_URL", "http://localhost:8080"),
		WebhookSecret:   webhookSecret,
		CMSURL:          getEnv("CMS_URL", "http://localhost:8055"),
		CMSServiceToken: cmsServiceToken,
		CMSCollection:   getEnv("CMS_COLLECTION", "activities"),
		AuthProxyURL:    os.Getenv("AUTH_PROXY_URL"),
		StravaAPIURL:    getEnv("STRAVA_API_URL", "https://www.strava.com/api/v3"),
		EnrichmentURL:   os.Getenv("ENRICHMENT_URL"),
		MongoURI:        os.Getenv("MONGODB_URI"),
		MongoDatabase:   getEnv("MONGODB_DATABASE", "strava_sync"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
	}

	if cfg.AuthProxyURL == "" {
		return Config{}, fmt.Errorf("AUTH_PROXY_URL is required")
	}
	if cfg.EnrichmentURL == "" {
		return Config{}, fmt.Errorf("ENRICHMENT_URL is required")
	}
	cfg.AuthorizeURL = getEnv("STRAVA_AUTHORIZE_URL", cfg.AuthProxyURL+"/authorize")

	return cfg, nil
}

// WebhookCallbackURL is the absolute URL the platform pushes events to.
func (c Config) WebhookCallbackURL() string {
	return strings.TrimRight(c.BaseURL, "/") + "/webhook-" + c.WebhookSecret
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}
