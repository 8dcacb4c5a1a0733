package config

import (
	"os"
	"strconv"
	"time"
)

// AppConfig holds runtime configuration for the price tracker. Values
// come from environment variables (a .env file is loaded in main) and
// may be overridden by CLI flags.
type AppConfig struct {
	URLsFile      string        // file with one product URL per line
	SelectorsFile string        // optional per-origin selector overrides (JSON or YAML)
	OutDir        string        // output directory, history.csv lives inside
	WebhookURL    string        // Discord webhook for price drop alerts
	WebhookFile   string        // file the webhook is persisted to
	Interval      time.Duration // repeat interval, 0 means a single pass
	FetchTimeout  time.Duration // per-request timeout for page fetches
	Listen        string        // HTTP API listen address, empty disables the API
	APIKey        string        // optional API key required by the HTTP API
	RateLimit     float64       // API requests per second per client
	NoPrompt      bool          // skip interactive setup questions (CI)
}

// Load builds the configuration from environment variables with
// defaults matching a first local run.
func Load() *AppConfig {
	return &AppConfig{
		URLsFile:      getEnv("PRICEWATCH_URLS_FILE", "urls.txt"),
		SelectorsFile: getEnv("PRICEWATCH_SELECTORS_FILE", ""),
		OutDir:        getEnv("PRICEWATCH_OUT_DIR", "data"),
		WebhookURL:    getEnv("PRICEWATCH_WEBHOOK_URL", ""),
		WebhookFile:   getEnv("PRICEWATCH_WEBHOOK_FILE", "webhook.txt"),
		Interval:      getEnvDuration("PRICEWATCH_INTERVAL", 0),
		FetchTimeout:  getEnvDuration("PRICEWATCH_FETCH_TIMEOUT", 25*time.Second),
		Listen:        getEnv("PRICEWATCH_LISTEN", ""),
		APIKey:        getEnv("PRICEWATCH_API_KEY", ""),
		RateLimit:     getEnvFloat("PRICEWATCH_RATE_LIMIT", 5),
		NoPrompt:      getEnvBool("PRICEWATCH_NO_PROMPT", false),
	}
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
