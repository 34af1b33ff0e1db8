package gemini

import (
	"errors"
	"fmt"
	"os"
	"time"
)

const (
	defaultModel   = "gemini-2.5-flash"
	defaultTimeout = 30 * time.Second
)

type Config struct {
	APIKey string
	Model  string
	// Timeout bounds one generate call on top of the caller's context.
	Timeout time.Duration
}

// NewConfig reads GEMINI_API_KEY (or GOOGLE_API_KEY), GEMINI_MODEL and GEMINI_TIMEOUT.
func NewConfig() (*Config, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY environment variable is required")
	}

	cfg := &Config{APIKey: apiKey, Model: os.Getenv("GEMINI_MODEL"), Timeout: defaultTimeout}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if raw := os.Getenv("GEMINI_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid GEMINI_TIMEOUT %q", raw)
		}
		cfg.Timeout = d
	}
	return cfg, nil
}
