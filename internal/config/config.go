package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"

	"github.com/yourorg/listing-api/internal/env"
	"github.com/yourorg/listing-api/internal/resilient"
	"github.com/yourorg/listing-api/mls"
)

type MLSConfig struct {
	// Token is optional; without it the MLS client is switched off.
	Token             string
	BaseURL           string
	MaxRetries        int
	RetryBaseDelay    time.Duration
	RetryMaxDelay     time.Duration
	RequestTimeout    time.Duration
	RequestsPerSecond float64
}

type LogConfig struct {
	Level     string // debug | info | warn | error
	Format    string // text | json
	AddSource bool
}

type AppConfig struct {
	Port               int
	RateLimitPerMinute int
	MLS                MLSConfig
	Log                LogConfig
}

// Load reads an optional .env file and then the process environment.
// A missing .env is fine; a malformed one is an error.
func Load(envPath ...string) (*AppConfig, error) {
	if err := godotenv.Load(envPath...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	def := resilient.DefaultConfig()
	cfg := &AppConfig{
		Port:               env.GetInt("PORT", 4002),
		RateLimitPerMinute: env.GetInt("RATE_LIMIT_PER_MINUTE", 100),
		MLS: MLSConfig{
			Token:             env.Get("MLS_API_TOKEN", ""),
			BaseURL:           env.Get("MLS_BASE_URL", mls.DefaultBaseURL),
			MaxRetries:        env.GetInt("MLS_MAX_RETRIES", def.MaxRetries),
			RetryBaseDelay:    env.GetDuration("MLS_RETRY_BASE_DELAY", def.BaseDelay),
			RetryMaxDelay:     env.GetDuration("MLS_RETRY_MAX_DELAY", def.MaxDelay),
			RequestTimeout:    env.GetDuration("MLS_REQUEST_TIMEOUT", def.Timeout),
			RequestsPerSecond: env.GetFloat("MLS_RATE_LIMIT", 0),
		},
		Log: LogConfig{
			Level:     env.Get("LOG_LEVEL", "info"),
			Format:    env.Get("LOG_FORMAT", "text"),
			AddSource: env.GetBool("LOG_ADD_SOURCE", false),
		},
	}
	if cfg.MLS.MaxRetries < 0 {
		return nil, fmt.Errorf("MLS_MAX_RETRIES must be >= 0, got %d", cfg.MLS.MaxRetries)
	}
	if cfg.MLS.RetryMaxDelay < cfg.MLS.RetryBaseDelay {
		return nil, fmt.Errorf("MLS_RETRY_MAX_DELAY (%s) is below MLS_RETRY_BASE_DELAY (%s)", cfg.MLS.RetryMaxDelay, cfg.MLS.RetryBaseDelay)
	}
	return cfg, nil
}

// Retry maps the MLS settings onto the fetcher's retry policy.
func (c MLSConfig) Retry() resilient.Config {
	return resilient.Config{
		MaxRetries:        c.MaxRetries,
		BaseDelay:         c.RetryBaseDelay,
		MaxDelay:          c.RetryMaxDelay,
		Timeout:           c.RequestTimeout,
		RequestsPerSecond: c.RequestsPerSecond,
	}
}
