package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Backend
	ServerURL string
	APIToken  string

	// Gateway timeouts
	RequestTimeout     time.Duration
	LongRequestTimeout time.Duration

	// Cache
	CacheDBPath     string
	CacheTTL        time.Duration
	CacheMaxEntries int
	CacheSweep      time.Duration

	// Poller
	PollInterval time.Duration

	// AMQP (optional, notifications)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export (optional)
	GoogleSpreadsheetID string
	GoogleSheetName     string
}

func Load() *Config {
	return &Config{
		ServerURL: getEnv("SERVER_URL", "http://localhost:8000"),
		APIToken:  getEnv("API_TOKEN", ""),

		RequestTimeout:     getEnvDuration("REQUEST_TIMEOUT", 15*time.Second),
		LongRequestTimeout: getEnvDuration("LONG_REQUEST_TIMEOUT", 150*time.Second),

		CacheDBPath:     getEnv("CACHE_DB_PATH", "./data/paytrack.db"),
		CacheTTL:        getEnvDuration("CACHE_TTL", 5*time.Minute),
		CacheMaxEntries: getEnvInt("CACHE_MAX_ENTRIES", 200),
		CacheSweep:      getEnvDuration("CACHE_SWEEP_INTERVAL", time.Minute),

		PollInterval: getEnvDuration("POLL_INTERVAL", 7*time.Second),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "paytrack"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "new_transactions"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Transactions"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []string

	if parsed, err := url.Parse(c.ServerURL); err != nil {
		errs = append(errs, fmt.Sprintf("invalid server URL '%s': %v", c.ServerURL, err))
	} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
		errs = append(errs, fmt.Sprintf("invalid server URL scheme '%s': must be 'http' or 'https'", parsed.Scheme))
	} else if parsed.Host == "" {
		errs = append(errs, fmt.Sprintf("invalid server URL '%s': missing host", c.ServerURL))
	}

	if c.RequestTimeout < time.Second {
		errs = append(errs, fmt.Sprintf("invalid request timeout %v: must be at least 1 second", c.RequestTimeout))
	}
	if c.LongRequestTimeout < c.RequestTimeout {
		errs = append(errs, fmt.Sprintf("invalid long request timeout %v: must not be shorter than the request timeout %v", c.LongRequestTimeout, c.RequestTimeout))
	}

	if c.CacheDBPath == "" {
		errs = append(errs, "cache database path cannot be empty")
	} else {
		dir := filepath.Dir(c.CacheDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errs = append(errs, fmt.Sprintf("cannot create cache database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.CacheTTL < time.Second {
		errs = append(errs, fmt.Sprintf("invalid cache TTL %v: must be at least 1 second", c.CacheTTL))
	}
	if c.CacheMaxEntries < 1 {
		errs = append(errs, fmt.Sprintf("invalid cache max entries %d: must be at least 1", c.CacheMaxEntries))
	}
	if c.CacheSweep < time.Second {
		errs = append(errs, fmt.Sprintf("invalid cache sweep interval %v: must be at least 1 second", c.CacheSweep))
	}

	if c.PollInterval < time.Second {
		errs = append(errs, fmt.Sprintf("invalid poll interval %v: must be at least 1 second", c.PollInterval))
	} else if c.PollInterval > time.Hour {
		errs = append(errs, fmt.Sprintf("invalid poll interval %v: must be at most 1 hour", c.PollInterval))
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
