package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/currency"
	"gopkg.in/yaml.v3"

	"kakeibo/internal/core"
)

type Config struct {
	// HTTP Server
	Port           string
	TrustedProxies []string
	RateLimit      int // requests per minute per viewer

	// Storage
	DataBackend  string // sqlite or memory
	SQLiteDBPath string
	SeedFile     string // YAML seed for the memory backend

	// Parties
	RosterFile string
	Roster     core.Roster

	// Reports
	Currency        string
	Timezone        string
	RollupThreshold float64
	CacheSize       int
	CacheTTL        time.Duration

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Export worker
	ExportInterval time.Duration
	ExportGoogle   bool
	ExportXLSXPath string

	// Google Sheets
	GoogleSpreadsheetID string

	LogLevel  string
	LogFormat string
}

// Load reads the configuration from the environment. Unparseable numbers
// keep their defaults; Validate reports the remaining problems.
func Load() *Config {
	cfg := &Config{
		Port:           getEnv("PORT", "8081"),
		TrustedProxies: getEnvList("TRUSTED_PROXIES"),
		RateLimit:      getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		DataBackend:  getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/kakeibo.db"),
		SeedFile:     getEnv("SEED_FILE", ""),

		RosterFile: getEnv("ROSTER_FILE", ""),
		Roster: core.NewRoster(
			core.Party{ID: getEnv("PARTY_A_ID", ""), Name: getEnv("PARTY_A_NAME", "")},
			core.Party{ID: getEnv("PARTY_B_ID", ""), Name: getEnv("PARTY_B_NAME", "")},
		),

		Currency:        strings.ToUpper(getEnv("CURRENCY", "JPY")),
		Timezone:        getEnv("TZ_NAME", "Local"),
		RollupThreshold: getEnvFloat("ROLLUP_THRESHOLD", 0),
		CacheSize:       getEnvInt("REPORT_CACHE_SIZE", 128),
		CacheTTL:        getEnvDuration("REPORT_CACHE_TTL", 10*time.Minute),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "kakeibo"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "kakeibo_changes"),

		ExportInterval: getEnvDuration("EXPORT_INTERVAL", 15*time.Minute),
		ExportGoogle:   getEnvBool("EXPORT_GOOGLE", false),
		ExportXLSXPath: getEnv("EXPORT_XLSX_PATH", ""),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
	return cfg
}

// LoadRoster replaces the roster with the one in RosterFile, when set.
func (c *Config) LoadRoster() error {
	if c.RosterFile == "" {
		return nil
	}
	data, err := os.ReadFile(c.RosterFile)
	if err != nil {
		return fmt.Errorf("read roster file: %w", err)
	}
	var roster core.Roster
	if err := yaml.Unmarshal(data, &roster); err != nil {
		return fmt.Errorf("parse roster file %s: %w", c.RosterFile, err)
	}
	c.Roster = roster
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Validate validates the configuration and returns every problem found.
func (c *Config) Validate() error {
	var errs []error

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Errorf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d: must be between 1 and 65535", port))
	}
	if c.RateLimit < 1 {
		errs = append(errs, fmt.Errorf("invalid rate limit %d: must be at least 1", c.RateLimit))
	}

	switch c.DataBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errs = append(errs, errors.New("SQLite database path cannot be empty when using sqlite backend"))
		}
	case "memory":
		if c.SeedFile != "" {
			if _, err := os.Stat(c.SeedFile); err != nil {
				errs = append(errs, fmt.Errorf("seed file: %w", err))
			}
		}
	default:
		errs = append(errs, fmt.Errorf("invalid data backend '%s': must be one of [memory sqlite]", c.DataBackend))
	}

	if err := c.Roster.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("%w (set ROSTER_FILE or PARTY_A_ID and PARTY_B_ID)", err))
	}

	if _, err := currency.ParseISO(c.Currency); err != nil {
		errs = append(errs, fmt.Errorf("invalid currency '%s': %w", c.Currency, err))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("invalid timezone '%s': %w", c.Timezone, err))
	}
	if c.RollupThreshold >= 1 {
		errs = append(errs, fmt.Errorf("invalid rollup threshold %v: must be below 1", c.RollupThreshold))
	}
	if c.CacheSize < 1 {
		errs = append(errs, fmt.Errorf("invalid report cache size %d: must be at least 1", c.CacheSize))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Errorf("invalid AMQP URL: %w", err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errs = append(errs, fmt.Errorf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, errors.New("AMQP exchange name cannot be empty when AMQP URL is provided"))
		}
		if c.AMQPQueue == "" {
			errs = append(errs, errors.New("AMQP queue name cannot be empty when AMQP URL is provided"))
		}
	}

	if c.ExportInterval < time.Minute || c.ExportInterval > 24*time.Hour {
		errs = append(errs, fmt.Errorf("invalid export interval %v: must be between 1 minute and 24 hours", c.ExportInterval))
	}
	if c.ExportGoogle && c.GoogleSpreadsheetID == "" {
		errs = append(errs, errors.New("GOOGLE_SPREADSHEET_ID is required when EXPORT_GOOGLE is set"))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("configuration validation failed:\n%w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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
