// Package config provides centralized configuration for the notes admin
// server. It loads configuration from CLI flags and environment variables,
// validates required fields, and provides sensible defaults.
//
// The --store flag (or STORE_DRIVER env var) selects the persistence
// backend: "sqlite" (default, file under DATA_DIR) or "surreal" (SurrealDB
// over websocket, configured via SURREALDB_* env vars).
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
)

// Store driver names accepted by Config.StoreDriver.
const (
	StoreSQLite  = "sqlite"
	StoreSurreal = "surreal"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	ListenAddr   string
	BaseURL      string
	TemplatesDir string

	// Persistence
	StoreDriver string
	DataDir     string // SQLite data directory

	// SurrealDB (required only when StoreDriver == "surreal")
	SurrealURL       string
	SurrealNamespace string
	SurrealDatabase  string
	SurrealUser      string
	SurrealPass      string
}

// ValidationError represents a configuration validation error with multiple issues.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// ParseFlags parses CLI flags and returns them. Call before LoadConfig.
func ParseFlags() (addr, storeDriver string) {
	flag.StringVar(&addr, "addr", "", "Listen address (default :8080, overrides LISTEN_ADDR env var)")
	flag.StringVar(&storeDriver, "store", "", "Store driver: sqlite or surreal (overrides STORE_DRIVER env var)")
	flag.Parse()
	return addr, storeDriver
}

// LoadConfig loads configuration from environment variables and CLI flag
// values. Non-empty flag values override their env vars.
func LoadConfig(addr, storeDriver string) (*Config, error) {
	cfg := &Config{}

	cfg.ListenAddr = getEnvOrDefault("LISTEN_ADDR", ":8080")
	if addr != "" {
		cfg.ListenAddr = addr
	}
	cfg.BaseURL = strings.TrimSpace(os.Getenv("BASE_URL"))
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost" + cfg.ListenAddr
	}
	cfg.TemplatesDir = getEnvOrDefault("TEMPLATES_DIR", "./web/templates")

	cfg.StoreDriver = getEnvOrDefault("STORE_DRIVER", StoreSQLite)
	if storeDriver != "" {
		cfg.StoreDriver = storeDriver
	}
	cfg.DataDir = getEnvOrDefault("DATA_DIR", "./data")

	cfg.SurrealURL = strings.TrimSpace(os.Getenv("SURREALDB_URL"))
	cfg.SurrealNamespace = getEnvOrDefault("SURREALDB_NAMESPACE", "notesadmin")
	cfg.SurrealDatabase = getEnvOrDefault("SURREALDB_DATABASE", "notesadmin")
	cfg.SurrealUser = os.Getenv("SURREALDB_USER")
	cfg.SurrealPass = os.Getenv("SURREALDB_PASS")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that all required configuration is present and valid.
func (c *Config) Validate() error {
	var errs []string

	switch c.StoreDriver {
	case StoreSQLite:
		if c.DataDir == "" {
			errs = append(errs, "DATA_DIR is required with the sqlite store")
		}
	case StoreSurreal:
		if c.SurrealURL == "" {
			errs = append(errs, "SURREALDB_URL is required with the surreal store (e.g. ws://localhost:8000/rpc)")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown store driver %q (want %s or %s)", c.StoreDriver, StoreSQLite, StoreSurreal))
	}

	if c.TemplatesDir == "" {
		errs = append(errs, "TEMPLATES_DIR must not be empty")
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// PrintStartupSummary prints a human-readable summary of the configuration to stderr.
func (c *Config) PrintStartupSummary() {
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "notes-admin server starting...")

	switch c.StoreDriver {
	case StoreSurreal:
		fmt.Fprintf(os.Stderr, "  Store:   SurrealDB (%s, ns=%s db=%s)\n", c.SurrealURL, c.SurrealNamespace, c.SurrealDatabase)
	default:
		fmt.Fprintf(os.Stderr, "  Store:   SQLite (%s)\n", c.DataDir)
	}

	fmt.Fprintf(os.Stderr, "  Listen:  %s\n", c.ListenAddr)
	fmt.Fprintf(os.Stderr, "  Base:    %s\n", c.BaseURL)
	fmt.Fprintln(os.Stderr, "")
}

// MustLoadConfig loads configuration and panics if validation fails.
// Use this in main() when the application should fail fast on bad config.
func MustLoadConfig(addr, storeDriver string) *Config {
	cfg, err := LoadConfig(addr, storeDriver)
	if err != nil {
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			panic(fmt.Sprintf("Configuration validation failed:\n  - %s", strings.Join(validationErr.Errors, "\n  - ")))
		}
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}
	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
