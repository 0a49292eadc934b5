// Package config provides environment-driven configuration for triplewalk.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/persistorai/triplewalk/internal/models"
	"github.com/persistorai/triplewalk/internal/store"
)

// Secret wraps a sensitive string to prevent accidental logging or marshalling.
type Secret string

// String implements fmt.Stringer, returning a redacted placeholder.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer, returning a redacted placeholder.
func (s Secret) GoString() string { return "[REDACTED]" }

// MarshalText implements encoding.TextMarshaler, returning a redacted placeholder.
func (s Secret) MarshalText() ([]byte, error) { return []byte("[REDACTED]"), nil }

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

// Config holds all application configuration values.
type Config struct {
	// Store.
	StoreBackend string
	DatabaseURL  Secret
	DBMaxConns   int
	BadgerDir    string
	SQLitePath   string

	// Startup load.
	LoadFiles     []string
	LoadBatchSize int
	QuadsLang     string

	// Query engine.
	LabelPredicate  models.Node
	WalkBatchSize   int
	WalkFanout      int
	WalkMaxResults  int
	ClosureMaxDepth int

	// HTTP.
	Port        string
	ListenHost  string
	CORSOrigins []string
	APIKey      Secret
	RateLimit   float64
	RateBurst   int
	MaxStreams  int

	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		StoreBackend:   envOrDefault("STORE_BACKEND", store.BackendMemory),
		DatabaseURL:    Secret(envOrDefault("DATABASE_URL", "")),
		BadgerDir:      envOrDefault("BADGER_DIR", "./data/badger"),
		SQLitePath:     envOrDefault("SQLITE_PATH", "./data/triplewalk.db"),
		QuadsLang:      envOrDefault("QUADS_LANG", ""),
		LabelPredicate: models.Node(envOrDefault("LABEL_PREDICATE", string(models.RDFSLabel))),
		Port:           envOrDefault("PORT", "3040"),
		ListenHost:     envOrDefault("LISTEN_HOST", "127.0.0.1"),
		APIKey:         Secret(envOrDefault("API_KEY", "")),
		LogLevel:       envOrDefault("LOG_LEVEL", "info"),
		LogFormat:      envOrDefault("LOG_FORMAT", "text"),
		LoadFiles:      splitList(envOrDefault("LOAD_FILES", "")),
		CORSOrigins:    splitList(envOrDefault("CORS_ORIGINS", "http://localhost:3002")),
	}

	ints := []struct {
		key      string
		fallback int
		min, max int
		dst      *int
	}{
		{"DB_MAX_CONNS", 10, 1, 100, &cfg.DBMaxConns},
		{"LOAD_BATCH_SIZE", store.DefaultLoadBatchSize, 1, 100_000, &cfg.LoadBatchSize},
		{"WALK_BATCH_SIZE", store.DefaultPageSize, 1, store.MaxPageSize, &cfg.WalkBatchSize},
		{"WALK_FANOUT", 4, 1, 64, &cfg.WalkFanout},
		{"WALK_MAX_RESULTS", 1000, 1, 1_000_000, &cfg.WalkMaxResults},
		{"CLOSURE_MAX_DEPTH", 100, -1, 10_000, &cfg.ClosureMaxDepth},
		{"RATE_BURST", 200, 1, 100_000, &cfg.RateBurst},
		{"MAX_STREAMS", 1000, 1, 100_000, &cfg.MaxStreams},
	}

	for _, f := range ints {
		v, err := envInt(f.key, f.fallback, f.min, f.max)
		if err != nil {
			return nil, err
		}

		*f.dst = v
	}

	rateLimit, err := strconv.ParseFloat(envOrDefault("RATE_LIMIT", "100"), 64)
	if err != nil || rateLimit <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT must be a positive number")
	}
	cfg.RateLimit = rateLimit

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// StoreOptions returns the options for store.Open.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Backend:     c.StoreBackend,
		DatabaseURL: c.DatabaseURL.Value(),
		MaxConns:    c.DBMaxConns,
		BadgerDir:   c.BadgerDir,
		SQLitePath:  c.SQLitePath,
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func envInt(key string, fallback, minVal, maxVal int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < minVal || v > maxVal {
		return 0, fmt.Errorf("%s must be an integer between %d and %d", key, minVal, maxVal)
	}

	return v, nil
}

// splitList splits a comma-separated value, trimming spaces and dropping
// empty entries.
func splitList(s string) []string {
	var out []string

	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}

	return out
}
