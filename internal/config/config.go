package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth; empty disables bearer auth on the API.
	APIKey string

	// Document to load and watch at startup (optional).
	DocPath       string
	WatchDebounce time.Duration

	// Editor callback for navigation intents (optional).
	EditorURL    string
	EditorAPIKey string

	// View adapter
	RevealDelay time.Duration

	// Upload limits
	MaxUploadBytes int64

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8091"),

		APIKey: os.Getenv("OUTLINED_API_KEY"),

		DocPath:       os.Getenv("DOC_PATH"),
		WatchDebounce: envDuration("WATCH_DEBOUNCE", 200*time.Millisecond),

		EditorURL:    os.Getenv("EDITOR_URL"),
		EditorAPIKey: os.Getenv("EDITOR_API_KEY"),

		RevealDelay: envDuration("REVEAL_DELAY", 50*time.Millisecond),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.WatchDebounce <= 0 {
		cfg.WatchDebounce = 200 * time.Millisecond
	}
	if cfg.RevealDelay <= 0 {
		cfg.RevealDelay = 50 * time.Millisecond
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}

	return cfg
}

func (c Config) Validate() error {
	if c.DocPath != "" {
		if _, err := os.Stat(c.DocPath); err != nil {
			return fmt.Errorf("DOC_PATH: %w", err)
		}
	}
	if c.EditorAPIKey != "" && c.EditorURL == "" {
		return fmt.Errorf("EDITOR_API_KEY is set but EDITOR_URL is empty")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
