package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Storage root holding uploads, processed and logs
	StorageDir string

	// Auth
	AuthToken    string
	CookieSecure bool

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// Conversion
	PdftohtmlPath  string
	ConvertTimeout time.Duration
	EmbedImages    bool
	CenterPages    bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8080"),

		StorageDir: envOr("STORAGE_DIR", "./storage"),

		AuthToken:    os.Getenv("AUTH_TOKEN"),
		CookieSecure: envBool("COOKIE_SECURE", false),

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 50),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 524288000), // 500MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PdftohtmlPath:  envOr("PDFTOHTML_PATH", "pdftohtml"),
		ConvertTimeout: envDuration("CONVERT_TIMEOUT", 5*time.Minute),
		EmbedImages:    envBool("EMBED_IMAGES", true),
		CenterPages:    envBool("CENTER_PAGES", true),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 50
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 524288000
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.ConvertTimeout <= 0 {
		cfg.ConvertTimeout = 5 * time.Minute
	}

	return cfg
}

func (c Config) Validate() error {
	if c.AuthToken == "" {
		return fmt.Errorf("AUTH_TOKEN is required")
	}
	if c.StorageDir == "" {
		return fmt.Errorf("STORAGE_DIR must not be empty")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
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
