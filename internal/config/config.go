package config

import (
	"fmt"
	"os"
	"path"
	"strconv"
	"time"

	"go.uber.org/zap/zapcore"
)

// Config holds everything the server and the batch command read from the
// environment. Load after godotenv so .env values are visible.
type Config struct {
	DataDir       string
	Addr          string
	LogLevel      zapcore.Level
	MaxUploadMB   int64
	BatchSize     int
	BatchPause    time.Duration
	Seed          int64
	UploadDir     string
	DatabasePath  string
	StaticDir     string
	CleanupOnFail bool
}

const (
	defaultDataDir     = "./data"
	defaultAddr        = "0.0.0.0:8080"
	defaultMaxUploadMB = 100
	defaultBatchSize   = 100
)

// Load reads BIODIV_* variables. Missing values fall back to defaults,
// malformed values are an error.
func Load() (*Config, error) {
	cfg := &Config{
		DataDir:       getenv("BIODIV_DATA", defaultDataDir),
		Addr:          getenv("BIODIV_ADDR", defaultAddr),
		LogLevel:      zapcore.InfoLevel,
		MaxUploadMB:   defaultMaxUploadMB,
		BatchSize:     defaultBatchSize,
		StaticDir:     getenv("BIODIV_STATIC", "./static"),
		CleanupOnFail: true,
	}

	if s := os.Getenv("BIODIV_LOG_LEVEL"); s != "" {
		lvl, err := zapcore.ParseLevel(s)
		if err != nil {
			return nil, fmt.Errorf("BIODIV_LOG_LEVEL: %w", err)
		}
		cfg.LogLevel = lvl
	}

	var err error
	if cfg.MaxUploadMB, err = getInt64("BIODIV_MAX_UPLOAD_MB", defaultMaxUploadMB); err != nil {
		return nil, err
	}
	if cfg.MaxUploadMB <= 0 {
		return nil, fmt.Errorf("BIODIV_MAX_UPLOAD_MB must be > 0")
	}

	batch, err := getInt64("BIODIV_BATCH_SIZE", defaultBatchSize)
	if err != nil {
		return nil, err
	}
	if batch <= 0 {
		return nil, fmt.Errorf("BIODIV_BATCH_SIZE must be > 0")
	}
	cfg.BatchSize = int(batch)

	pauseMS, err := getInt64("BIODIV_BATCH_PAUSE_MS", 0)
	if err != nil {
		return nil, err
	}
	cfg.BatchPause = time.Duration(pauseMS) * time.Millisecond

	if cfg.Seed, err = getInt64("BIODIV_SEED", 0); err != nil {
		return nil, err
	}

	if s := os.Getenv("BIODIV_KEEP_FAILED_UPLOADS"); s != "" {
		keep, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("BIODIV_KEEP_FAILED_UPLOADS: %w", err)
		}
		cfg.CleanupOnFail = !keep
	}

	cfg.UploadDir = path.Join(cfg.DataDir, "uploads")
	cfg.DatabasePath = path.Join(cfg.DataDir, "db", "analyses.db")
	return cfg, nil
}

// MaxUploadBytes is the multipart body limit.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB * 1024 * 1024
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt64(key string, def int64) (int64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}
