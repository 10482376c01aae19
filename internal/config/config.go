// Package config loads server settings from CAFE_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/brewco/cafe/internal/hours"
	"github.com/brewco/cafe/internal/model"
)

type Config struct {
	DatabaseURL string // CAFE_DATABASE_URL (required)
	GRPCAddr    string // CAFE_GRPC_ADDR (default ":9090")
	HTTPAddr    string // CAFE_HTTP_ADDR (default ":8080")
	NATSURL     string // CAFE_NATS_URL (optional, empty = single instance, no bus)
	AuthToken   string // CAFE_AUTH_TOKEN (optional, empty = auth disabled)

	StatusRowID int64 // CAFE_STATUS_ROW_ID (default 1)
	HeroRowID   int64 // CAFE_HERO_ROW_ID (default 3)

	Hours    string // CAFE_HOURS (default "09:00-23:00")
	Timezone string // CAFE_TIMEZONE (default "Asia/Kolkata")

	// Sync settings
	SyncInterval   time.Duration // CAFE_SYNC_INTERVAL (default 10m; 0 = disabled)
	SyncS3Bucket   string        // CAFE_SYNC_S3_BUCKET (enables S3 when set)
	SyncS3Endpoint string        // CAFE_SYNC_S3_ENDPOINT (custom endpoint for MinIO)
	SyncS3Region   string        // CAFE_SYNC_S3_REGION (default "us-east-1")
	SyncS3Key      string        // CAFE_SYNC_S3_KEY (default "cafe/snapshot.jsonl")
	SyncGitRepo    string        // CAFE_SYNC_GIT_REPO (enables git when set; path to clone)
	SyncGitFile    string        // CAFE_SYNC_GIT_FILE (default "cafe.jsonl")
	SyncGitBranch  string        // CAFE_SYNC_GIT_BRANCH (default "main")
}

func Load() (*Config, error) {
	c := &Config{
		DatabaseURL:    os.Getenv("CAFE_DATABASE_URL"),
		GRPCAddr:       envOrDefault("CAFE_GRPC_ADDR", ":9090"),
		HTTPAddr:       envOrDefault("CAFE_HTTP_ADDR", ":8080"),
		NATSURL:        os.Getenv("CAFE_NATS_URL"),
		AuthToken:      os.Getenv("CAFE_AUTH_TOKEN"),
		Hours:          envOrDefault("CAFE_HOURS", hours.DefaultSpec),
		Timezone:       envOrDefault("CAFE_TIMEZONE", hours.DefaultTimezone),
		SyncS3Bucket:   os.Getenv("CAFE_SYNC_S3_BUCKET"),
		SyncS3Endpoint: os.Getenv("CAFE_SYNC_S3_ENDPOINT"),
		SyncS3Region:   envOrDefault("CAFE_SYNC_S3_REGION", "us-east-1"),
		SyncS3Key:      envOrDefault("CAFE_SYNC_S3_KEY", "cafe/snapshot.jsonl"),
		SyncGitRepo:    os.Getenv("CAFE_SYNC_GIT_REPO"),
		SyncGitFile:    envOrDefault("CAFE_SYNC_GIT_FILE", "cafe.jsonl"),
		SyncGitBranch:  envOrDefault("CAFE_SYNC_GIT_BRANCH", "main"),
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("CAFE_DATABASE_URL is required")
	}

	var err error
	if c.StatusRowID, err = rowID("CAFE_STATUS_ROW_ID", model.ShopStatusRowID); err != nil {
		return nil, err
	}
	if c.HeroRowID, err = rowID("CAFE_HERO_ROW_ID", model.HeroRowID); err != nil {
		return nil, err
	}
	if _, err := hours.Parse(c.Hours, c.Timezone); err != nil {
		return nil, fmt.Errorf("CAFE_HOURS/CAFE_TIMEZONE: %w", err)
	}

	intervalStr := envOrDefault("CAFE_SYNC_INTERVAL", "10m")
	d, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("CAFE_SYNC_INTERVAL: %w", err)
	}
	c.SyncInterval = d

	return c, nil
}

// Schedule returns the parsed opening hours. Load has already validated them.
func (c *Config) Schedule() *hours.Schedule {
	s, err := hours.Parse(c.Hours, c.Timezone)
	if err != nil {
		return hours.Default()
	}
	return s
}

func rowID(key string, fallback int64) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s: must be a positive integer, got %q", key, raw)
	}
	return id, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
