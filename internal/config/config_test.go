package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ADMIN_USERS", " kelly , ,steph")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "surfspots.db", cfg.DatabaseDSN)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 6*time.Hour, cfg.Scrape.TTL)
	assert.Equal(t, []string{"kelly", "steph"}, cfg.AdminUsers)
	assert.True(t, cfg.IsAdmin("kelly"))
	assert.False(t, cfg.IsAdmin("Kelly"))
	assert.False(t, cfg.MinIO.Enabled())
	assert.Equal(t, "us-east-1", cfg.MinIO.Region)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SCRAPE_TTL", "30m")
	t.Setenv("MINIO_ENDPOINT", "localhost:9000")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 30*time.Minute, cfg.Scrape.TTL)
	assert.True(t, cfg.MinIO.Enabled())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestValidate(t *testing.T) {
	valid := func() *AppConfig {
		return &AppConfig{
			DatabaseDSN: "test.db",
			HTTPTimeout: time.Second,
			Timezone:    "UTC",
			Geocoder:    Geocoder{CacheSize: 10},
			Scrape:      Scrape{TTL: time.Hour, Interval: time.Hour},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *AppConfig)
		ok     bool
	}{
		{"valid", func(c *AppConfig) {}, true},
		{"empty dsn", func(c *AppConfig) { c.DatabaseDSN = "" }, false},
		{"zero timeout", func(c *AppConfig) { c.HTTPTimeout = 0 }, false},
		{"short interval", func(c *AppConfig) { c.Scrape.Interval = time.Second }, false},
		{"zero cache", func(c *AppConfig) { c.Geocoder.CacheSize = 0 }, false},
		{"bad timezone", func(c *AppConfig) { c.Timezone = "Mars/Olympus" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
