package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port        string        `env:"PORT" env-default:"8080"`
	DatabaseDSN string        `env:"DATABASE_DSN" env-default:"surfspots.db"`
	SessionTTL  time.Duration `env:"SESSION_TTL" env-default:"24h"`
	// AdminUsers are display names granted the admin role when they register.
	AdminUsers []string `env:"ADMIN_USERS" env-separator:","`
	Timezone   string   `env:"TIMEZONE" env-default:"Local"`

	// HTTPTimeout bounds every outbound call (weather, geocoding, scraping).
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" env-default:"10s"`

	Stormglass Stormglass
	Geocoder   Geocoder
	Scrape     Scrape
	Images     Images
	MinIO      MinIO

	GoogleMapsAPIKey string `env:"GOOGLE_MAPS_API_KEY"`

	LogLevel  string `env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `env:"LOG_FORMAT" env-default:"console"`
}

type Stormglass struct {
	APIKey  string `env:"STORMGLASS_API_KEY"`
	BaseURL string `env:"STORMGLASS_URL" env-default:"https://api.stormglass.io/v2/weather/point"`
}

type Geocoder struct {
	NominatimURL string `env:"NOMINATIM_URL" env-default:"https://nominatim.openstreetmap.org/search"`
	// APIKey switches geocoding to the Google backend when set.
	APIKey    string `env:"GEOCODER_API_KEY"`
	CacheSize int    `env:"GEOCODER_CACHE_SIZE" env-default:"500"`
}

type Scrape struct {
	RankingsURL string        `env:"RANKINGS_URL" env-default:"https://www.worldsurfleague.com/athletes/rankings"`
	EventsURL   string        `env:"EVENTS_URL" env-default:"https://www.worldsurfleague.com/events?all=1"`
	TTL         time.Duration `env:"SCRAPE_TTL" env-default:"6h"`
	Interval    time.Duration `env:"SCRAPE_INTERVAL" env-default:"1h"`
}

type Images struct {
	MaxAge     time.Duration `env:"IMAGE_MAX_AGE" env-default:"1h"`
	MaxEntries int           `env:"IMAGE_MAX_ENTRIES" env-default:"256"`
}

type MinIO struct {
	Endpoint  string        `env:"MINIO_ENDPOINT"`
	User      string        `env:"MINIO_USER" env-default:"minioadmin"`
	Pass      string        `env:"MINIO_PASSWORD" env-default:"minioadmin"`
	Bucket    string        `env:"MINIO_BUCKET" env-default:"charts"`
	Region    string        `env:"MINIO_REGION" env-default:"us-east-1"`
	UseSSL    bool          `env:"MINIO_USE_SSL" env-default:"false"`
	URLExpiry time.Duration `env:"MINIO_URL_EXPIRY" env-default:"24h"`
}

// Enabled reports whether charts should go to object storage.
func (m MinIO) Enabled() bool {
	return m.Endpoint != ""
}

// Load reads configuration from the environment (and .env when present).
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("cleanenv.ReadEnv: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) normalize() {
	admins := c.AdminUsers[:0]
	for _, name := range c.AdminUsers {
		if name = strings.TrimSpace(name); name != "" {
			admins = append(admins, name)
		}
	}
	c.AdminUsers = admins
}

// Validate rejects settings the server cannot run with.
func (c *AppConfig) Validate() error {
	if c.DatabaseDSN == "" {
		return errors.New("DATABASE_DSN is required")
	}
	if c.HTTPTimeout <= 0 {
		return errors.New("HTTP_TIMEOUT must be positive")
	}
	if c.Scrape.TTL <= 0 {
		return errors.New("SCRAPE_TTL must be positive")
	}
	if c.Scrape.Interval < time.Minute {
		return fmt.Errorf("SCRAPE_INTERVAL must be at least 1m, got %s", c.Scrape.Interval)
	}
	if c.Geocoder.CacheSize <= 0 {
		return errors.New("GEOCODER_CACHE_SIZE must be positive")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	return nil
}

// Location resolves Timezone, used for day windows and the current-hour marker.
func (c *AppConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// IsAdmin reports whether name is configured as an admin.
func (c *AppConfig) IsAdmin(name string) bool {
	for _, a := range c.AdminUsers {
		if a == name {
			return true
		}
	}
	return false
}
