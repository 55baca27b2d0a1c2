package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	DatabaseURL       string
	RedisURL          string
	NATSURL           string
	JWTSecret         string
	UploadDir         string
	UploadBaseURL     string
	Timezone          string
	ReviewBaseURL     string
	ReviewTimeout     time.Duration
	MyListingCacheTTL time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Location resolves the configured timezone deadlines are interpreted in.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("DOCSERVER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "DocServer API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("upload.dir", "./uploads")
	v.SetDefault("upload.base_url", "http://localhost:8080/files")
	v.SetDefault("timezone", "Asia/Seoul")
	v.SetDefault("review.timeout", "2m")
	v.SetDefault("my_listing.cache_ttl", "30s")

	reviewTimeout, err := time.ParseDuration(v.GetString("review.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid review timeout: %w", err)
	}

	cacheTTL, err := time.ParseDuration(v.GetString("my_listing.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid my-listing cache ttl: %w", err)
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		DatabaseURL:       v.GetString("database.url"),
		RedisURL:          v.GetString("redis.url"),
		NATSURL:           v.GetString("nats.url"),
		JWTSecret:         v.GetString("jwt.secret"),
		UploadDir:         v.GetString("upload.dir"),
		UploadBaseURL:     v.GetString("upload.base_url"),
		Timezone:          v.GetString("timezone"),
		ReviewBaseURL:     v.GetString("review.base_url"),
		ReviewTimeout:     reviewTimeout,
		MyListingCacheTTL: cacheTTL,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	return cfg, nil
}
