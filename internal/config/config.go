package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string
	MediaPath   string
	AppEnv      string

	// DefaultLicenseShortName names the license applied to schemes
	// created without an explicit license_id. Required configuration,
	// not an ordering-dependent "first row" lookup.
	DefaultLicenseShortName string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:                    getEnv("PORT", "8080"),
		DatabaseURL:             os.Getenv("DATABASE_URL"),
		JWTSecret:               os.Getenv("JWT_SECRET"),
		MediaPath:               getEnv("MEDIA_PATH", "./media"),
		AppEnv:                  getEnv("APP_ENV", "development"),
		DefaultLicenseShortName: getEnv("DEFAULT_LICENSE_SHORT_NAME", "CC BY"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
