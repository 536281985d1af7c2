package config

import (
	"reflect"
	"strings"
	"time"

	"inventory-sync/core/database"
	"inventory-sync/core/lock"
	"inventory-sync/core/logger"
	"inventory-sync/core/server"
	"inventory-sync/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the run archive bucket.
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the database connection.
	Database database.Config `mapstructure:"database"`
	// POS holds configuration for the point-of-sale inventory API.
	POS POSConfig `mapstructure:"pos"`
	// Sync holds tuning for inventory runs.
	Sync SyncConfig `mapstructure:"sync"`
	// Redis holds configuration for the cross-process run lock.
	Redis lock.Config `mapstructure:"redis"`
}

// POSConfig describes how to reach the POS inventory endpoint.
type POSConfig struct {
	// BaseURL is the API root, without trailing slash.
	BaseURL string `mapstructure:"base_url" default:"https://joinposter.com/api"`
	// Method is the leftovers endpoint appended to BaseURL.
	Method string `mapstructure:"method" default:"storage.getStorageLeftovers"`
	// Token is the API access token.
	Token string `mapstructure:"token" default:""`
	// TimeoutSeconds bounds a single branch fetch.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}

// Timeout returns the fetch timeout, falling back to 30 seconds.
func (c POSConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SyncConfig tunes the orchestrator.
type SyncConfig struct {
	// Concurrency is the number of branches fetched in parallel.
	Concurrency int `mapstructure:"concurrency" default:"4"`
	// LockKey names the Redis lock guarding a run.
	LockKey string `mapstructure:"lock_key" default:"sync:inventory"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. POS_BASE_URL -> pos.base_url)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues walks the struct and registers every 'mapstructure' key with its
// 'default' tag value.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
