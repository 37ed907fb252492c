package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Backend names accepted for STORAGE_BACKEND.
const (
	BackendLocal = "local"
	BackendMongo = "mongo"
)

// Config represents the full application configuration surface.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	MongoDB  MongoDBConfig
	Currency CurrencyConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// StorageConfig selects and parameterizes the sheet persistence backend.
type StorageConfig struct {
	// Backend is either "local" (on-device key-value files) or "mongo"
	// (remote per-user document store).
	Backend string
	// DataDir is the directory backing the local key-value store. It also
	// holds device preferences regardless of the selected backend.
	DataDir string
}

// MongoDBConfig holds settings for the remote document store backend.
type MongoDBConfig struct {
	URI    string
	DBName string
	// UserID scopes every document; the remote backend refuses to operate
	// without an authenticated identity.
	UserID string
}

// CurrencyConfig holds display currency defaults.
type CurrencyConfig struct {
	DefaultCode string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Storage: StorageConfig{
			Backend: getenvWithDefault("STORAGE_BACKEND", BackendLocal),
			DataDir: getenvWithDefault("DATA_DIR", "./data"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "bookkeeper"),
			UserID: os.Getenv("MONGODB_USER_ID"),
		},
		Currency: CurrencyConfig{
			DefaultCode: getenvWithDefault("DEFAULT_CURRENCY", "NGN"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch c.Storage.Backend {
	case BackendLocal:
		if c.Storage.DataDir == "" {
			return errors.New("DATA_DIR must be provided for the local backend")
		}
	case BackendMongo:
		switch {
		case c.MongoDB.URI == "":
			return errors.New("MONGODB_URI must be provided for the mongo backend")
		case c.MongoDB.DBName == "":
			return errors.New("MONGODB_DB_NAME must not be empty")
		case c.MongoDB.UserID == "":
			return errors.New("MONGODB_USER_ID must be provided for the mongo backend")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", BackendLocal, BackendMongo, c.Storage.Backend)
	}

	if c.Currency.DefaultCode == "" {
		return errors.New("DEFAULT_CURRENCY must not be empty")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
