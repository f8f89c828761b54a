package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Environment variable prefix for metamigrate configuration.
const envPrefix = "METAMIGRATE"

// Loader handles loading and merging configuration from multiple sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	v := viper.New()

	// Set up environment variable bindings
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind specific environment variables. Explicit bindings make env-only
	// values visible to Unmarshal even when the config file is absent.
	_ = v.BindEnv("store.url", "METAMIGRATE_STORE_URL")
	_ = v.BindEnv("store.database", "METAMIGRATE_STORE_DATABASE")
	_ = v.BindEnv("store.source_collection", "METAMIGRATE_STORE_SOURCE_COLLECTION")
	_ = v.BindEnv("store.target_collection", "METAMIGRATE_STORE_TARGET_COLLECTION")
	_ = v.BindEnv("store.api_key", "METAMIGRATE_STORE_API_KEY")
	_ = v.BindEnv("store.timeout_seconds", "METAMIGRATE_STORE_TIMEOUT_SECONDS")
	_ = v.BindEnv("statusdb.dsn", "METAMIGRATE_STATUSDB_DSN")

	return &Loader{v: v}
}

// Load loads configuration from the given file path.
// If configFile is empty, it uses the default config file path.
// Environment variables take precedence over file values.
func (l *Loader) Load(configFile string) (*Config, error) {
	if configFile == "" {
		var err error
		configFile, err = GetConfigFile()
		if err != nil {
			return nil, fmt.Errorf("getting config file path: %w", err)
		}
	}

	// Expand ~ in path
	expandedPath, err := ExpandPath(configFile)
	if err != nil {
		return nil, fmt.Errorf("expanding config path: %w", err)
	}

	// Set up viper for the config file
	l.v.SetConfigFile(expandedPath)
	l.v.SetConfigType("yaml")

	// Try to read config file (not an error if it doesn't exist)
	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Only return error if it's not a "file not found" error
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
		// Config file not found is OK, we'll use defaults + env vars
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// LoadWithDefaults loads configuration and applies defaults.
func (l *Loader) LoadWithDefaults(configFile string) (*Config, error) {
	cfg, err := l.Load(configFile)
	if err != nil {
		return nil, err
	}

	return cfg.WithDefaults(), nil
}

// LoadFromEnvOnly loads configuration from environment variables only.
func (l *Loader) LoadFromEnvOnly() (*Config, error) {
	cfg := &Config{
		Store: StoreConfig{
			URL:              os.Getenv("METAMIGRATE_STORE_URL"),
			Database:         os.Getenv("METAMIGRATE_STORE_DATABASE"),
			SourceCollection: os.Getenv("METAMIGRATE_STORE_SOURCE_COLLECTION"),
			TargetCollection: os.Getenv("METAMIGRATE_STORE_TARGET_COLLECTION"),
			APIKey:           os.Getenv("METAMIGRATE_STORE_API_KEY"),
		},
		StatusDB: StatusDBConfig{
			DSN: os.Getenv("METAMIGRATE_STATUSDB_DSN"),
		},
	}

	return cfg.WithDefaults(), nil
}

// ConfigFileExists checks if the config file exists.
func ConfigFileExists(configFile string) (bool, error) {
	if configFile == "" {
		var err error
		configFile, err = GetConfigFile()
		if err != nil {
			return false, err
		}
	}

	expandedPath, err := ExpandPath(configFile)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(expandedPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}
