// Package config provides configuration loading and management.
package config

// StoreConfig contains document-store connection settings.
type StoreConfig struct {
	// URL is the base URL of the metadata document API.
	// Env: METAMIGRATE_STORE_URL
	URL string `json:"url,omitempty" mapstructure:"url"`

	// Database is the document database name.
	// Env: METAMIGRATE_STORE_DATABASE, Default: "metadata_index"
	Database string `json:"database,omitempty" mapstructure:"database"`

	// SourceCollection holds the legacy records to migrate.
	// Env: METAMIGRATE_STORE_SOURCE_COLLECTION, Default: "data_assets"
	SourceCollection string `json:"source_collection,omitempty" mapstructure:"source_collection"`

	// TargetCollection receives migrated records.
	// Env: METAMIGRATE_STORE_TARGET_COLLECTION, Default: "data_assets_v2"
	TargetCollection string `json:"target_collection,omitempty" mapstructure:"target_collection"`

	// APIKey is sent in the x-api-key header when set.
	// Env: METAMIGRATE_STORE_API_KEY
	APIKey string `json:"api_key,omitempty" mapstructure:"api_key"`

	// TimeoutSeconds bounds each store request.
	// Env: METAMIGRATE_STORE_TIMEOUT_SECONDS, Default: 30
	TimeoutSeconds int `json:"timeout_seconds,omitempty" mapstructure:"timeout_seconds"`
}

// StatusDBConfig contains sync status database settings.
type StatusDBConfig struct {
	// DSN selects the status store driver by scheme: postgres://,
	// sqlite://, or memory://.
	// Env: METAMIGRATE_STATUSDB_DSN, Default: "memory://"
	DSN string `json:"dsn,omitempty" mapstructure:"dsn"`
}

// LogConfig contains logging-related settings.
type LogConfig struct {
	// Timestamps controls whether timestamps are shown in log output.
	// Default: true. Override with --timestamps flag.
	Timestamps *bool `json:"timestamps,omitempty" mapstructure:"timestamps"`
}

// Config represents the metamigrate configuration.
// Loaded from ~/.metamigrate/config.yaml; environment variables win over
// file values, flags win over both.
type Config struct {
	// Store contains document-store connection settings.
	Store StoreConfig `json:"store,omitempty" mapstructure:"store"`

	// StatusDB contains sync status database settings.
	StatusDB StatusDBConfig `json:"statusdb,omitempty" mapstructure:"statusdb"`

	// Log contains logging-related settings.
	Log LogConfig `json:"log,omitempty" mapstructure:"log"`
}

// Default values applied by WithDefaults.
const (
	DefaultDatabase         = "metadata_index"
	DefaultSourceCollection = "data_assets"
	DefaultTargetCollection = "data_assets_v2"
	DefaultTimeoutSeconds   = 30
	DefaultStatusDSN        = "memory://"
)

// DefaultConfig returns a Config with all default values populated.
// Used by `metamigrate config init` to generate the initial config file.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Database:         DefaultDatabase,
			SourceCollection: DefaultSourceCollection,
			TargetCollection: DefaultTargetCollection,
			TimeoutSeconds:   DefaultTimeoutSeconds,
		},
		StatusDB: StatusDBConfig{
			DSN: DefaultStatusDSN,
		},
	}
}

// WithDefaults returns a copy of the config with defaults filled into any
// unset fields.
func (c *Config) WithDefaults() *Config {
	out := *c

	if out.Store.Database == "" {
		out.Store.Database = DefaultDatabase
	}
	if out.Store.SourceCollection == "" {
		out.Store.SourceCollection = DefaultSourceCollection
	}
	if out.Store.TargetCollection == "" {
		out.Store.TargetCollection = DefaultTargetCollection
	}
	if out.Store.TimeoutSeconds <= 0 {
		out.Store.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if out.StatusDB.DSN == "" {
		out.StatusDB.DSN = DefaultStatusDSN
	}

	return &out
}
