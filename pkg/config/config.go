package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the openpgpcard daemon configuration.
//
// This structure captures everything needed to bring up the card
// application: where its persistent state lives, how it talks to a
// reader, and how it reports metrics and logs.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (OPENPGPCARD_*)
//  3. Configuration file (YAML)
//  4. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Store configures the persistent application state (BadgerDB).
	Store StoreConfig `mapstructure:"store" yaml:"store"`

	// Reader configures the APDU transport used to reach a card reader.
	Reader ReaderConfig `mapstructure:"reader" yaml:"reader"`

	// Metrics contains Prometheus metrics server configuration
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// KeyGen configures the background key-generation pump.
	KeyGen KeyGenConfig `mapstructure:"keygen" yaml:"keygen"`

	// Card contains values baked into the AID at blank-card init.
	Card CardConfig `mapstructure:"card" yaml:"card"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// StoreConfig configures the BadgerDB-backed persistent application state.
type StoreConfig struct {
	// Path is the directory BadgerDB uses for its data files.
	Path string `mapstructure:"path" validate:"required" yaml:"path"`

	// ValueLogGC is how often to run Badger's value-log garbage collection.
	// Default: 10m
	ValueLogGC time.Duration `mapstructure:"value_log_gc" yaml:"value_log_gc"`
}

// ReaderConfig configures how the daemon attaches to a card reader.
type ReaderConfig struct {
	// Transport selects the APDU transport.
	// Valid values: "pcsc" (CCID reader via PC/SC), "unix" (Unix-domain
	// socket APDU transport, used for emulators and integration tests).
	Transport string `mapstructure:"transport" validate:"required,oneof=pcsc unix" yaml:"transport"`

	// Socket is the Unix-domain socket path, used when Transport is "unix".
	Socket string `mapstructure:"socket" yaml:"socket,omitempty"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
// When Enabled is false, no metrics are collected (zero overhead).
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port for the metrics endpoint. Default: 9290.
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// KeyGenConfig holds key-generation pump settings. They are loaded,
// defaulted and validated, but keygen.New does not take them: the pump
// always runs one goroutine per slot with a fixed queue depth of 2.
type KeyGenConfig struct {
	// QueueDepth is the configured number of candidate keys per slot.
	// Default: 1. Not read by the pump.
	QueueDepth int `mapstructure:"queue_depth" validate:"omitempty,min=1" yaml:"queue_depth"`

	// Workers is the configured number of key-generation goroutines.
	// Default: 1. Not read by the pump.
	Workers int `mapstructure:"workers" validate:"omitempty,min=1" yaml:"workers"`
}

// CardConfig holds values baked into the AID (spec §3.1) when a blank
// card is initialized via "openpgpcard init".
type CardConfig struct {
	// Serial is the 4-byte serial number component of the AID.
	Serial [4]byte `mapstructure:"-" yaml:"-"`

	// ManufacturerID is the 2-byte manufacturer ID component of the AID.
	ManufacturerID [2]byte `mapstructure:"-" yaml:"-"`
}

// Load loads configuration from file, environment, and defaults.
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !configFileFound {
		return GetDefaultConfig(), nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  openpgpcard init\n\n"+
				"Or specify a custom config file:\n"+
				"  openpgpcard <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s\n\n"+
			"Please create the configuration file:\n"+
			"  openpgpcard init --config %s",
			configPath, configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to the specified file path in YAML.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// 0600 because the store path and reader socket are not secrets
	// themselves, but config files on shared systems shouldn't be world
	// readable either.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("OPENPGPCARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		configDir := getConfigDir()
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error).
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

// configDecodeHooks returns a combined decode hook for custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
	)
}

// durationDecodeHook converts strings like "30s", "5m", "1h" to
// time.Duration when unmarshaling config into fields of that type.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory path.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "openpgpcard")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "openpgpcard")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for init command).
func GetConfigDir() string {
	return getConfigDir()
}
