package config

import "time"

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Called after loading configuration from file and environment variables
// to fill in any missing values with sensible defaults.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyStoreDefaults(&cfg.Store)
	applyReaderDefaults(&cfg.Reader)
	applyMetricsDefaults(&cfg.Metrics)
	applyKeyGenDefaults(&cfg.KeyGen)
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyStoreDefaults(cfg *StoreConfig) {
	if cfg.Path == "" {
		cfg.Path = "/var/lib/openpgpcard/store"
	}
	if cfg.ValueLogGC == 0 {
		cfg.ValueLogGC = 10 * time.Minute
	}
}

func applyReaderDefaults(cfg *ReaderConfig) {
	if cfg.Transport == "" {
		cfg.Transport = "unix"
	}
	if cfg.Transport == "unix" && cfg.Socket == "" {
		cfg.Socket = "/run/openpgpcard/card.sock"
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9290
	}
}

func applyKeyGenDefaults(cfg *KeyGenConfig) {
	if cfg.QueueDepth == 0 {
		cfg.QueueDepth = 1
	}
	if cfg.Workers == 0 {
		cfg.Workers = 1
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for generating sample configuration files and for running
// without a config file (e.g. "openpgpcard init" with no prior setup).
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
