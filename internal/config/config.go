package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"

	"github.com/vango-dev/storekit/internal/errors"
	"github.com/vango-dev/storekit/internal/logging"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "storekit.json"

	// DefaultAddr is the default inspector address.
	DefaultAddr = "localhost:7070"

	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"

	// DefaultLogFormat is the default log format.
	DefaultLogFormat = logging.FormatText

	// DefaultMetricsNamespace is the default Prometheus namespace.
	DefaultMetricsNamespace = "storekit"
)

// Config represents the storekit.json configuration. Every field can be
// overridden by its STOREKIT_* environment variable.
type Config struct {
	// Addr is the inspector listen address.
	Addr string `json:"addr,omitempty" env:"STOREKIT_ADDR"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"logLevel,omitempty" env:"STOREKIT_LOG_LEVEL"`

	// LogFormat is text or json.
	LogFormat string `json:"logFormat,omitempty" env:"STOREKIT_LOG_FORMAT"`

	// MetricsNamespace prefixes every Prometheus metric.
	MetricsNamespace string `json:"metricsNamespace,omitempty" env:"STOREKIT_METRICS_NAMESPACE"`

	// StrictKeys rejects subscriptions to keys absent from state.
	StrictKeys bool `json:"strictKeys" env:"STOREKIT_STRICT_KEYS"`

	// Debug forces debug logging.
	Debug bool `json:"debug,omitempty" env:"STOREKIT_DEBUG"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Addr:             DefaultAddr,
		LogLevel:         DefaultLogLevel,
		LogFormat:        DefaultLogFormat,
		MetricsNamespace: DefaultMetricsNamespace,
		StrictKeys:       true,
	}
}

// Load builds the configuration for dir: defaults, then storekit.json if
// present, then environment overrides.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFileName)

	cfg := New()
	if Exists(dir) {
		var err error
		if cfg, err = LoadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads configuration from the specified file path. Environment
// overrides are not applied.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("S010").
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				Wrap(err)
		}
		return nil, errors.New("S010").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("S010").
			WithDetail("Failed to parse " + path + ": " + err.Error()).
			Wrap(err)
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// ApplyEnv overrides fields from STOREKIT_* environment variables. Unset
// variables leave fields unchanged.
func (c *Config) ApplyEnv() error {
	if err := env.Parse(c); err != nil {
		return errors.New("S012").WithDetail("parse env: " + err.Error()).Wrap(err)
	}
	c.applyDefaults()
	return nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("S010").Wrap(err)
	}

	// Add newline at end of file
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("S010").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	if c.MetricsNamespace == "" {
		c.MetricsNamespace = DefaultMetricsNamespace
	}
}

// EffectiveLogLevel returns the log level after applying Debug.
func (c *Config) EffectiveLogLevel() string {
	if c.Debug {
		return "debug"
	}
	return c.LogLevel
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("S011").
			WithDetail("addr must not be empty")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return errors.New("S011").
			WithDetail("logLevel must be one of debug, info, warn, error").
			Wrap(err)
	}
	if !logging.ValidFormat(c.LogFormat) {
		return errors.New("S011").
			WithDetail("logFormat must be text or json, got " + c.LogFormat)
	}
	return nil
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	path := filepath.Join(dir, ConfigFileName)
	_, err := os.Stat(path)
	return err == nil
}
