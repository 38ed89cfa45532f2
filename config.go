package denly

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the server configuration.
type Config struct {
	Hostname string         `json:"hostname" yaml:"hostname" mapstructure:"hostname"`
	Port     int            `json:"port" yaml:"port" mapstructure:"port"`
	Debug    bool           `json:"debug" yaml:"debug" mapstructure:"debug"`
	Storage  StorageConfig  `json:"storage" yaml:"storage" mapstructure:"storage"`
	Memory   MemoryConfig   `json:"memory" yaml:"memory" mapstructure:"memory"`
	Limits   LimitsConfig   `json:"limits" yaml:"limits" mapstructure:"limits"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging" mapstructure:"logging"`
	Compress CompressConfig `json:"compress" yaml:"compress" mapstructure:"compress"`
}

// StorageConfig holds on-disk locations.
type StorageConfig struct {
	Log      string `json:"log" yaml:"log" mapstructure:"log"`
	Template string `json:"template" yaml:"template" mapstructure:"template"`
}

// MemoryConfig configures the memory monitor.
type MemoryConfig struct {
	Interval int `json:"interval" yaml:"interval" mapstructure:"interval"` // milliseconds
}

// LimitsConfig configures admission and body limits.
type LimitsConfig struct {
	MaxInFlight  int64   `json:"maxInFlight" yaml:"maxInFlight" mapstructure:"maxInFlight"`
	QueueTimeout int     `json:"queueTimeout" yaml:"queueTimeout" mapstructure:"queueTimeout"` // milliseconds
	Rate         float64 `json:"rate" yaml:"rate" mapstructure:"rate"`
	Burst        int     `json:"burst" yaml:"burst" mapstructure:"burst"`
	BodyLimit    int64   `json:"bodyLimit" yaml:"bodyLimit" mapstructure:"bodyLimit"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Format string `json:"format" yaml:"format" mapstructure:"format"`
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Hostname: "0.0.0.0",
		Port:     808,
		Storage: StorageConfig{
			Log:      "runtime/log",
			Template: "template",
		},
		Memory: MemoryConfig{
			Interval: int(defaultMemoryInterval / time.Millisecond),
		},
		Limits: LimitsConfig{
			QueueTimeout: 5000,
			BodyLimit:    defaultBodyLimit,
		},
		Logging: LoggingConfig{
			Format: "console",
			Level:  "info",
		},
	}
}

// LoadConfig reads the configuration file at path (YAML, JSON, or TOML, by
// extension) over the defaults. Environment variables prefixed DENLY_
// override both, e.g. DENLY_PORT or DENLY_MEMORY_INTERVAL. An empty path
// loads defaults and environment only.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix("DENLY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("hostname", d.Hostname)
	v.SetDefault("port", d.Port)
	v.SetDefault("debug", d.Debug)
	v.SetDefault("storage.log", d.Storage.Log)
	v.SetDefault("storage.template", d.Storage.Template)
	v.SetDefault("memory.interval", d.Memory.Interval)
	v.SetDefault("limits.maxInFlight", d.Limits.MaxInFlight)
	v.SetDefault("limits.queueTimeout", d.Limits.QueueTimeout)
	v.SetDefault("limits.rate", d.Limits.Rate)
	v.SetDefault("limits.burst", d.Limits.Burst)
	v.SetDefault("limits.bodyLimit", d.Limits.BodyLimit)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("compress.level", d.Compress.Level)
	v.SetDefault("compress.minSize", d.Compress.MinSize)
}

// Addr returns the host:port the server binds to.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Hostname, strconv.Itoa(c.Port))
}

// MemoryInterval returns the memory monitor interval.
func (c *Config) MemoryInterval() time.Duration {
	return time.Duration(c.Memory.Interval) * time.Millisecond
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return &ConfigError{Field: "port", Message: "must be between 0 and 65535"}
	}
	if c.Memory.Interval < 0 {
		return &ConfigError{Field: "memory.interval", Message: "must not be negative"}
	}
	if c.Limits.MaxInFlight < 0 {
		return &ConfigError{Field: "limits.maxInFlight", Message: "must not be negative"}
	}
	if c.Limits.Rate < 0 {
		return &ConfigError{Field: "limits.rate", Message: "must not be negative"}
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "console", "json", "text":
	default:
		return &ConfigError{Field: "logging.format", Message: fmt.Sprintf("unknown format %q", c.Logging.Format)}
	}
	return nil
}

// RouterOptions maps the configuration onto router options.
func (c *Config) RouterOptions() []RouterOption {
	opts := []RouterOption{
		WithDebug(c.Debug),
		WithMemoryInterval(c.MemoryInterval()),
		WithBodyLimit(c.Limits.BodyLimit),
	}
	if c.Limits.MaxInFlight > 0 || c.Limits.Rate > 0 {
		opts = append(opts, WithAdmission(AdmissionConfig{
			MaxInFlight:  c.Limits.MaxInFlight,
			QueueTimeout: time.Duration(c.Limits.QueueTimeout) * time.Millisecond,
			Rate:         c.Limits.Rate,
			Burst:        c.Limits.Burst,
		}))
	}
	return opts
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
