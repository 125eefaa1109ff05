// Package config loads and validates the bridge configuration.
//
// Configuration sources, in order of precedence:
//  1. Environment variables (NIFIBRIDGE_*)
//  2. Configuration file (YAML)
//  3. Default values
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

// Config is the full bridge configuration.
type Config struct {
	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing.
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// Server configures the HTTP front-end.
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// NiFiServers lists the NiFi instances the bridge can talk to. Callers
	// select one per request via the X-Nifi-Server-Id header; the first
	// entry is the default.
	NiFiServers []NiFiServerConfig `mapstructure:"nifi_servers" validate:"required,min=1,dive" yaml:"nifi_servers"`

	// ExpertHelp configures the LLM backend of the get_expert_help tool.
	ExpertHelp ExpertHelpConfig `mapstructure:"expert_help" yaml:"expert_help"`

	// Workflow tunes the workflow executor limits.
	Workflow WorkflowConfig `mapstructure:"workflow" yaml:"workflow"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level: DEBUG, INFO, WARN or ERROR.
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format is text or json.
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output is stdout, stderr or a file path.
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing. When enabled,
// spans are exported to an OTLP collector.
type TelemetryConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	Insecure bool   `mapstructure:"insecure" yaml:"insecure"`
	// SampleRate is the trace sampling rate between 0 and 1.
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	// Profiling configures optional Pyroscope continuous profiling.
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	// ProfileTypes selects the profiles to collect; empty means cpu plus
	// in-use memory.
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types,omitempty"`
}

// ServerConfig configures the HTTP front-end.
type ServerConfig struct {
	// Port is the listen port.
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`

	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`

	// RequestTimeout bounds one tool or workflow invocation end to end.
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
}

// MetricsConfig configures the Prometheus metrics endpoint. When Enabled is
// false no metrics are collected.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// NiFiServerConfig describes one reachable NiFi instance.
type NiFiServerConfig struct {
	// ID is the stable identifier callers send in X-Nifi-Server-Id.
	ID string `mapstructure:"id" validate:"required" yaml:"id"`

	// Name is a human-readable label for listings.
	Name string `mapstructure:"name" yaml:"name"`

	// URL is the base URL of the NiFi REST API, including /nifi-api.
	URL string `mapstructure:"url" validate:"required,url" yaml:"url"`

	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`

	// TLSSkipVerify disables certificate verification, for NiFi instances
	// with self-signed certificates.
	TLSSkipVerify bool `mapstructure:"tls_skip_verify" yaml:"tls_skip_verify"`

	// RequestTimeout bounds one NiFi API call.
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`

	// PollInterval is the delay between async sub-resource status checks.
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
}

// ExpertHelpConfig configures the LLM backend of get_expert_help. The tool
// stays registered but unconfigured when Enabled is false or the key is
// empty.
type ExpertHelpConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Provider string `mapstructure:"provider" validate:"omitempty,oneof=openai" yaml:"provider"`
	Model    string `mapstructure:"model" yaml:"model"`
	// APIKey can also come from NIFIBRIDGE_EXPERT_HELP_API_KEY.
	APIKey string `mapstructure:"api_key" yaml:"api_key,omitempty"`
}

// WorkflowConfig tunes the workflow executor.
type WorkflowConfig struct {
	// MaxActions caps tool dispatches per workflow run.
	MaxActions int `mapstructure:"max_actions" validate:"omitempty,min=1" yaml:"max_actions"`
	// MaxRetries caps consecutive retries of one node.
	MaxRetries int `mapstructure:"max_retries" validate:"omitempty,min=0" yaml:"max_retries"`
}

// Load loads configuration from file, environment, and defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}
	if !configFileFound {
		cfg := GetDefaultConfig()
		if err := Validate(cfg); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
		return cfg, nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// MustLoad loads configuration with user-friendly errors when the file is
// missing.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  nifibridge config init\n\n"+
				"Or specify a custom config file:\n"+
				"  nifibridge <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s\n\n"+
			"Please create the configuration file:\n"+
			"  nifibridge config init --config %s",
			configPath, configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes the configuration to path in YAML.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// 0600 because the file may carry NiFi passwords and the LLM key.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// NiFiServer returns the server entry with the given id, or the first
// entry when id is empty.
func (c *Config) NiFiServer(id string) (*NiFiServerConfig, bool) {
	if id == "" {
		if len(c.NiFiServers) == 0 {
			return nil, false
		}
		return &c.NiFiServers[0], true
	}
	for i := range c.NiFiServers {
		if c.NiFiServers[i].ID == id {
			return &c.NiFiServers[i], true
		}
	}
	return nil, false
}

func setupViper(v *viper.Viper, configPath string) {
	// NIFIBRIDGE_LOGGING_LEVEL=DEBUG, NIFIBRIDGE_EXPERT_HELP_API_KEY=...
	v.SetEnvPrefix("NIFIBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

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

// durationDecodeHook converts "30s"-style strings to time.Duration.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
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

// getConfigDir returns the configuration directory, honoring
// XDG_CONFIG_HOME.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "nifibridge")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "nifibridge")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks for a config file at the default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}
