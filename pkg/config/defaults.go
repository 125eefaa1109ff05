package config

import "time"

// Default values applied when the configuration omits a field.
const (
	DefaultLogLevel  = "INFO"
	DefaultLogFormat = "text"
	DefaultLogOutput = "stdout"

	DefaultServerPort     = 8089
	DefaultReadTimeout    = 30 * time.Second
	DefaultWriteTimeout   = 60 * time.Second
	DefaultIdleTimeout    = 120 * time.Second
	DefaultRequestTimeout = 120 * time.Second

	DefaultNiFiRequestTimeout = 30 * time.Second
	DefaultNiFiPollInterval   = 500 * time.Millisecond

	DefaultExpertHelpProvider = "openai"
	DefaultExpertHelpModel    = "gpt-4o"

	DefaultWorkflowMaxActions = 50
	DefaultWorkflowMaxRetries = 2

	DefaultShutdownTimeout = 30 * time.Second

	DefaultTelemetrySampleRate = 1.0
)

// ApplyDefaults fills zero-valued fields with their defaults.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyServerDefaults(&cfg.Server)
	for i := range cfg.NiFiServers {
		applyNiFiServerDefaults(&cfg.NiFiServers[i])
	}
	applyExpertHelpDefaults(&cfg.ExpertHelp)
	applyWorkflowDefaults(&cfg.Workflow)

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = DefaultLogLevel
	}
	if l.Format == "" {
		l.Format = DefaultLogFormat
	}
	if l.Output == "" {
		l.Output = DefaultLogOutput
	}
}

func applyTelemetryDefaults(t *TelemetryConfig) {
	if t.SampleRate == 0 {
		t.SampleRate = DefaultTelemetrySampleRate
	}
}

func applyServerDefaults(s *ServerConfig) {
	if s.Port == 0 {
		s.Port = DefaultServerPort
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = DefaultReadTimeout
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = DefaultWriteTimeout
	}
	if s.IdleTimeout == 0 {
		s.IdleTimeout = DefaultIdleTimeout
	}
	if s.RequestTimeout == 0 {
		s.RequestTimeout = DefaultRequestTimeout
	}
}

func applyNiFiServerDefaults(n *NiFiServerConfig) {
	if n.Name == "" {
		n.Name = n.ID
	}
	if n.RequestTimeout == 0 {
		n.RequestTimeout = DefaultNiFiRequestTimeout
	}
	if n.PollInterval == 0 {
		n.PollInterval = DefaultNiFiPollInterval
	}
}

func applyExpertHelpDefaults(e *ExpertHelpConfig) {
	if e.Provider == "" {
		e.Provider = DefaultExpertHelpProvider
	}
	if e.Model == "" {
		e.Model = DefaultExpertHelpModel
	}
}

func applyWorkflowDefaults(w *WorkflowConfig) {
	if w.MaxActions == 0 {
		w.MaxActions = DefaultWorkflowMaxActions
	}
	if w.MaxRetries == 0 {
		w.MaxRetries = DefaultWorkflowMaxRetries
	}
}

// GetDefaultConfig returns a configuration with a single local NiFi server
// entry. Used by `nifibridge config init` and when no config file exists.
func GetDefaultConfig() *Config {
	cfg := &Config{
		Metrics: MetricsConfig{Enabled: true},
		NiFiServers: []NiFiServerConfig{
			{
				ID:   "local",
				Name: "Local NiFi",
				URL:  "https://localhost:8443/nifi-api",
			},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}
