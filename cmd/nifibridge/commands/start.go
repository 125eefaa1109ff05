package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nifiops/nifibridge/internal/logger"
	"github.com/nifiops/nifibridge/internal/telemetry"
	"github.com/nifiops/nifibridge/pkg/api"
	"github.com/nifiops/nifibridge/pkg/config"
	"github.com/nifiops/nifibridge/pkg/llm"
	"github.com/nifiops/nifibridge/pkg/metrics"
	"github.com/nifiops/nifibridge/pkg/tools"
	"github.com/nifiops/nifibridge/pkg/workflow"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the bridge server",
	Long: `Start the bridge server with the specified configuration.

Examples:
  # Start with the default config location
  nifibridge start

  # Start with a custom config file
  nifibridge start --config /etc/nifibridge/config.yaml

  # Override config via environment
  NIFIBRIDGE_LOGGING_LEVEL=DEBUG nifibridge start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "nifibridge",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(context.Background()); err != nil {
			logger.Error("telemetry shutdown error", logger.KeyError, err.Error())
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "nifibridge",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", logger.KeyError, err.Error())
		}
	}()

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		logger.Info("Metrics enabled", "endpoint", "/metrics")
	} else {
		logger.Info("Metrics collection disabled")
	}

	dispatchMetrics := metrics.NewDispatchMetrics()

	advisor := buildAdvisor(cfg)
	registry := tools.Catalog(tools.Deps{
		Advisor:        advisor,
		OnExpertDenied: dispatchMetrics.RecordExpertHelpDenial,
	})
	workflows := workflow.Builtin()

	logger.Info("Configuration loaded",
		"nifi_servers", len(cfg.NiFiServers),
		"tools", len(registry.Names()),
		"workflows", len(workflows.List()))
	for _, s := range cfg.NiFiServers {
		logger.Info("NiFi server configured", logger.KeyServer, s.ID, "name", s.Name, "url", s.URL)
	}

	server := api.NewServer(api.Deps{
		Config:      cfg,
		Tools:       registry,
		Workflows:   workflows,
		Metrics:     dispatchMetrics,
		NiFiMetrics: metrics.NewNiFiMetrics(),
	})

	logger.Info("Server is running. Press Ctrl+C to stop.")
	if err := server.Start(ctx); err != nil {
		return err
	}
	return nil
}

// buildAdvisor creates the expert-help backend, or nil when disabled or
// misconfigured. A broken advisor must not keep the server from starting.
func buildAdvisor(cfg *config.Config) llm.Advisor {
	if !cfg.ExpertHelp.Enabled {
		logger.Info("Expert help disabled")
		return nil
	}
	advisor, err := llm.New(llm.Config{
		Provider: cfg.ExpertHelp.Provider,
		Model:    cfg.ExpertHelp.Model,
		APIKey:   cfg.ExpertHelp.APIKey,
	})
	if err != nil {
		logger.Warn("Expert help unavailable", logger.KeyError, err.Error())
		return nil
	}
	logger.Info("Expert help enabled",
		"provider", cfg.ExpertHelp.Provider, "model", cfg.ExpertHelp.Model)
	return advisor
}
