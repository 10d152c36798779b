package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/b00lduck/elementary/internal/config"
	"github.com/b00lduck/elementary/internal/observability"
	"github.com/b00lduck/elementary/internal/transport"
	"github.com/b00lduck/elementary/pkg/signalgraph/engine"
	"github.com/b00lduck/elementary/pkg/version"
)

// NewServeCommand creates the `serve` command: it loads configuration,
// bootstraps observability, wires an Engine to the WebSocket transport,
// and runs until interrupted.
func NewServeCommand() *cobra.Command {
	var (
		configPath      string
		diagnosticsAddr string
		debug           bool
		sessionLogPath  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the WebSocket control-thread server",
		Long: `Serve accepts WebSocket connections, validates and reconciles
submitted signal-graph directives against a single in-process Engine, and
relays runtime events back to the originating connection.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			return runServe(cobraCmd, configPath, diagnosticsAddr, sessionLogPath, debug)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file (default: .elementary.yaml in CWD or $HOME)")
	cmd.Flags().StringVar(&diagnosticsAddr, "diagnostics-addr", ":9091", "Address for /healthz, /readyz, /metrics")
	cmd.Flags().StringVar(&sessionLogPath, "session-log", "", "Path to append a JSONL session log (disabled if empty)")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging and 100% trace sampling")

	return cmd
}

func runServe(cobraCmd *cobra.Command, configPath, diagnosticsAddr, sessionLogPath string, debug bool) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	obsCfg, providers, err := initServeObservability(cfg, debug)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	ctx, stop := signal.NotifyContext(cobraCmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(obsCfg.ShutdownTimeoutSec)*time.Second)
		defer cancel()

		if shutdownErr := providers.Shutdown(shutdownCtx); shutdownErr != nil {
			providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
		}
	}()

	red, err := observability.NewREDMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("create metrics: %w", err)
	}

	diag, err := observability.NewDiagnosticsServer(diagnosticsAddr)
	if err != nil {
		return fmt.Errorf("start diagnostics server: %w", err)
	}
	defer diag.Close()

	providers.Logger.Info("diagnostics listening", "addr", diag.Addr())

	engineMetrics, err := engine.NewMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("create engine metrics: %w", err)
	}

	eng := engine.New(engine.Deps{
		Runtime: engine.NewLoggingRuntime(providers.Logger),
		Logger:  providers.Logger,
		Metrics: engineMetrics,
		Tracer:  providers.Tracer,
	})
	eng.SetVerifyInstructions(cfg.Engine.VerifyInstructions)

	var sessionLog *transport.SessionLog

	if sessionLogPath != "" {
		sessionLog, err = transport.OpenSessionLog(sessionLogPath)
		if err != nil {
			return fmt.Errorf("open session log: %w", err)
		}
		defer sessionLog.Close()
	}

	transportCfg := transport.Config{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		EventPollInterval: time.Duration(float64(time.Second) / cfg.Engine.EventPollHz),
	}

	srv := transport.NewServer(transportCfg, eng, providers.Logger, providers.Tracer, red, sessionLog)

	if err := srv.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	return nil
}

func initServeObservability(cfg *config.Config, debug bool) (observability.Config, observability.Providers, error) {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Mode = observability.ModeServe
	obsCfg.OTLPEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
	obsCfg.OTLPInsecure = os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true"
	obsCfg.LogJSON = cfg.Logging.Format == "json"

	if debug {
		obsCfg.LogLevel = slog.LevelDebug
		obsCfg.DebugTrace = true
	}

	providers, err := observability.Init(obsCfg)

	return obsCfg, providers, err
}
