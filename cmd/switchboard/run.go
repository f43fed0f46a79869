package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"switchboard-hq/switchboard/pkg/apic"
	"switchboard-hq/switchboard/pkg/apic/parser"
	"switchboard-hq/switchboard/pkg/catalog"
	"switchboard-hq/switchboard/pkg/cli"
	"switchboard-hq/switchboard/pkg/config"
	"switchboard-hq/switchboard/pkg/engine"
	"switchboard-hq/switchboard/pkg/engine/invoke"
	"switchboard-hq/switchboard/pkg/engine/script"
	"switchboard-hq/switchboard/pkg/evidence"
	"switchboard-hq/switchboard/pkg/evidence/recorder"
	"switchboard-hq/switchboard/pkg/evidence/retention"
	"switchboard-hq/switchboard/pkg/proxy/handlers"
	"switchboard-hq/switchboard/pkg/server"
	"switchboard-hq/switchboard/pkg/telemetry/health"
	"switchboard-hq/switchboard/pkg/telemetry/metrics"
	"switchboard-hq/switchboard/pkg/telemetry/tracing"
)

var runFlags struct {
	definitions string
	listen      string
	watch       bool
	logLevel    string
	dryRun      bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the gateway",
	Long: `Start the gateway with the specified configuration.

Every definition under the definitions directory is loaded before the server
starts listening. A file that cannot be read or parsed stops startup and is
named in the error.

Examples:
  # Start with defaults (./definitions, :3000)
  switchboard run

  # Start with a config file and reload definitions on change
  switchboard run --config /etc/switchboard/switchboard.yaml --watch

  # Override the definitions directory and listen address
  switchboard run --definitions ./apis --listen 127.0.0.1:8080

  # Load and validate definitions without starting the server
  switchboard run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.definitions, "definitions", "d", "", "override definitions directory")
	runCmd.Flags().StringVarP(&runFlags.listen, "listen", "l", "", "override listen address")
	runCmd.Flags().BoolVarP(&runFlags.watch, "watch", "w", false, "reload definitions when files change")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "load definitions and exit without serving")
}

func runServer(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("config", err.Error())
	}
	cfg := config.GetConfig()
	applyRunOverrides(cfg)

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := cli.SetupSignalHandler(commandContext(cmd))
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer a.Close()

	if runFlags.dryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d definitions from %s\n", a.store.Current().Len(), cfg.Definitions.Dir)
		return nil
	}

	if err := a.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}
	return nil
}

func applyRunOverrides(cfg *config.Config) {
	if runFlags.definitions != "" {
		cfg.Definitions.Dir = runFlags.definitions
	}
	if runFlags.listen != "" {
		cfg.Server.ListenAddress = runFlags.listen
	}
	if runFlags.watch {
		cfg.Definitions.Watch = true
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
}

// app holds the wired gateway components of one run.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	store    *catalog.Store
	watcher  *catalog.Watcher
	metrics  *metrics.Collector
	tracing  *tracing.Provider
	evidence evidence.Storage
	recorder *recorder.Recorder
	pruner   *retention.Pruner
	server   *server.Server
}

// newApp builds every component and loads the definitions. Nothing listens
// until Start.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (a *app, err error) {
	a = &app{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.Close()
			a = nil
		}
	}()

	a.tracing, err = tracing.New(ctx, &cfg.Telemetry.Tracing, Version)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.metrics = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	loaderCfg := cfg.Definitions.ToLoader()
	p := parser.NewParser().WithMaxFileSize(loaderCfg.MaxFileSize)
	a.store = catalog.NewStore(catalog.NewLoader(loaderCfg, p, logger), cfg.Definitions.Dir, logger)
	a.store.AddObserver(a.metrics)
	if err := a.store.Load(ctx); err != nil {
		return nil, err
	}
	if err := checkDefinitions(a.store.Current(), cfg.Definitions.Strict, logger); err != nil {
		return nil, err
	}

	if cfg.Definitions.Watch {
		a.watcher, err = catalog.NewWatcher(a.store, cfg.Definitions.ToWatcher(), logger)
		if err != nil {
			return nil, err
		}
	}

	invoker, err := invoke.New(cfg.Backend.ToInvoker(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend invoker: %w", err)
	}
	scripts := script.New(logger)
	eng, err := engine.New(cfg.Engine.ToEngine(),
		engine.WithInvoker(invoker),
		engine.WithScriptRunner(scripts),
		engine.WithConditionEvaluator(scripts),
		engine.WithObserver(a.metrics),
		engine.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create execution engine: %w", err)
	}

	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
	checker.RegisterCheck("catalog", health.CatalogCheck(a.store))

	opts := handlers.GatewayOptions{
		ExposeErrors: cfg.Server.ExposeErrors,
		Logger:       logger,
	}
	if cfg.Evidence.Enabled {
		a.evidence, err = openEvidenceStorage(&cfg.Evidence, logger)
		if err != nil {
			return nil, err
		}
		checker.RegisterCheck("evidence", health.PingCheck(a.evidence))

		a.recorder = recorder.New(a.evidence, recorder.Config{
			AsyncBuffer:  cfg.Evidence.AsyncBuffer,
			WriteTimeout: cfg.Evidence.WriteTimeout,
			OnDrop: func(*evidence.Record) {
				a.metrics.RecordEvidenceDropped()
			},
		}, logger)
		opts.Evidence = a.recorder

		a.pruner = retention.NewPruner(a.evidence, retention.Config{
			RetentionDays: cfg.Evidence.Retention.Days,
			MaxRecords:    cfg.Evidence.Retention.MaxRecords,
			PruneSchedule: cfg.Evidence.Retention.PruneSchedule,
			ArchivePath:   cfg.Evidence.Retention.ArchivePath,
		}, logger)
	}

	a.server, err = server.New(cfg, server.Deps{
		Gateway: handlers.NewGateway(a.store, eng, opts),
		Health:  checker,
		Metrics: a.metrics,
		Tracing: a.tracing,
		Version: health.NewVersionInfo(Version, GitCommit, BuildDate),
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Start runs the background workers and serves until ctx is cancelled.
func (a *app) Start(ctx context.Context) error {
	if a.pruner != nil && a.cfg.Evidence.Retention.PruneSchedule != "" {
		if err := a.pruner.Start(ctx); err != nil {
			a.logger.Warn("evidence retention not scheduled", "error", err)
		} else if next := a.pruner.NextPruning(); next != nil {
			a.logger.Debug("evidence retention scheduled", "next_pruning", next)
		}
	}

	if a.watcher != nil {
		go func() {
			if err := a.watcher.Watch(ctx); err != nil {
				a.logger.Error("definition watcher stopped", "error", err)
			}
		}()
	}

	return a.server.Start(ctx)
}

// Close releases every component in reverse start order. It is safe on a
// partially built app.
func (a *app) Close() {
	if a.watcher != nil {
		_ = a.watcher.Stop()
	}
	if a.pruner != nil {
		a.pruner.Stop()
	}
	if a.recorder != nil {
		if err := a.recorder.Close(); err != nil {
			a.logger.Error("failed to flush evidence", "error", err)
		}
	}
	if a.evidence != nil {
		if err := a.evidence.Close(); err != nil {
			a.logger.Error("failed to close evidence store", "error", err)
		}
	}
	if a.tracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.tracing.Shutdown(ctx); err != nil {
			a.logger.Error("failed to flush traces", "error", err)
		}
	}
}

// checkDefinitions runs static validation on every loaded definition. Findings
// are logged; in strict mode any error fails startup.
func checkDefinitions(c *catalog.Catalog, strict bool, logger *slog.Logger) error {
	var failed []error
	for _, def := range c.Definitions() {
		report := apic.Validate(def)
		for _, w := range report.Warnings.Errors {
			logger.Warn("definition validation warning", "file", def.SourceFile, "message", w.Message, "path", w.Path)
		}
		if err := report.Err(); err != nil {
			logger.Error("definition validation failed", "file", def.SourceFile, "errors", report.Errors.Count())
			failed = append(failed, fmt.Errorf("%s: %w", def.SourceFile, err))
		}
	}
	if strict && len(failed) > 0 {
		return errors.Join(failed...)
	}
	return nil
}
