package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"mercator-hq/harvest/pkg/cli"
	"mercator-hq/harvest/pkg/config"
	"mercator-hq/harvest/pkg/submission"
	"mercator-hq/harvest/pkg/submission/ingest"
	"mercator-hq/harvest/pkg/submission/schedule"
	"mercator-hq/harvest/pkg/telemetry/health"
	"mercator-hq/harvest/pkg/telemetry/metrics"
)

const (
	shutdownTimeout   = 30 * time.Second
	readHeaderTimeout = 10 * time.Second
)

var serveFlags struct {
	listenAddress string
	noWatch       bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run scheduled exports and the HTTP endpoints",
	Long: `Run the export scheduler and an HTTP server until interrupted.

Endpoints:
  /metrics   Prometheus metrics (telemetry.metrics.path)
  /health    liveness
  /ready     storage and scheduler readiness
  /version   build information
  /ingest    POST JSON-lines submissions into the store

When started with --config, the file is watched and export settings (hub
URL, storage rules, formats) apply to the next scheduled run. Changes to
schedule.jobs or storage require a restart.

Examples:
  harvest serve --config harvest.yaml
  harvest serve --config harvest.yaml --listen 0.0.0.0:9090`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override telemetry.metrics.listen_address")
	serveCmd.Flags().BoolVar(&serveFlags.noWatch, "no-watch", false, "do not reload the config file on change")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := initialize()
	if err != nil {
		return err
	}

	addr := cfg.Telemetry.Metrics.ListenAddress
	if serveFlags.listenAddress != "" {
		addr = serveFlags.listenAddress
	}

	store, err := openStore(&cfg.Storage)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	defer store.Close()

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	runner := schedule.NewRunner(store, newRegistry(cfg, collector), cfg.Export.OutputDir)
	jobs := scheduleJobs(&cfg.Schedule)
	scheduler := schedule.NewScheduler(runner, jobs)
	scheduler.SetRecorder(collector)

	checker := health.New(5 * time.Second)
	checker.RegisterCheck("storage", func(ctx context.Context) error {
		_, err := store.Count(ctx, &submission.Query{Limit: 1})
		return err
	})
	if len(jobs) > 0 {
		checker.RegisterCheck("scheduler", func(context.Context) error {
			if !scheduler.IsRunning() {
				return errors.New("scheduler not running")
			}
			return nil
		})
	}

	mux := http.NewServeMux()
	health.Register(mux, checker, Version, GitCommit, BuildDate)
	mux.Handle("/ingest", ingest.Handler(ingest.NewLoader(store, 0), collector))
	if cfg.Telemetry.Metrics.Enabled {
		mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting HTTP server", "address", addr, "metrics", cfg.Telemetry.Metrics.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		if err := scheduler.Start(ctx); err != nil {
			return err
		}
		for _, job := range jobs {
			if next := scheduler.NextRun(job.Name); next != nil {
				slog.Debug("export job scheduled", "job", job.Name, "next_run", next)
			}
		}
		<-ctx.Done()
		scheduler.Stop()
		return nil
	})

	if path := config.Path(); path != "" && !serveFlags.noWatch {
		watcher, err := config.NewWatcher(path, 0)
		if err != nil {
			stop()
			_ = g.Wait()
			return cli.NewCommandError("serve", err)
		}
		watcher.OnChange(func(next *config.Config) {
			runner.UpdateRegistry(newRegistry(next, collector))
			slog.Info("export settings reloaded",
				"rewriter_enabled", newRewriter(&next.Export).Enabled(),
			)
		})
		g.Go(func() error {
			return watcher.Watch(ctx)
		})
	}

	if err := g.Wait(); err != nil {
		return cli.NewCommandError("serve", err)
	}
	slog.Info("harvest stopped")
	return nil
}
