// Command graph-builder periodically scrapes upstream release metadata,
// runs it through a configurable plugin pipeline, and serves the resulting
// graph as cached JSON.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	_ "github.com/cincinnati-graph/cincinnati/internal/plugins/builtin"

	"github.com/cincinnati-graph/cincinnati/internal/builder"
	"github.com/cincinnati-graph/cincinnati/internal/config"
	"github.com/cincinnati-graph/cincinnati/internal/logging"
	"github.com/cincinnati-graph/cincinnati/internal/metrics"
	"github.com/cincinnati-graph/cincinnati/internal/plugins"
	"github.com/cincinnati-graph/cincinnati/internal/tracing"
)

// buildVersion is set at link time via -ldflags -X.
var buildVersion = "dev"

func main() {
	configPath := flag.String("config", "", "path to a YAML configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadBuilderConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	log := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	stages, err := plugins.Build(cfg.Pipeline)
	if err != nil {
		return fmt.Errorf("building pipeline: %w", err)
	}

	reg := metrics.New(buildVersion)
	tracer := tracing.NewTracer(nil, cfg.Tracing.ServiceName)

	app := builder.New(stages, cfg.PauseSeconds, tracer, reg, log)

	graphRouter := mux.NewRouter()
	graphRouter.HandleFunc("/v1/graph", graphHandler(app)).Methods(http.MethodGet)
	graphRouter.HandleFunc("/healthz", healthzHandler(app)).Methods(http.MethodGet)
	graphRouter.HandleFunc("/readyz", readyzHandler(app)).Methods(http.MethodGet)

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(reg.Gatherer(), promhttp.HandlerOpts{})).Methods(http.MethodGet)

	graphServer := &http.Server{Addr: cfg.Server.Address, Handler: graphRouter}
	metricsServer := &http.Server{Addr: cfg.Server.MetricsAddress, Handler: metricsRouter}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error { return app.Run(groupCtx) })
	group.Go(func() error { return serveUntilDone(groupCtx, graphServer) })
	group.Go(func() error { return serveUntilDone(groupCtx, metricsServer) })

	if err := group.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

// serveUntilDone starts server and shuts it down gracefully when ctx is
// cancelled, resolving the "metrics server and main server started
// concurrently, awaited together" design note.
func serveUntilDone(ctx context.Context, server *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func graphHandler(app *builder.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := app.Cache().Get()
		if data == nil {
			http.Error(w, "graph not yet available", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
	}
}

func healthzHandler(app *builder.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !app.Health().Live() {
			http.Error(w, "not live", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func readyzHandler(app *builder.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !app.Health().Ready() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
