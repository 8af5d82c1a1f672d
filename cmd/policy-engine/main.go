// Command policy-engine serves per-request, client-tailored update graphs
// by fetching the builder's cached graph and running it through a
// request-scoped plugin pipeline parameterized by the query string.
package main

import (
	_ "embed"

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

	"github.com/cincinnati-graph/cincinnati/internal/config"
	"github.com/cincinnati-graph/cincinnati/internal/logging"
	"github.com/cincinnati-graph/cincinnati/internal/metrics"
	"github.com/cincinnati-graph/cincinnati/internal/plugins"
	"github.com/cincinnati-graph/cincinnati/internal/policyengine"
	"github.com/cincinnati-graph/cincinnati/internal/tracing"
)

// buildVersion is set at link time via -ldflags -X.
var buildVersion = "dev"

//go:embed openapi.json
var openAPIDocument []byte

func main() {
	configPath := flag.String("config", "", "path to a YAML configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadPolicyEngineConfig(configPath)
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

	mandatory := config.ParseParamSet(cfg.MandatoryParams)
	server := policyengine.New(stages, mandatory, cfg.ContentType, tracer, reg, log)

	router := mux.NewRouter()
	prefix := cfg.PathPrefix
	router.HandleFunc(prefix+"/v1/graph", server.ServeGraph).Methods(http.MethodGet)
	router.HandleFunc(prefix+"/v1/openapi", openAPIHandler).Methods(http.MethodGet)
	router.HandleFunc("/healthz", okHandler).Methods(http.MethodGet)
	router.HandleFunc("/readyz", okHandler).Methods(http.MethodGet)

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(reg.Gatherer(), promhttp.HandlerOpts{})).Methods(http.MethodGet)

	mainServer := &http.Server{Addr: cfg.Server.Address, Handler: router}
	metricsServer := &http.Server{Addr: cfg.Server.MetricsAddress, Handler: metricsRouter}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error { return serveUntilDone(groupCtx, mainServer) })
	group.Go(func() error { return serveUntilDone(groupCtx, metricsServer) })

	if err := group.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

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

func openAPIHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(openAPIDocument)
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
