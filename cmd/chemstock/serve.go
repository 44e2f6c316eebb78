package main

import (
	"context"
	"encoding/json"
	"expvar"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"chemstock/internal/adapters/inventory"
	"chemstock/internal/blob"
	"chemstock/internal/core"
	"chemstock/internal/ledger"
)

// EnvHTTPAddr overrides the default listen address when --addr is not given.
const EnvHTTPAddr = "CHEMSTOCK_HTTP_ADDR"

func newServeCommand(app *application) *cobra.Command {
	var (
		addr            string
		shutdownTimeout time.Duration
		artifactExpiry  time.Duration
		trace           bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the conversion API with asynchronous exports",
		Long: "serve exposes the converter over HTTP: synchronous conversion on\n" +
			"POST /api/v1/inventory/convert, asynchronous exports under\n" +
			"/api/v1/inventory/exports, Prometheus metrics on /metrics and expvar\n" +
			"counters on /debug/vars. Artifact storage and the run ledger are\n" +
			"selected through CHEMSTOCK_BLOB_* and CHEMSTOCK_LEDGER_* variables.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = os.Getenv(EnvHTTPAddr)
			}
			if addr == "" {
				addr = ":8080"
			}
			return runServer(cmd.Context(), app.logger, serverConfig{
				addr:            addr,
				shutdownTimeout: shutdownTimeout,
				artifactExpiry:  artifactExpiry,
				trace:           trace,
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to CHEMSTOCK_HTTP_ADDR or :8080)")
	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 10*time.Second, "grace period for in-flight requests and queued exports")
	cmd.Flags().DurationVar(&artifactExpiry, "artifact-expiry", 15*time.Minute, "lifetime of presigned artifact download URLs")
	cmd.Flags().BoolVar(&trace, "trace", false, "write conversion trace spans to stderr as JSON lines")
	return cmd
}

type serverConfig struct {
	addr            string
	shutdownTimeout time.Duration
	artifactExpiry  time.Duration
	trace           bool
}

func runServer(ctx context.Context, logger *slog.Logger, cfg serverConfig) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := core.NewPrometheusMetricsRecorder()
	// The empty name avoids expvar's duplicate-publish panic when the server
	// is started more than once in one process.
	counters := core.NewExpvarMetricsRecorder("")
	opts := []core.Option{
		core.WithLogger(logger),
		core.WithMetricsRecorder(teeRecorder{metrics, counters}),
	}
	if cfg.trace {
		opts = append(opts, core.WithTracer(core.NewJSONTracer(os.Stderr)))
	}
	svc := core.NewService(opts...)

	store, err := blob.Open(ctx)
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}
	runs, err := ledger.Open(ctx)
	if err != nil {
		return fmt.Errorf("open run ledger: %w", err)
	}

	artifacts := inventory.NewBlobObjectStore(store, cfg.artifactExpiry)
	worker := inventory.NewWorker(svc, artifacts,
		inventory.WithLedger(runs),
		inventory.WithLogger(logger),
	)
	worker.Start()

	handler := inventory.NewHandler(svc)
	handler.Exports = worker
	handler.Artifacts = artifacts

	mux := http.NewServeMux()
	mux.Handle("/api/v1/inventory/", handler)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
	mux.Handle("/debug/vars", expvar.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":      "ok",
			"blob_driver": string(store.Driver()),
		})
	})

	server := &http.Server{
		Addr:              cfg.addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.addr, "blob_driver", string(store.Driver()))
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.shutdownTimeout)
		defer cancel()
		_ = worker.Stop(stopCtx)
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down", "grace", cfg.shutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	if err := worker.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("stop export worker: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}

// teeRecorder fans one observation out to the Prometheus and expvar
// exporters so both /metrics and /debug/vars stay current.
type teeRecorder struct {
	a, b core.MetricsRecorder
}

func (t teeRecorder) Observe(ctx context.Context, operation string, success bool, duration time.Duration) {
	t.a.Observe(ctx, operation, success, duration)
	t.b.Observe(ctx, operation, success, duration)
}
