// Command splitcored serves the expense ledger intent API.
package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"splitcore/internal/adapters/assistant"
	"splitcore/internal/adapters/statements"
	"splitcore/internal/blob"
	"splitcore/internal/config"
	"splitcore/internal/core"
	"splitcore/internal/infra/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Development)
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("daemon exited", "err", err.Error())
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *logging.ZapLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	metrics, err := core.NewPrometheusMetricsRecorder(cfg.MetricsNamespace, registry)
	if err != nil {
		return err
	}

	engine := core.NewDefaultRulesEngine()
	opts := []core.Option{core.WithLogger(logger), core.WithMetricsRecorder(metrics)}

	var svc *core.Service
	switch cfg.DBDriver {
	case "sqlite":
		svc, err = core.NewSQLiteService(cfg.DBPath, engine, opts...)
	case "postgres":
		svc, err = core.NewPostgresService(cfg.DBDSN, engine, opts...)
	default:
		svc = core.NewInMemoryService(engine, opts...)
	}
	if err != nil {
		return err
	}
	if closer, ok := svc.Store().(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}
	logger.Info("store ready", "driver", cfg.DBDriver)

	blobStore, err := blob.Open(ctx)
	if err != nil {
		return err
	}
	exporter := statements.NewWorker(svc, blobStore, nil)
	exporter.Start()

	mux := http.NewServeMux()
	mux.Handle("/api/", assistant.NewHandler(svc))
	mux.Handle("/api/statements/", statements.NewHandler(exporter))
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.ListenAddr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := exporter.Stop(shutdownCtx); err != nil {
		logger.Warn("exporter stop", "err", err.Error())
	}
	return server.Shutdown(shutdownCtx)
}
