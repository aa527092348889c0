package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/kirillkom/claims-triage/internal/adapters/http"
	"github.com/kirillkom/claims-triage/internal/bootstrap"
	"github.com/kirillkom/claims-triage/internal/config"
	"github.com/kirillkom/claims-triage/internal/observability/logging"
	"github.com/kirillkom/claims-triage/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("triage-api", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpMetrics := metrics.NewHTTPServerMetrics("triage-api")
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Logger: logger, Observer: httpMetrics})
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	router := httpadapter.NewRouter(cfg, httpadapter.Services{
		Processor:   app.ProcessUC,
		Intake:      app.IntakeUC,
		Submissions: app.Submissions,
		Claims:      app.ClaimSvc,
		Exporter:    app.ExportUC,
	}, httpMetrics).Handler()

	// Synchronous processing waits on the extraction call, so the write
	// timeout sits above the extraction ceiling.
	server := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      cfg.ExtractionTimeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("api_listening", "addr", server.Addr, "extraction_backend", cfg.ExtractionBackend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_failed", "error", err)
	}
}
