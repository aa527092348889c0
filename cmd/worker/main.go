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

	"github.com/kirillkom/claims-triage/internal/bootstrap"
	"github.com/kirillkom/claims-triage/internal/config"
	"github.com/kirillkom/claims-triage/internal/observability/logging"
	"github.com/kirillkom/claims-triage/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("triage-worker", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics("triage-worker")
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Logger: logger, Observer: workerMetrics})
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", workerMetrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		if !app.Queue.Healthy() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSSubject, "extraction_backend", cfg.ExtractionBackend)
	err = app.Queue.SubscribeSubmissions(ctx, func(handlerCtx context.Context, submissionID string) error {
		if submission, err := app.Submissions.GetByID(handlerCtx, submissionID); err == nil {
			workerMetrics.ObserveQueueLag(time.Since(submission.CreatedAt))
		}

		start := time.Now()
		workerMetrics.StartSubmission()
		err := app.SubmitUC.ProcessByID(handlerCtx, submissionID)
		workerMetrics.FinishSubmission(time.Since(start), err)
		return err
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}
