package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/paperbox-app/paperbox/internal/bootstrap"
	"github.com/paperbox-app/paperbox/internal/config"
	"github.com/paperbox-app/paperbox/internal/core/domain"
	"github.com/paperbox-app/paperbox/internal/observability/logging"
	"github.com/paperbox-app/paperbox/internal/observability/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if cfg.IngestSync {
		log.Fatalf("worker requires INGEST_SYNC=false; synchronous mode runs ingestion inside the api process")
	}
	slog.SetDefault(logging.NewJSONLogger("worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		slog.Info("worker metrics listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server", "error", err)
		}
	}()

	handler := func(handlerCtx context.Context, task domain.IngestTask) error {
		workerMetrics.StartTask()
		workerMetrics.ObserveRedelivery("worker", task.Attempt)
		if !task.EnqueuedAt.IsZero() {
			workerMetrics.ObserveQueueLag("worker", time.Since(task.EnqueuedAt))
		}

		start := time.Now()
		err := app.DispatchUC.Dispatch(handlerCtx, task.DocumentID)
		workerMetrics.FinishTask("worker", time.Since(start), err)
		return err
	}

	slog.Info("worker consuming",
		"stream", cfg.NATSStream, "subject", cfg.NATSSubject,
		"concurrency", cfg.WorkerConcurrency, "catchup", cfg.QueueCatchUp)
	if err := app.Queue.ConsumeIngestTasks(ctx, cfg.WorkerConcurrency, handler); err != nil {
		log.Fatalf("worker consume error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
}
