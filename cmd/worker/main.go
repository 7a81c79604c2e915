package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/geocoder89/musiccamp/internal/config"
	"github.com/geocoder89/musiccamp/internal/enrollment"
	"github.com/geocoder89/musiccamp/internal/observability"
	"github.com/geocoder89/musiccamp/internal/payments"
	"github.com/geocoder89/musiccamp/internal/store"
	"github.com/geocoder89/musiccamp/internal/worker"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	backend, err := store.Open(ctx, cfg, prom, log)
	if err != nil {
		log.Error("store open failed", "driver", cfg.StoreDriver, "err", err)
		os.Exit(1)
	}
	defer backend.Close()

	svc := enrollment.New(backend.Stores, payments.NewStripeProcessor(cfg.PaymentSecretKey), enrollment.Config{
		Currency: cfg.PaymentCurrency,
	}, log)

	host, _ := os.Hostname()
	workerID := host + "-" + strconv.Itoa(os.Getpid())

	w := worker.New(worker.Config{
		PollInterval: cfg.WorkerPollInterval,
		Batch:        cfg.WorkerBatch,
		WorkerID:     workerID,
	}, svc, prom, log)

	healthSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WorkerHealthPort),
		Handler:           w.HealthHandler(backend.Ping, reg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("worker health server starting", "port", cfg.WorkerHealthPort)
		if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("worker health server failed", "err", err)
		}
	}()

	if err := w.Run(ctx); err != nil {
		log.Error("worker stopped with error", "err", err)
	}

	shutdownCtx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()
	_ = healthSrv.Shutdown(shutdownCtx)

	log.Info("worker shutdown complete")
}
