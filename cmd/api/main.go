package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/musiccamp/internal/auth"
	"github.com/geocoder89/musiccamp/internal/cache"
	"github.com/geocoder89/musiccamp/internal/config"
	"github.com/geocoder89/musiccamp/internal/enrollment"
	httpx "github.com/geocoder89/musiccamp/internal/http"
	"github.com/geocoder89/musiccamp/internal/observability"
	"github.com/geocoder89/musiccamp/internal/payments"
	"github.com/geocoder89/musiccamp/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/cors"
)

const serviceName = "musiccamp-api"

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "env", cfg.Env, "err", err)
		os.Exit(1)
	}

	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	backend, err := store.Open(ctx, cfg, prom, log)
	if err != nil {
		log.Error("store open failed", "driver", cfg.StoreDriver, "err", err)
		os.Exit(1)
	}
	defer backend.Close()

	migrateCtx, cancel := config.WithTimeout(10 * time.Second)
	err = backend.Migrate(migrateCtx)
	cancel()
	if err != nil {
		log.Error("store migration failed", "err", err)
		os.Exit(1)
	}

	svc := enrollment.New(backend.Stores, payments.NewStripeProcessor(cfg.PaymentSecretKey), enrollment.Config{
		Currency:        cfg.PaymentCurrency,
		CleanupDeferred: prom.CleanupPending.Inc,
	}, log)

	if cfg.AdminEmail != "" {
		seedCtx, cancel := config.WithTimeout(5 * time.Second)
		admin, err := svc.EnsureAdmin(seedCtx, cfg.AdminEmail, cfg.AdminName)
		cancel()
		if err != nil {
			log.Error("admin seed failed", "err", err)
			os.Exit(1)
		}
		log.Info("admin ensured", "email", admin.Email)
	}

	var catalogCache cache.Store = cache.NewMemory(cfg.CacheTTL)
	if cfg.RedisAddr != "" {
		rc := cache.NewRedis(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.CacheTTL,
			Prefix:   "musiccamp:",
		})
		defer rc.Close()

		pingCtx, cancel := config.WithTimeout(2 * time.Second)
		err := rc.Ping(pingCtx)
		cancel()
		if err != nil {
			log.Warn("redis unavailable, using in-process cache", "addr", cfg.RedisAddr, "err", err)
		} else {
			catalogCache = rc
		}
	}

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.JWTTTL())

	router := httpx.NewRouter(log, httpx.Deps{
		Service:      svc,
		Verifier:     jwtManager,
		Issuer:       jwtManager,
		Cache:        catalogCache,
		Prom:         prom,
		Gatherer:     reg,
		Ping:         backend.Ping,
		Env:          cfg.Env,
		ServiceName:  serviceName,
		EnforceRoles: cfg.EnforceRoles,

		TrustedProxies: cfg.TrustedProxies,
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"ETag", "X-Request-Id"},
		MaxAge:         600,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           corsHandler.Handler(router),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "store", backend.Driver)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}

		if err := shutdownTracer(ctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
