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

	"github.com/redis/go-redis/v9"

	"github.com/brunorcoelho/storefront/internal/catalog"
	"github.com/brunorcoelho/storefront/internal/checkout"
	"github.com/brunorcoelho/storefront/internal/client"
	"github.com/brunorcoelho/storefront/internal/config"
	"github.com/brunorcoelho/storefront/internal/events"
	"github.com/brunorcoelho/storefront/internal/health"
	h "github.com/brunorcoelho/storefront/internal/http"
	"github.com/brunorcoelho/storefront/internal/logger"
	"github.com/brunorcoelho/storefront/internal/session"
)

func main() {
	cfg := config.Load()

	log := logger.New(cfg.LogLevel, os.Stdout)
	slog.SetDefault(log)

	shutdownTracing, err := logger.SetupTracing(cfg.OTelStdout, os.Stderr)
	if err != nil {
		log.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}

	opts := client.Options{
		Timeout:         cfg.RequestTimeout,
		BreakerFailures: cfg.BreakerFailures,
		Logger:          log,
	}
	orderClient := client.NewOrderClient(cfg.OrderServiceURL, opts)
	inventoryClient := client.NewInventoryClient(cfg.InventoryServiceURL, opts)

	var (
		source         catalog.Source
		inventoryProbe health.Probe = inventoryClient
	)
	if cfg.CatalogSource == config.CatalogSourceStatic {
		source = catalog.NewStaticSource(catalog.DemoProducts())
		inventoryProbe = health.AlwaysUp{}
		log.Info("using static catalog")
	} else {
		source = catalog.NewHTTPSource(inventoryClient)
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" && cfg.CatalogSource == config.CatalogSourceLive {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		ctx, cancel := context.WithTimeout(context.Background(), cfg.HealthTimeout)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			// the cache falls back to the source on every error
			log.Warn("redis ping failed, catalog cache degraded", "addr", cfg.RedisAddr, "error", err)
		} else {
			log.Info("redis ping succeeded", "addr", cfg.RedisAddr)
		}
		cancel()
		source = catalog.NewCachedSource(source, catalog.NewRedisCache(redisClient, cfg.CatalogCacheTTL), log)
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaTopic, cfg.KafkaBrokers...)
		log.Info("publishing order events", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	}

	orch := checkout.New(checkout.Config{
		Health:    health.NewMonitor(orderClient, inventoryProbe, cfg.HealthTimeout, log),
		Catalog:   source,
		Orders:    orderClient,
		Publisher: publisher,
		Logger:    log,
	})
	registry := session.NewRegistry(orch, cfg.SessionTTL, log)

	handler := h.NewSessionHandler(registry, cfg.RequestTimeout, cfg.SubmitTimeout, log)
	router := h.NewRouter(handler, log, cfg.MaxRequestBodySize)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.SubmitTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("storefront starting",
			"port", cfg.HTTPPort,
			"order_service", cfg.OrderServiceURL,
			"inventory_service", cfg.InventoryServiceURL,
			"catalog_source", cfg.CatalogSource)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	orch.Wait()
	if err := registry.Close(); err != nil {
		log.Error("failed to close session registry", "error", err)
	}
	if err := publisher.Close(); err != nil {
		log.Error("failed to close publisher", "error", err)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if err := shutdownTracing(ctx); err != nil {
		log.Error("failed to flush traces", "error", err)
	}

	log.Info("server exited")
}
