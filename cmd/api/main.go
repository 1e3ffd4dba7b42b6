package main

import (
	"context"
	"log"
	"time"

	"parcel-ops/internal/core/cache"
	"parcel-ops/internal/core/config"
	"parcel-ops/internal/core/logger"
	"parcel-ops/internal/core/server"
	"parcel-ops/internal/jobs"

	deliveryadapter "parcel-ops/internal/features/deliveries/adapters"
	deliveryhandler "parcel-ops/internal/features/deliveries/handler"
	deliveryservice "parcel-ops/internal/features/deliveries/service"
	selectionadapter "parcel-ops/internal/features/selection/adapters"
	selectionhandler "parcel-ops/internal/features/selection/handler"
	selectionservice "parcel-ops/internal/features/selection/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// @title Parcel Ops API
// @version 1.0
// @description Delivery assignment reconciliation and lifecycle engine for multi-station parcel operations.
// @contact.name API Support
// @contact.email support@parcelops.local
// @license.name MIT
// @host localhost:8080
// @BasePath /
func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	l := logger.Get()
	l.Info("Application starting",
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
	)

	// Redis cache
	redisCache, err := cache.NewRedisAdapter(cfg.Redis.URL)
	if err != nil {
		l.Fatal("Failed to create Redis adapter", zap.Error(err))
	}
	defer redisCache.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisCache.Ping(pingCtx); err != nil {
		l.Fatal("Redis ping failed", zap.Error(err))
	}
	cancel()
	l.Info("Redis connection verified")

	// Station hub adapter and health check
	hubAdapter := deliveryadapter.NewStationHubAdapter(cfg.StationHub)
	healthCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := hubAdapter.HealthCheck(healthCtx); err != nil {
		l.Fatal("Station hub health check failed", zap.Error(err))
	}
	cancel()
	l.Info("Station hub connection verified")

	// Deliveries feature
	snapshotTTL := time.Duration(cfg.Snapshot.TTLSeconds) * time.Second
	snapshots := deliveryadapter.NewSnapshotCacheAdapter(redisCache, snapshotTTL)
	deliverySvc := deliveryservice.NewDeliveryService(hubAdapter, hubAdapter, snapshots)
	deliveryHdl := deliveryhandler.NewDeliveryHandler(deliverySvc)

	// Selection handoff feature
	selectionTTL := time.Duration(cfg.Snapshot.SelectionTTLSeconds) * time.Second
	selectionRepo := selectionadapter.NewRedisSelectionRepository(redisCache, selectionTTL)
	selectionSvc := selectionservice.NewSelectionService(selectionRepo)
	selectionHdl := selectionhandler.NewSelectionHandler(selectionSvc)

	// Snapshot warmer
	warmer := jobs.NewSnapshotWarmer(deliverySvc, cfg.Snapshot.WarmSchedule, cfg.Snapshot.WarmPageSize)
	if err := warmer.Start(); err != nil {
		l.Fatal("Failed to start snapshot warmer", zap.Error(err))
	}
	defer warmer.Stop()

	srv := server.New(cfg)

	// Register routes
	srv.App.Get("/deliveries", deliveryHdl.ListDeliveries)
	srv.App.Get("/deliveries/summary", deliveryHdl.Summary)
	srv.App.Post("/deliveries/:parcelId/complete", deliveryHdl.CompleteDelivery)
	srv.App.Post("/deliveries/:parcelId/fail", deliveryHdl.FailDelivery)
	srv.App.Post("/deliveries/:parcelId/contacted", deliveryHdl.MarkContacted)
	srv.App.Put("/deliveries/:parcelId/preference", deliveryHdl.SetPreference)

	srv.App.Put("/selections/:session", selectionHdl.Park)
	srv.App.Get("/selections/:session", selectionHdl.Peek)
	srv.App.Post("/selections/:session/consume", selectionHdl.Consume)

	srv.App.Get("/health", func(c *fiber.Ctx) error {
		if err := redisCache.Ping(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "redis unreachable"})
		}
		if err := hubAdapter.HealthCheck(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "station hub unreachable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	if err := srv.Run(); err != nil {
		l.Fatal("Server failed to start", zap.Error(err))
	}
}
