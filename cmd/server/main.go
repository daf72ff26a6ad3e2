// Command server is the entry point for the thrift marketplace backend.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"thrift/internal/cache"
	"thrift/internal/config"
	"thrift/internal/database"
	"thrift/internal/middleware"
	"thrift/internal/observability"
	"thrift/internal/seed"
	"thrift/internal/server"
)

// @title Thrift Marketplace API
// @version 1.0
// @description Campus marketplace: listings, recommendations, wishlists and chat.

// @host localhost:8375
// @BasePath /api
// @schemes http https

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	middleware.Logger = middleware.NewLogger(cfg.Env)
	observability.SetLogger(middleware.Logger)
	logger := middleware.Logger

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "thrift-api",
		ServiceVersion: "1.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSamplerRatio,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	ctx := context.Background()
	if created, err := database.EnsureDatabase(ctx, cfg); err != nil {
		logger.Warn("could not ensure database exists", slog.String("error", err.Error()))
	} else if created {
		logger.Info("created database", slog.String("name", cfg.DBName))
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if cfg.SeedDemoData {
		ds, err := seed.Demo()
		if err != nil {
			log.Fatalf("Failed to load demo data: %v", err)
		}
		seeded, err := seed.Apply(ctx, db, ds)
		if err != nil {
			log.Fatalf("Failed to seed demo data: %v", err)
		}
		if seeded {
			logger.Info("seeded demo data",
				slog.Int("users", len(ds.Users)),
				slog.Int("items", len(ds.Items)),
			)
		}
	}

	srv, err := server.NewServerWithDeps(cfg, db, cache.InitRedis(cfg.RedisURL))
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", slog.String("error", err.Error()))
		}
		if err := shutdownTracing(ctx); err != nil {
			logger.Error("Tracing shutdown error", slog.String("error", err.Error()))
		}
	}()

	if err := srv.Start(); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
