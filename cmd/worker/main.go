package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/api"
	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/config"
	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/logging"
)

// @title Zone Lighting Worker API
// @version 1.0.0
// @description Person tracking worker that maps occupancy of polygon zones to KNX lights and drives a PTZ camera
// @BasePath /
func main() {
	// Load configuration
	cfg := config.Load()

	// Console logging, plus the Logdy UI when enabled
	logging.Setup(cfg)

	log.Info().
		Str("worker_id", cfg.WorkerID).
		Str("version", cfg.Version).
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Str("video_source", cfg.VideoSource).
		Str("detector", cfg.DetectorBackend).
		Str("zone_store", cfg.ZoneStore).
		Dur("debounce_window", cfg.DebounceWindow).
		Bool("ptz_enabled", cfg.PTZEnabled).
		Msg("Starting zone lighting worker")

	// Create services and server; a failed camera or broker link is fatal here
	server, err := api.NewServer(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutdown signal received")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	} else {
		log.Info().Msg("Server shutdown complete")
	}
}
