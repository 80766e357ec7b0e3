package main

import (
	"fmt"
	"os"

	"github.com/learnd-dev/learnd/internal/config"
	"github.com/learnd-dev/learnd/internal/logger"
	"github.com/learnd-dev/learnd/internal/seed"
	"github.com/learnd-dev/learnd/internal/server"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.GetLogger()

	// Create server
	srv, err := server.New(cfg, log, version)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	// Optionally seed the catalog from a fixture file
	if seedPath := os.Getenv("SEED_FILE"); seedPath != "" {
		fixture, err := seed.Load(seedPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", seedPath).Msg("Failed to load seed file")
		}
		if err := seed.Apply(srv.GetDB(), fixture, log); err != nil {
			log.Fatal().Err(err).Str("path", seedPath).Msg("Failed to apply seed file")
		}
	}

	log.Info().Str("version", version).Msg("Starting Learnd server...")

	// Start HTTP server (this blocks)
	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("Server failed to start")
	}
}
