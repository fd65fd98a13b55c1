// main is the entry point of the Craftstat application.
// It initializes the configuration, logger, and status cache, then either
// runs a one-shot probe or starts the HTTP server.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/craftstat/craftstat/internal/cache"
	"github.com/craftstat/craftstat/internal/config"
	"github.com/craftstat/craftstat/internal/fake"
	"github.com/craftstat/craftstat/internal/logger"
	"github.com/craftstat/craftstat/internal/maintenance"
	"github.com/craftstat/craftstat/internal/metrics"
	"github.com/craftstat/craftstat/internal/probe"
	"github.com/craftstat/craftstat/internal/protocol"
	"github.com/craftstat/craftstat/internal/server"
	"github.com/craftstat/craftstat/internal/status"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Parse()

	logger.Setup(cfg.Logger)

	// Database
	store, err := cache.OpenSQLite(cfg.Storage.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database")
		}
	}()

	// data generation or database maintenance
	if cfg.Storage.GenerateCount > 0 {
		fake.GenerateData(store, cfg.Storage.GenerateCount)
		return
	} else if maintenance.Run(cfg, store) {
		return
	}

	pref, err := protocol.ParsePreference(cfg.Probe.Protocol)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid protocol preference")
	}

	// One-shot probe
	if cfg.Probe.Address != "" {
		probes := probe.New(cache.New(store), probe.WithTimeout(cfg.Probe.Timeout))

		result := probes.GetStatus(context.Background(), cfg.Probe.Address, pref, cfg.Probe.AlwaysIdenticon)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status.Render(result)); err != nil {
			log.Fatal().Err(err).Msg("Failed to encode status")
		}
		return
	}

	log.Info().Msg("Starting craftstat service...")

	collector := metrics.NewCollector("craftstat")
	probes := probe.New(cache.New(store),
		probe.WithTimeout(cfg.Probe.Timeout),
		probe.WithMetrics(collector),
	)

	srvHandler := server.New(probes, collector, cfg)

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      srvHandler.Run(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.Probe.Timeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("address", cfg.Server.Address).Msg("Server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
