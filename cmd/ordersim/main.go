package main

import (
	"context"
	"log"
	"os"

	"github.com/seantiz/ordersim/internal/api"
	"github.com/seantiz/ordersim/internal/config"
	"github.com/seantiz/ordersim/internal/sim"
	"github.com/seantiz/ordersim/internal/store"
)

func main() {
	cfg := config.Load()
	logger := config.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	logger.Info("ordersim: starting",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"mode", cfg.Sim.Mode,
		"rate", cfg.Sim.Rate,
		"workers", cfg.Sim.Workers,
	)

	db, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	newEngine := func() *sim.Orchestrator {
		return sim.New(cfg.Sim, db, logger)
	}

	srv := api.NewServer(cfg.ListenAddr, db, newEngine, logger)

	// Begin generating immediately; the API can stop and restart runs later.
	if _, err := srv.StartRun(context.Background()); err != nil {
		log.Fatalf("failed to start simulation: %v", err)
	}

	if err := srv.Run(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
