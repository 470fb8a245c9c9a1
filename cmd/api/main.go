package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"evpi/adapters/api"
	"evpi/adapters/excel"
	"evpi/adapters/model/logit"
	"evpi/adapters/postgres"
	"evpi/adapters/rng"
	"evpi/app"
	"evpi/internal"
	"evpi/internal/config"
	"evpi/ports"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	logger := internal.Component("Server")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration: %v", err)
		os.Exit(1)
	}

	var repo ports.DatasetRepository
	if cfg.Database.URL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		db, err := postgres.Connect(ctx, cfg.Database.URL)
		cancel()
		if err != nil {
			logger.Error("database connection failed: %v", err)
			os.Exit(1)
		}
		defer db.Close()
		repo = postgres.NewDatasetRepository(db)
		logger.Info("postgres dataset repository enabled")
	}

	service := app.NewEVPIService(logit.NewFitter(), rng.NewAdapter(), cfg.Simulation.Workers)
	server := api.NewServer(service, repo, func(path string) ports.DatasetReaderPort {
		return excel.NewDataReader(path)
	})

	addr := ":" + cfg.Server.Port
	logger.Info("listening on %s", addr)
	if err := http.ListenAndServe(addr, server.Router()); err != nil {
		logger.Error("server stopped: %v", err)
		os.Exit(1)
	}
}
