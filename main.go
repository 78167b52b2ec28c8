package main

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"emas-scraper/api"
	"emas-scraper/config"
	"emas-scraper/scraper"
	"emas-scraper/services"
	"emas-scraper/storage"
	"emas-scraper/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()
	logger.SetLevel(cfg.LogLevel)

	logger.Info("=== Gold Price Scraper starting ===")
	logger.Info("Config — listen: %s | persist workers: %d | sources: %v",
		cfg.ListenAddr, cfg.PersistWorkers, scraper.Known())

	var store storage.Store
	pg, err := storage.NewPostgresStore(cfg.DSN(), &utils.RetryConfig{
		MaxAttempts: cfg.DBConnRetries,
		BaseDelay:   2 * time.Second,
		Logger:      logger,
	})
	if err != nil {
		logger.Error("PostgreSQL unavailable: %v — serving without price history", err)
	} else {
		store = pg
		defer pg.Close()
	}

	pipeline := services.NewPipeline(scraper.NewHTTPFetcher(), store, logger, cfg.PersistWorkers)
	defer pipeline.Flush()

	if cfg.CSVAuditPath != "" {
		audit, err := storage.NewCSVWriter(cfg.CSVAuditPath)
		if err != nil {
			logger.Error("Failed to create CSV audit writer: %v", err)
		} else {
			pipeline.SetAuditWriter(audit)
			defer audit.Close()
			logger.Info("Raw-field audit trail → %s", cfg.CSVAuditPath)
		}
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	api.SetupRoutes(r, pipeline, logger)

	logger.Info("Listening on %s", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		logger.Error("Server stopped: %v", err)
		os.Exit(1)
	}
}
