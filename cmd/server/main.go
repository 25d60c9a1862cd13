package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sil0410/rental-analysis-app/config"
	"github.com/sil0410/rental-analysis-app/internal/api"
	"github.com/sil0410/rental-analysis-app/internal/catalog"
	"github.com/sil0410/rental-analysis-app/internal/drive"
	"github.com/sil0410/rental-analysis-app/internal/geo"
	"github.com/sil0410/rental-analysis-app/internal/ingest"
	"github.com/sil0410/rental-analysis-app/internal/metadata"
	"github.com/sil0410/rental-analysis-app/internal/reconcile"
	"github.com/sil0410/rental-analysis-app/internal/source"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	// .env is optional; environment variables win either way.
	if err := godotenv.Load(); err == nil {
		logger.Info("Loaded configuration from .env")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		logger.WithError(err).Fatal("Failed to create database directory")
	}
	logger.Infof("Using database at: %s", cfg.DBPath)

	db, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{})
	if err != nil {
		logger.WithError(err).Fatal("Failed to open database")
	}

	ctx := context.Background()

	var connector drive.Connector
	if cfg.Drive.FolderID != "" {
		dc, err := drive.NewDriveConnector(ctx, cfg.Drive.CredentialsFile, cfg.Drive.FolderID, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to initialize remote connector")
		}
		connector = dc
		logger.WithField("folder", cfg.Drive.FolderID).Info("Remote source connector enabled")
	}

	cacheDir := cfg.Cache.Dir
	if cacheDir == "" {
		cacheDir = filepath.Join(os.TempDir(), "rental-analysis", "source_cache")
	}
	cache := source.NewCache(cacheDir, cfg.Cache.TTL, logger)
	fetcher := source.NewFetcher(cache, connector, logger)

	gaz := config.DefaultGazetteer()
	extractor := metadata.NewExtractor(gaz)

	catalogSvc, err := catalog.NewService(db, extractor, gaz, fetcher, cfg.UploadDir, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize catalog")
	}

	logger.Info("Scanning sources...")
	if _, err := catalogSvc.Rescan(ctx); err != nil {
		logger.WithError(err).Error("Initial source scan failed")
	}

	normalizer := ingest.NewNormalizer(geo.NewNormalizer(config.TaiwanBound))
	loader := source.NewLoader(catalogSvc, fetcher, normalizer, extractor, logger)
	engine := reconcile.NewEngine(loader, catalogSvc, cfg.Reconcile.LookbackWeeks, logger)

	router := gin.Default()
	api.SetupRoutes(router, api.NewHandler(catalogSvc, engine, gaz, cfg, logger), cfg.StaticDir)

	logger.Infof("Starting server on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.WithError(err).Fatal("Server failed to start")
	}
}
