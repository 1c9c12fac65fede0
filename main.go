package main

import (
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/yumyai/biodiv/internal/config"
	"github.com/yumyai/biodiv/logger"
	"github.com/yumyai/biodiv/pkg/analysis"
	"github.com/yumyai/biodiv/pkg/db"
	"github.com/yumyai/biodiv/pkg/handler"
	"github.com/yumyai/biodiv/pkg/middle"
	"github.com/yumyai/biodiv/pkg/taxonomy"
)

const VERSION = "0.1.0"

func main() {

	// Try load env
	dotenvErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// Establish logger
	if err := logger.InitLogger(cfg.LogLevel); err != nil {
		panic(err)
	}
	defer logger.Sync() // Make sure that the buffered is flushed.

	if dotenvErr != nil {
		logger.Warn("No .env found, using local environment")
	}

	store, err := db.Open(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("Open database", zap.String("DB_LOC", cfg.DatabasePath), zap.Error(err))
	}
	defer store.Close()

	uploads, err := db.NewUploadDir(cfg.UploadDir)
	if err != nil {
		logger.Fatal("Upload directory", zap.Error(err))
	}

	engine := analysis.NewSeededEngine(cfg.Seed, taxonomy.BatchOptions{
		Size:  cfg.BatchSize,
		Pause: cfg.BatchPause,
	})

	dbctx, err := handler.NewDBContext(store, uploads, engine, cfg.MaxUploadBytes(), cfg.CleanupOnFail)
	if err != nil {
		logger.Fatal("Handler context", zap.Error(err))
	}

	logger.Info("Start:", zap.String("Version", VERSION))
	logger.Info("Open database on", zap.String("DB_LOC", cfg.DatabasePath))

	mux := handler.NewRouter(dbctx, cfg.StaticDir)

	// Apply middleware
	app := middle.Chain(mux,
		middle.RequestIDMiddleware(logger.L()),
		middle.LoggingMiddleware(logger.L()),
	)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil {
		logger.Error("Error starting server:", zap.String("error message", err.Error()))
	}
}
