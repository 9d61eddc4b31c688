// simd is the match server: it loads the card catalog, opens the
// optional PostgreSQL archive and serves matches over HTTP and
// websockets until interrupted.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pokefree/ptcg-sim-go/internal/catalog"
	"github.com/pokefree/ptcg-sim-go/internal/config"
	"github.com/pokefree/ptcg-sim-go/internal/game"
	"github.com/pokefree/ptcg-sim-go/internal/repository"
	"github.com/pokefree/ptcg-sim-go/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	cardsPath := flag.String("cards", "data/cards.json", "path to the card database file")
	flag.Parse()

	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := initLogger(cfg.Logging)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *repository.DB
	var cat *catalog.Catalog
	if cfg.Database.Enabled {
		db, err = repository.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			logger.Fatal("failed to migrate database", zap.Error(err))
		}
		cat, err = repository.NewCardStore(db, logger).LoadCatalog(ctx)
		if err != nil {
			logger.Fatal("failed to load catalog from database", zap.Error(err))
		}
	}
	if cat == nil || cat.Size() == 0 {
		cat, err = catalog.LoadFile(*cardsPath)
		if err != nil {
			logger.Fatal("failed to load card database", zap.Error(err))
		}
		logger.Info("loaded card catalog from file",
			zap.String("path", *cardsPath),
			zap.Int("cards", cat.Size()),
		)
	}

	var recorder *game.ReplayRecorder
	if cfg.Replay.Enabled {
		recorder = game.NewReplayRecorder(logger, cfg.Replay.Dir)
	}

	srv := server.New(cfg, logger, cat, recorder, db)
	if err := srv.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("server stopped")
}

func initLogger(cfg config.LoggingConfig) *zap.Logger {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapCfg.Build()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	return logger
}
