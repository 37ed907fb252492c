package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/afoapp/bookkeeper/internal/config"
	"github.com/afoapp/bookkeeper/internal/currency"
	"github.com/afoapp/bookkeeper/internal/kvstore"
	"github.com/afoapp/bookkeeper/internal/repository"
	"github.com/afoapp/bookkeeper/internal/repository/localkv"
	"github.com/afoapp/bookkeeper/internal/repository/mongodb"
	"github.com/afoapp/bookkeeper/internal/server/handlers"
	"github.com/afoapp/bookkeeper/internal/server/router"
	"github.com/afoapp/bookkeeper/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	// Device preferences always live in the local store, whichever backend
	// holds the sheets.
	store, err := kvstore.NewFileStore(cfg.Storage.DataDir)
	if err != nil {
		baseLogger.Fatal("failed to init local store", zap.Error(err))
	}
	pref := currency.NewPreference(store, cfg.Currency.DefaultCode, baseLogger.Named("currency"))

	var sheetRepo repository.SheetRepository
	switch cfg.Storage.Backend {
	case config.BackendMongo:
		mongoRepo, err := mongodb.NewSheetRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName, cfg.MongoDB.UserID, baseLogger.Named("repo.mongodb"))
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		sheetRepo = mongoRepo
	default:
		sheetRepo = localkv.NewSheetRepository(store, baseLogger.Named("repo.localkv"))
	}

	sheetHandler := handlers.NewSheetHandler(sheetRepo, pref, baseLogger.Named("handlers.sheets"))
	engine := router.New(sheetHandler, baseLogger.Named("router"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("backend", cfg.Storage.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
