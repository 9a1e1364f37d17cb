package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stocktracker/config"
	"stocktracker/internal/api"
	"stocktracker/internal/ledger"
	"stocktracker/internal/market"
	"stocktracker/logger"
	"stocktracker/pkg/quote"
	"stocktracker/pkg/storage/postgres"

	"go.uber.org/zap"
)

func main() {
	// viper config
	cfg := config.Load()

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Rehydrate the ledger from the columnar files before serving anything.
	book := ledger.New(cfg.Storage.DataDir, log)
	if err := book.Restore(); err != nil {
		log.Fatal("failed to restore ledger", zap.Error(err))
	}

	cache := market.NewCache()
	quotes := quote.NewClient(cfg.Market.BaseURL, cfg.Market.APIKey, cfg.Market.Timeout)

	// Optional Postgres mirror of the daily closes. The refresher writes to
	// it, the API reads it back.
	var archive market.CloseArchiver
	var closeArchive api.CloseArchive
	if cfg.Postgres.Enabled {
		pg, err := postgres.InitializeAndMigrate(cfg.Postgres, cfg.Log.Environment, true)
		if err != nil {
			log.Fatal("failed to connect to archive DB", zap.Error(err))
		}
		defer pg.Close()
		archive = pg
		closeArchive = pg
	}

	refresher := market.NewRefresher(book, quotes, cache, archive,
		cfg.Storage.DataDir, cfg.Market.RefreshInterval, cfg.Market.Timeout, log)
	go func() {
		if err := refresher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("refresher stopped", zap.Error(err))
		}
	}()

	server := api.NewServer(book, cache, closeArchive, log)
	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.Router(),
	}

	// Shut the HTTP server down cooperatively so in-flight writes complete.
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("http shutdown failed", zap.Error(err))
		}
	}()

	log.Info("listening", zap.String("addr", cfg.Server.Addr))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("http server failed", zap.Error(err))
	}
}
