package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	api "github.com/mind-engage/mindengage-qti/internal/api/http"
	auth "github.com/mind-engage/mindengage-qti/internal/auth/middleware"
	"github.com/mind-engage/mindengage-qti/internal/config"
	"github.com/mind-engage/mindengage-qti/internal/db"
	"github.com/mind-engage/mindengage-qti/internal/delivery"
	"github.com/mind-engage/mindengage-qti/internal/logging"
	storage "github.com/mind-engage/mindengage-qti/internal/storage"
	syncx "github.com/mind-engage/mindengage-qti/internal/sync"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer dbh.Close()

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		logger.Fatal("blob store", zap.Error(err))
	}
	events := syncx.NewEventRepo(dbh)
	svc := delivery.NewService(delivery.NewSQLStore(dbh), bs, events, logger,
		delivery.WithMaxItemBytes(cfg.MaxItemBytes),
		delivery.WithRejectInvalid(cfg.RejectInvalidItems))

	// --- Auth (local JWT for offline/dev) ---
	authSvc := auth.NewAuthService(cfg.AuthSecret, cfg.TokenTTL)

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: api.NewRouter(api.Deps{
			Config:  cfg,
			Service: svc,
			Auth:    authSvc,
			Events:  events,
			Logger:  logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
	}()

	logger.Info("listening",
		zap.String("addr", cfg.HTTPAddr),
		zap.String("mode", string(cfg.Mode)),
		zap.String("db", cfg.DBDriver))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server", zap.Error(err))
	}
}
