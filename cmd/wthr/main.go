package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/swelljoe/wthr-widget/internal/config"
	"github.com/swelljoe/wthr-widget/internal/db"
	"github.com/swelljoe/wthr-widget/internal/handlers"
	"github.com/swelljoe/wthr-widget/internal/weather"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	// Initialize database connection
	var database handlers.Database
	opts := []weather.Option{weather.WithFormatter(cfg.Formatter())}

	store, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Warn("database unavailable, continuing without cache and recent places",
			zap.String("path", cfg.DBPath), zap.Error(err))
	} else {
		defer store.Close()
		database = store
		opts = append(opts, weather.WithStore(store, cfg.CacheTTL))
		if n, err := store.PurgeExpired(); err != nil {
			logger.Warn("failed to purge expired forecasts", zap.Error(err))
		} else if n > 0 {
			logger.Info("purged expired forecasts", zap.Int64("rows", n))
		}
		logger.Info("database connected", zap.String("path", cfg.DBPath))
	}

	client := weather.NewClient(cfg.ClientOptions())
	svc := weather.NewService(client, logger.Named("weather"), opts...)
	h := handlers.New(database, svc, logger.Named("http"))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h.Router(cfg.StaticDir),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", "http://localhost"+srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
