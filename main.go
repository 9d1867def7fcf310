package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yourorg/listing-api/internal/config"
	"github.com/yourorg/listing-api/internal/logger"
	"github.com/yourorg/listing-api/mls"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, AddSource: cfg.Log.AddSource})
	slog.SetDefault(log)

	retry := cfg.MLS.Retry()
	retry.Logger = log
	client := mls.NewClient(mls.Config{
		Token:   cfg.MLS.Token,
		BaseURL: cfg.MLS.BaseURL,
		Retry:   retry,
		Logger:  log,
	})
	if !client.Configured() {
		log.Warn("MLS_API_TOKEN not set; searches will return empty results")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           BuildRouter(RouterDeps{Listings: client, Logger: log, RateLimitPerMinute: cfg.RateLimitPerMinute}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("listing-api listening", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
