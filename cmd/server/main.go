package main

import (
	"context"
	"doraform/internal/app"
	"doraform/internal/config"
	"doraform/internal/logger"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	cfg := config.Load()

	mode := "dev"
	if cfg.IsProduction() {
		mode = "prod"
	}
	log, err := logger.New(mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to start", "error", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server starting",
			"port", cfg.HTTPPort,
			"env", cfg.AppEnv,
			"storage", cfg.StorageBackend,
			"delivery_enabled", cfg.Delivery.IsEnabled(),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe failed", "error", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	// submissions retry delivery with backoff, so they get longer than requests
	closeCtx, closeCancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer closeCancel()
	if err := a.Close(closeCtx); err != nil {
		log.Error("failed to release resources", "error", err)
	}

	log.Info("server exited")
}
