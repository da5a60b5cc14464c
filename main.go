package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"boulangerie/app"
	"boulangerie/config"
	"boulangerie/logging"
)

func main() {
	// Load .env file in development (ignores a missing file)
	// Use Overload to ensure .env values override system environment variables
	loaded, err := config.LoadDotEnv(".env")
	if err != nil {
		log.Printf("Warning: %v, using system environment variables", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	if err := logging.Init(cfg.Env); err != nil {
		log.Fatal(err)
	}
	defer logging.Sync()

	if loaded {
		logging.L().Infof("Loaded environment variables from .env (overriding system variables)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize application
	application, err := app.Initialize(ctx, cfg)
	if err != nil {
		logging.L().Fatalf("❌ %v", err)
	}
	defer func() {
		if err := application.Close(); err != nil {
			logging.L().Warnf("⚠️  Shutdown: %v", err)
		}
	}()
	application.Run(ctx)

	// Listen on 0.0.0.0 to accept connections from all interfaces (required for Docker/Render)
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           application.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.L().Infof("Server starting on %s", server.Addr)
		logging.L().Infof("Catalog endpoint: GET %s/api/products", cfg.BaseURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.L().Errorf("❌ Server failed: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logging.L().Infof("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.L().Warnf("⚠️  Server shutdown: %v", err)
	}
}
