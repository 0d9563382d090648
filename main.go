package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ridealert/go-helmet-api/api"
	"github.com/ridealert/go-helmet-api/backend"
	"github.com/ridealert/go-helmet-api/backend/zeroconf"
	"github.com/ridealert/go-helmet-api/config"
	"github.com/ridealert/go-helmet-api/logger"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		logger.Fatal("[%s] Failed to load config: %v", config.AppName, err)
	}

	// Set log level from config, route to the journal when running under systemd
	logger.SetLevel(cfg.LogLevel)
	if logger.UseJournal() {
		logger.Debug("[%s] logging to systemd journal", config.AppName)
	}

	// Global context for the entire application
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize backends
	b, err := backend.New(ctx, cfg)
	if err != nil {
		logger.Fatal("[%s] Backend initialization failed: %v", config.AppName, err)
	}

	// Start enabled backends
	if err := b.Start(); err != nil {
		logger.Fatal("[%s] Backend start failed: %v", config.AppName, err)
	}

	// Advertise the API over mDNS so the companion app can discover it
	zc, err := zeroconf.New(ctx, cfg.Zeroconf)
	if err != nil {
		logger.Fatal("[%s] Zeroconf initialization failed: %v", config.AppName, err)
	}
	if zc != nil {
		if err := zc.Start(); err != nil {
			logger.Error("[%s] Zeroconf start failed: %v", config.AppName, err)
		}
	}

	// New api server
	server := api.NewServer(ctx, cfg.Api, b)

	// Channel to synchronize shutdown
	shutdownDone := make(chan struct{})
	// Goroutine for signal handling
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("[%s] Shutdown signal received, stopping server...", config.AppName)

		// Cancel the global context - stops all listeners
		cancel()

		// Cleanup backends
		b.Close()

		// Signal that cleanup is complete
		close(shutdownDone)
	}()

	logger.Info("[%s] started", config.AppName)
	if server != nil {
		if err := server.Run(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("[%s] http server error: %v", config.AppName, err)
		}
	}

	<-shutdownDone
	logger.Info("[%s] stopped", config.AppName)
}
