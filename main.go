package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	waLog "go.mau.fi/whatsmeow/util/log"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	logger := waLog.Stdout("Gateway", cfg.LogLevel, true)
	logger.Infof("🔄 Starting WhatsApp gateway...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.StoreDir, 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	client, err := NewWhatsAppClient(ctx, cfg.StoreDSN(), waLog.Stdout("WhatsApp", cfg.LogLevel, true))
	if err != nil {
		return err
	}

	tracker := NewTracker(logger.Sub("Session"))
	client.Subscribe(tracker.Handle)
	client.Subscribe(printQR(os.Stdout))

	// Readiness arrives as an event; the server starts regardless and
	// /reconnect can retry a failed start.
	go func() {
		if err := client.Initialize(ctx); err != nil {
			logger.Errorf("Failed to initialize WhatsApp session: %v", err)
		}
	}()

	gateway := NewGateway(client, tracker, logger.Sub("HTTP"))
	errCh := make(chan error, 1)
	go func() {
		errCh <- gateway.Start(cfg.Addr())
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Infof("👋 Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := gateway.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("Failed to shut down HTTP server cleanly: %v", err)
	}
	return client.Destroy(shutdownCtx)
}
