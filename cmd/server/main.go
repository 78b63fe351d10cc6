// File: cmd/server/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"log" // Standard log for messages before zap is available
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"identity_sync_backend/internal/config"

	"go.uber.org/zap"
)

func main() {
	retryCmd := flag.NewFlagSet("retry-role-sync", flag.ExitOnError)
	batchSize := retryCmd.Int("batch-size", 0, "Maximum number of pending role pushes to replay (defaults to ROLE_SYNC_BATCH_SIZE)")

	if len(os.Args) > 1 && os.Args[1] == "retry-role-sync" {
		_ = retryCmd.Parse(os.Args[2:])
		if err := runRoleSyncRetry(*batchSize); err != nil {
			log.Fatalf("FATAL: Role sync retry failed: %v", err)
		}
		return
	}

	// Default: Start server
	startServer()
}

func runRoleSyncRetry(batchSize int) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	server, cleanup, err := initializeServer(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	res, err := server.RoleSyncRetryJob.RunOnce(ctx, batchSize)
	if err != nil {
		return err
	}
	if res.Failed > 0 {
		server.AppLogger.Warn("Some role pushes are still failing", zap.Int("failed", res.Failed), zap.Int64("pending", res.Pending))
	}
	return nil
}

func startServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	server, cleanup, err := initializeServer(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize server: %v", err)
	}
	defer cleanup()
	defer func() { _ = server.AppLogger.Sync() }()

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: Server failed to start or crashed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Printf("INFO: Received signal '%s'. Shutting down server...", sig)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ServerTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: Server forced to shutdown due to error: %v", err)
	} else {
		log.Println("INFO: Server shutdown complete.")
	}
}
