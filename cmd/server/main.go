package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fer0n/splitbill/internal/api"
	"github.com/fer0n/splitbill/internal/auth"
	"github.com/fer0n/splitbill/internal/service"
	"github.com/fer0n/splitbill/internal/storage/sqlite"
	"github.com/fer0n/splitbill/pkg/logging"
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	logging.Setup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := ":" + getEnv("PORT", "8080")
	dbPath := getEnv("DB_PATH", "./data/splitbill.db")
	// Empty AUTH_PASSPHRASE_HASH runs the API open; intended for local,
	// single-machine use only.
	passphraseHash := os.Getenv("AUTH_PASSPHRASE_HASH")
	tokenSecret := getEnv("TOKEN_SECRET", "")
	if passphraseHash != "" && tokenSecret == "" {
		slog.Error("TOKEN_SECRET is required when AUTH_PASSPHRASE_HASH is set")
		os.Exit(1)
	}

	store, err := sqlite.New(dbPath)
	if err != nil {
		slog.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("storage initialized", "database", dbPath)

	session, err := service.New(ctx, store, service.DefaultSaveDelay)
	if err != nil {
		slog.Error("failed to restore session", "error", err)
		os.Exit(1)
	}

	guard := auth.NewGuard(passphraseHash, auth.NewJWTManager(tokenSecret, 24*time.Hour))
	if !guard.Enabled() {
		slog.Warn("authentication disabled, API is open")
	}

	server := &http.Server{
		Addr:    addr,
		Handler: api.NewRouter(api.NewHandler(session, guard)),
	}

	go func() {
		slog.Info("server starting", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
	session.Flush()
}
