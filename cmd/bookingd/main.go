package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/example/booking-engine/internal/application"
	"github.com/example/booking-engine/internal/config"
	"github.com/example/booking-engine/internal/httpapi"
	"github.com/example/booking-engine/internal/livesync"
	"github.com/example/booking-engine/internal/persistence"
	"github.com/example/booking-engine/internal/persistence/sqlite"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	store, err := sqlite.Open(ctx, cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	idGenerator := func() string { return uuid.NewString() }
	tokenGenerator := func() string { return randomHex(32) }
	now := time.Now

	authService := application.NewAuthService(store, store, idGenerator, tokenGenerator, now, cfg.AuthTokenTTL, logger)
	clientService := application.NewClientService(store, idGenerator, now, logger)
	sessionService := application.NewSessionService(store, store, idGenerator, now, logger)

	// Sessions are owner-scoped and the process has no operator of its own, so
	// the empty filter keeps that half of the mirror empty; operators receive
	// their sessions through /feed/sessions. The mirror tracks the shared
	// client registry.
	reconciler := livesync.New(store, store, persistence.SessionFilter{}, logger)
	reconciler.OnChange(func(state livesync.State) {
		logger.Info("client registry mirrored", "clients", len(state.Clients))
	})
	reconciler.OnError(func(collection string, err error) {
		logger.Error("live feed degraded, retaining previous state", "collection", collection, "error", err)
	})
	go func() {
		if err := reconciler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("reconciler stopped", "error", err)
		}
	}()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.PurgeSchedule, func() {
		if err := authService.PurgeExpired(context.Background()); err != nil {
			logger.Error("failed to purge expired auth sessions", "error", err)
		}
	}); err != nil {
		logger.Error("invalid purge schedule", "schedule", cfg.PurgeSchedule, "error", err)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Auth:      httpapi.NewAuthHandler(authService, logger),
		Clients:   httpapi.NewClientHandler(clientService, logger),
		Sessions:  httpapi.NewSessionHandler(sessionService, logger),
		Dashboard: httpapi.NewDashboardHandler(sessionService, logger),
		Feeds:     httpapi.NewFeedHandler(store, store, logger),
	})

	protected := httpapi.RequireAuth(authService, logger)(router)
	handler := httpapi.RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.EqualFold(r.URL.Path, "/login") || strings.EqualFold(r.URL.Path, "/register") {
			router.ServeHTTP(w, r)
			return
		}
		protected.ServeHTTP(w, r)
	}))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("booking API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
