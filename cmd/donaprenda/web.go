package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"donaprenda/internal/chat"
	"donaprenda/internal/config"
	"donaprenda/internal/static"
	"donaprenda/internal/storage"
	"donaprenda/internal/templates"
	"donaprenda/internal/web"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func newMux(cfg *config.Config, controller *chat.Controller, store *storage.Store) (*http.ServeMux, error) {
	static.Init()
	if err := templates.Init(static.StyleAssetPath, static.ScriptAssetPath); err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	mux := http.NewServeMux()
	static.Register(mux)
	web.NewHandler(controller, cfg.AI.Timeout).Register(mux)

	ro := &readyOnce{}
	ro.Add(ReadyFunc(func(ctx context.Context) error {
		_, err := store.HasHistory(ctx)
		return err
	}))
	mux.Handle("GET /ready", ro)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux, nil
}

func runServer(ctx context.Context, cfg *config.Config, controller *chat.Controller, store *storage.Store) error {
	mux, err := newMux(cfg, controller, store)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           WithMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the server
	serverErrors := make(chan error, 1)

	go func() {
		slog.Info("Serving Dona Prenda", "address", cfg.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	// Block until we receive a signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
		return gracefulShutdown(server, cfg.AI.Timeout)
	}
}

// gracefulShutdown lets a running turn finish, it can take as long as the
// AI timeout.
func gracefulShutdown(svr *http.Server, turnTimeout time.Duration) error {
	grace := 25 * time.Second
	if turnTimeout > 0 && turnTimeout < grace {
		grace = turnTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	if err := svr.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown error", "error", err)
		// Force close after timeout
		if closeErr := svr.Close(); closeErr != nil {
			slog.Error("Server close error", "error", closeErr)
		}
		return err
	}
	slog.Info("Server stopped")
	return nil
}
