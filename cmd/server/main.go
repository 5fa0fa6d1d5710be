// Notes admin server entry point. Wires the configured store backend into
// the statistics, denormalization and entity services and serves the HTML
// admin pages.
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

	"github.com/kuitang/notes-admin/internal/categories"
	"github.com/kuitang/notes-admin/internal/config"
	"github.com/kuitang/notes-admin/internal/denorm"
	"github.com/kuitang/notes-admin/internal/notes"
	"github.com/kuitang/notes-admin/internal/obs"
	"github.com/kuitang/notes-admin/internal/stats"
	"github.com/kuitang/notes-admin/internal/store"
	"github.com/kuitang/notes-admin/internal/store/sqlite"
	"github.com/kuitang/notes-admin/internal/store/surreal"
	"github.com/kuitang/notes-admin/internal/users"
	"github.com/kuitang/notes-admin/internal/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	addr, storeDriver := config.ParseFlags()
	cfg := config.MustLoadConfig(addr, storeDriver)

	obs.Init()
	logger := obs.Pkg("main")
	cfg.PrintStartupSummary()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	logger.Info("store_ready", "driver", cfg.StoreDriver)

	renderer, err := web.NewRenderer(cfg.TemplatesDir)
	if err != nil {
		return fmt.Errorf("failed to initialize templates: %w", err)
	}

	synchronizer := denorm.New(st)
	reconciler := stats.New(st)
	usersService := users.NewService(st, synchronizer, reconciler)
	categoriesService := categories.NewService(st, synchronizer)
	notesService := notes.NewService(st, reconciler)

	mux := http.NewServeMux()
	handler := web.NewHandler(renderer, usersService, categoriesService, notesService, reconciler)
	handler.RegisterRoutes(mux)

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           obs.RequestContextMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server_listening", "addr", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		logger.Info("shutdown_signal", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("server_stopped")
	return nil
}

func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreSurreal:
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return surreal.Open(ctx, surreal.Config{
			URL:       cfg.SurrealURL,
			Namespace: cfg.SurrealNamespace,
			Database:  cfg.SurrealDatabase,
			Username:  cfg.SurrealUser,
			Password:  cfg.SurrealPass,
		})
	default:
		return sqlite.Open(cfg.DataDir)
	}
}
