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

	"gnotes/internal/config"
	"gnotes/internal/store"
	"gnotes/internal/web"
)

func main() {
	if err := config.InitEnvFile(); err != nil {
		fmt.Fprintf(os.Stderr, "init env file: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	closeLog := setupLogger(cfg)
	defer closeLog()

	if err := run(cfg); err != nil {
		slog.Error("fatal", "err", err)
		closeLog()
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.DataPath, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	st, err := store.OpenWithOptions(cfg.DBPath(), store.OpenOptions{BusyTimeout: cfg.DBLockTimeout})
	if err != nil {
		return err
	}
	defer st.Close()

	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = st.Init(initCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}

	srv, err := web.NewServer(cfg, st)
	if err != nil {
		return fmt.Errorf("new server: %w", err)
	}
	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", cfg.ListenAddr, "data", cfg.DataPath)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
