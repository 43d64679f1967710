// Package main is the entry point for the logsearch server binary.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"logsearch/internal/app"
	"logsearch/internal/config"
	internaldb "logsearch/internal/db"
	"logsearch/internal/scheduler"
)

const sweepInterval = time.Minute

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file (if present)
	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Warn("could not load .env", "error", err)
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	// Open the history store with hardened connection settings.
	// writeDB: single-connection pool for serialized writes (WAL + txlock=immediate).
	// readDB:  small pool for concurrent reads.
	writeDB, readDB, err := internaldb.OpenSQLitePair(cfg.HistoryDBPath, 0)
	if err != nil {
		return fmt.Errorf("open history db: %w", err)
	}
	defer writeDB.Close() //nolint:errcheck
	defer readDB.Close()  //nolint:errcheck

	if err := internaldb.RunMigrations(writeDB); err != nil {
		return fmt.Errorf("migrate history db: %w", err)
	}

	a, err := app.New(app.Deps{Cfg: cfg, WriteDB: writeDB, ReadDB: readDB, Logger: logger})
	if err != nil {
		return err
	}

	// Scheduler: saved searches plus the nightly history purge. It runs
	// even without a saved-searches file so retention still applies.
	var searches []scheduler.SavedSearch
	if cfg.SavedSearchesFile != "" {
		searches, err = scheduler.LoadSavedSearches(cfg.SavedSearchesFile)
		if err != nil {
			return fmt.Errorf("load saved searches: %w", err)
		}
		logger.Info("saved searches loaded", "file", cfg.SavedSearchesFile, "count", len(searches))
	}
	if err := a.Scheduler.Start(searches); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer a.Scheduler.Stop()

	// Evict idle search sessions in the background.
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := a.Sessions.Sweep(); n > 0 {
					logger.Debug("evicted idle sessions", "count", n)
				}
			}
		}
	}()

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logger.Info("HTTP server listening", "addr", cfg.ListenAddr,
		"url", "http://"+curlHostForListenAddr(cfg.ListenAddr))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// curlHostForListenAddr turns a listen address into something a client can
// actually dial: wildcard and empty hosts become localhost.
func curlHostForListenAddr(listenAddr string) string {
	addr := strings.TrimSpace(listenAddr)
	if addr == "" {
		return "localhost:8080"
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	switch strings.TrimSpace(host) {
	case "", "0.0.0.0", "::":
		host = "localhost"
	case "::1":
		host = "[::1]"
	}
	return host + ":" + port
}
