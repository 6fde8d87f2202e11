package server

import (
	"context"
	"drawroom/internal/config"
	"drawroom/internal/db"
	"drawroom/internal/store"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func Run() error {
	appCfg, err := config.Load()
	if err != nil {
		return err
	}

	st := openStore(appCfg)
	defer func() {
		if err := st.Close(); err != nil {
			log.Printf("[Server] Closing store: %v\n", err)
		}
	}()

	srv := New(appCfg, st, nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	writer := startPersister(st, srv.Bus.Draws, flushInterval)

	httpServer := &http.Server{
		Addr:              "0.0.0.0:" + appCfg.Port,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		fmt.Printf("Server listening on http://localhost:%s\n", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Println("[Server] Shutting down")
	case err := <-errChan:
		writer.Stop()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("[Server] Shutdown: %v\n", err)
	}
	// Only after Shutdown returns, so draws made meanwhile are still written.
	writer.Stop()
	return nil
}

// openStore picks Postgres, then Badger, then memory. A backend that fails
// to open is logged and skipped.
func openStore(cfg config.Config) store.Store {
	if cfg.DatabaseURL != "" {
		database, err := db.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Printf("[DB] Failed to connect: %v\n", err)
		} else if err := database.Migrate(); err != nil {
			log.Printf("[DB] Migration failed: %v\n", err)
			database.Close()
		} else {
			log.Println("[DB] Database connected and migrations applied")
			return database
		}
	}

	if cfg.BadgerPath != "" {
		bs, err := store.OpenBadger(cfg.BadgerPath)
		if err == nil {
			return bs
		}
		log.Printf("[Store] %v\n", err)
	}

	log.Println("[DB] No database available, keeping rooms in memory")
	return store.NewMemoryStore()
}
