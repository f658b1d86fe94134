package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"rtaportal/internal/api"
	"rtaportal/internal/config"
	"rtaportal/internal/db"
	"rtaportal/internal/rta"
	"rtaportal/internal/store"
	"rtaportal/internal/util"
)

func main() {
	// Local development convenience; real deployments set the environment.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("skipping .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	sqdb, err := db.Open(cfg)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer sqdb.Close()
	if err := db.ApplyMigrationFile(sqdb, db.MigrationFile("migrations", cfg.DBDriver)); err != nil {
		log.Fatalf("migration: %v", err)
	}

	st := store.New(sqdb, cfg.DBDriver)
	if err := st.UpsertSetting(context.Background(), "schema_version", "1"); err != nil {
		log.Fatalf("record schema version: %v", err)
	}

	backend := rta.NewHTTPClient(cfg)
	key := util.Derive32ByteKey(cfg.SessionEncryptKey)
	r := api.NewRouter(cfg, st, backend, key)

	hsrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadTimeout:       time.Duration(cfg.HTTPReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTPReadHeaderTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTPWriteTimeoutSec) * time.Second,
		IdleTimeout:       time.Duration(cfg.HTTPIdleTimeoutSec) * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go startJanitor(ctx, st, cfg)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s backend=%s", cfg.ListenAddr, cfg.BackendBaseURL)
		errCh <- hsrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	case <-ctx.Done():
		log.Printf("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := hsrv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}
}

// startJanitor clears expired sessions, stale drafts and old rate buckets
// on a slow loop.
func startJanitor(ctx context.Context, st *store.Store, cfg config.Config) {
	ticker := time.NewTicker(15 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now().UTC()
			if err := st.DeleteExpiredSessions(ctx, now); err != nil {
				log.Printf("janitor sessions: %v", err)
			}
			if err := st.DeleteDraftsBefore(ctx, now.Add(-cfg.DraftTTL())); err != nil {
				log.Printf("janitor drafts: %v", err)
			}
			if err := st.CleanupRateEventsBefore(ctx, now.Add(-24*time.Hour)); err != nil {
				log.Printf("janitor rate events: %v", err)
			}
		}
	}
}
