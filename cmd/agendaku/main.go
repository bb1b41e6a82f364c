package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agendaku/internal/database"
	"agendaku/internal/logging"
	"agendaku/internal/push"
	"agendaku/internal/server"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

func main() {
	// Missing .env is fine; the environment may already be set.
	godotenv.Load()

	port := os.Getenv("AGENDAKU_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("AGENDAKU_DB_PATH")
	if dbPath == "" {
		dbPath = "agendaku.db"
	}

	logger := logging.Setup(os.Getenv("AGENDAKU_LOG_LEVEL"))

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	cfg := server.Config{
		Push: push.Config{
			VAPIDPublicKey:  os.Getenv("AGENDAKU_VAPID_PUBLIC_KEY"),
			VAPIDPrivateKey: os.Getenv("AGENDAKU_VAPID_PRIVATE_KEY"),
		},
		PreserveReminderFlag: os.Getenv("AGENDAKU_PRESERVE_REMINDER_FLAG") != "false",
	}

	srv := server.New(db, cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv.Scheduler().Start(ctx)
	defer srv.Scheduler().Stop()

	// Nightly maintenance: purge expired sessions, prune old notification
	// history, drop stale rate limit entries.
	maintenance := cron.New()
	maintenance.AddFunc("0 3 * * *", func() {
		if n, err := srv.SessionStore().DeleteExpired(); err != nil {
			logger.Error("session cleanup", "error", err)
		} else if n > 0 {
			logger.Info("session cleanup", "deleted", n)
		}
		cutoff := time.Now().AddDate(0, 0, -90)
		if n, err := srv.NotificationStore().DeleteOlderThan(cutoff); err != nil {
			logger.Error("notification cleanup", "error", err)
		} else if n > 0 {
			logger.Info("notification cleanup", "deleted", n)
		}
		srv.RateLimiter().Cleanup()
	})
	maintenance.Start()
	defer maintenance.Stop()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("Agendaku running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
