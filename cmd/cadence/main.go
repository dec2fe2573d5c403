package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cadence/internal/database"
	"cadence/internal/logging"
	"cadence/internal/push"
	"cadence/internal/routine"
	"cadence/internal/server"
)

func main() {
	addr := os.Getenv("CADENCE_ADDR")
	if addr == "" {
		port := os.Getenv("CADENCE_PORT")
		if port == "" {
			port = "8080"
		}
		addr = ":" + port
	}

	dbPath := os.Getenv("CADENCE_DB_PATH")
	if dbPath == "" {
		dbPath = "cadence.db"
	}

	staticDir := os.Getenv("CADENCE_STATIC_DIR")
	if staticDir == "" {
		staticDir = "web/static"
	}

	logger := logging.Setup(os.Getenv("CADENCE_LOG_LEVEL"))

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	pushCfg := push.Config{
		VAPIDPublicKey:  os.Getenv("CADENCE_VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("CADENCE_VAPID_PRIVATE_KEY"),
	}
	if pushCfg.VAPIDPublicKey == "" {
		logger.Info("VAPID keys not set, web push disabled")
	}

	srv := server.New(db, pushCfg, staticDir, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv.Scheduler().Start(ctx)
	defer srv.Scheduler().Stop()

	go maintenanceLoop(ctx, srv, logger)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("Cadence listening on %s\n", addr)
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

// maintenanceLoop prunes expired sessions, stale reminder markers, and idle
// rate-limit windows once an hour.
func maintenanceLoop(ctx context.Context, srv *server.Server, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := srv.SessionStore().DeleteExpired(); err != nil {
				logger.Error("delete expired sessions", "error", err)
			}
			cutoff := routine.DateKey(time.Now().AddDate(0, 0, -7))
			if err := srv.NotifiedStore().DeleteBefore(cutoff); err != nil {
				logger.Error("prune reminder markers", "error", err)
			}
			srv.RateLimiter().Cleanup()
		}
	}
}
