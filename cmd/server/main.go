package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"speechproxy/internal/api"
	"speechproxy/internal/backend"
	"speechproxy/internal/config"
	"speechproxy/internal/logger"
	"speechproxy/internal/storage"
)

// shutdownGrace bounds how long in-flight requests get to finish after a
// shutdown signal.
const shutdownGrace = 10 * time.Second

func main() {
	// Load .env file if it exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg := logger.New(cfg.LogLevel, cfg.LogFormat)

	// The process must not start if it cannot guarantee a writable storage
	// root, unless persistence is disabled.
	if cfg.SaveRecordings {
		if err := os.MkdirAll(cfg.StorageDir, 0o755); err != nil {
			logg.Error("failed to create storage directory", "dir", cfg.StorageDir, "error", err)
			os.Exit(1)
		}
	} else {
		logg.Info("recording persistence disabled")
	}

	// Set Gin mode (default to release mode)
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	store := storage.New(cfg.StorageDir, cfg.SaveRecordings, cfg.ResolvedBaseURL(), logg)
	client := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout, logg)
	handler := api.NewHandler(store, client, cfg, logg)

	r := gin.Default()
	r.Use(corsMiddleware())
	handler.Register(r)

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logg.Info("speech proxy listening", "addr", cfg.Addr(), "backend", cfg.BackendURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logg.Info("shutdown signal received, draining")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error("graceful shutdown failed, forcing close", "error", err)
		_ = srv.Close()
	}
	logg.Info("shutdown complete")
}

// corsMiddleware adds CORS headers for browser and mobile clients
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
