// Package main is the entry point for the recipe costing API server.
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

	"github.com/gin-gonic/gin"

	"recipecost/internal/config"
	"recipecost/internal/domain/auth"
	v1 "recipecost/internal/infrastructure/http/v1"
	"recipecost/internal/infrastructure/http/v1/middleware"
	"recipecost/pkg/logger"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.Development(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx := context.Background()
	log.Infow("starting recipecost server", "version", version, "env", cfg.Env)

	app, err := buildApp(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to initialize storage", "error", err)
	}
	defer app.Close()

	// --- JWT ---
	var validator middleware.JWTValidator
	if cfg.JWTSecret != "" {
		validator = auth.NewJWTService(auth.DefaultJWTConfig(cfg.JWTSecret))
	}

	// --- Router ---
	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}
	routerCfg := v1.RouterConfig{
		Logger:        log,
		JWTValidator:  validator,
		AuthRequired:  cfg.AuthRequired,
		ApproverRoles: cfg.ApproverRoles,
		DB:            app.db,
		Version:       version,
		RawMaterials:  app.rawMaterials,
		Recipes:       app.recipes,
		Quotations:    app.quotations,
	}
	if cfg.IdempotencyEnabled {
		routerCfg.Idempotency = app.idempotency
	}
	router := v1.NewRouter(routerCfg)

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Port, "storage", app.storage)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
