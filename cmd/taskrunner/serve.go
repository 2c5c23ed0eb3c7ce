package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lochan861/mt/internal/auth"
	"github.com/lochan861/mt/internal/database"
	"github.com/lochan861/mt/internal/handlers"
	"github.com/lochan861/mt/internal/logger"
	"github.com/lochan861/mt/internal/metrics"
	"github.com/lochan861/mt/internal/runner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and task manager",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Close()

	logger.Log.Info("=== taskrunner starting ===", zap.String("environment", cfg.Environment))
	metrics.Initialize()

	st, db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer database.Close(db)

	authService := auth.NewService(cfg.JWTSecret, st)
	manager := runner.NewManager(st, runner.NewHTTPChecker(cfg.CheckTimeout))
	tasks := runner.NewService(st, manager)

	if err := tasks.Recover(cmd.Context()); err != nil {
		return err
	}

	var health func(ctx context.Context) error
	if db != nil {
		health = func(ctx context.Context) error { return database.Health(db.WithContext(ctx)) }
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(handlers.NewHandlers(authService, tasks, health), handlers.RouterConfig{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Log.Info("HTTP server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Log.Info("Shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Log.Error("HTTP server failed", zap.Error(err))
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Warn("HTTP server forced to shutdown", zap.Error(err))
	}
	if err := manager.Shutdown(ctx); err != nil {
		logger.Log.Warn("Task manager shutdown incomplete", zap.Error(err))
	}

	logger.Log.Info("Server exited")
	return nil
}
