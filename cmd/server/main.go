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
	"go.uber.org/zap"

	"github.com/peterhaasme/time-portfolio/internal/app/provider"
	"github.com/peterhaasme/time-portfolio/internal/infrastructure/configloader"
	"github.com/peterhaasme/time-portfolio/internal/infrastructure/restapi"
	"github.com/peterhaasme/time-portfolio/internal/pkg/logger"
)

func main() {
	cfg, err := configloader.LoadAll()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	zapLogger, err := logger.NewZap(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize zap logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = zapLogger.Sync() }()
	slogLogger := logger.InitSlog(zapLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := provider.NewRuntime(ctx, cfg, zapLogger, slogLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize portfolio pipeline", zap.Error(err))
	}
	defer rt.Close()
	zapLogger.Info("Portfolio pipeline ready",
		zap.String("network", rt.Network.Name),
		zap.Int("tokens", len(rt.Tokens)),
		zap.String("price_feed", cfg.PriceFeed.Provider),
	)

	watches := rt.NewWatchService()
	defer watches.Close()

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := restapi.SetupRouter(restapi.RouterDeps{
		Portfolio:   restapi.NewPortfolioHandler(rt.Portfolio, rt.Validator, rt.Tokens, logger.Named(slogLogger, "api")),
		Watches:     restapi.NewWatchHandler(watches, logger.Named(slogLogger, "api")),
		Metrics:     rt.Metrics.Handler(),
		Logger:      zapLogger.Named("HTTP"),
		EnablePprof: cfg.Server.EnablePprof,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSeconds) * time.Second,
	}

	go func() {
		zapLogger.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	zapLogger.Info("Server exiting")
}
