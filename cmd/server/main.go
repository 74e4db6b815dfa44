package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ricemill/analytics/internal/api"
	"github.com/ricemill/analytics/internal/cache"
	"github.com/ricemill/analytics/internal/config"
	"github.com/ricemill/analytics/internal/ledger/postgres"
	"github.com/ricemill/analytics/internal/service"
	"github.com/ricemill/analytics/pkg/logger"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Load()

	logger.Setup(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	dashboardCache, err := cache.NewDashboardCache(cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Msg("cache unavailable, continuing without it")
		dashboardCache = cache.NewNoopDashboardCache()
	}

	analyticsService := service.NewAnalyticsService(
		postgres.NewMovementRepository(db),
		postgres.NewBatchRepository(db),
		postgres.NewSnapshotRepository(db),
		dashboardCache,
		service.ParamsFromConfig(cfg.Analytics),
		cfg.Analytics.SweepWorkers,
	)

	router := api.NewRouter(analyticsService, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}
