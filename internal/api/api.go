package api

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ricemill/analytics/internal/api/handlers"
	"github.com/ricemill/analytics/internal/api/middleware"
	"github.com/ricemill/analytics/internal/service"
)

func NewRouter(analyticsService *service.AnalyticsService, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())

	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if analyticsService != nil {
		handler := handlers.NewAnalyticsHandler(analyticsService)
		analyticsGroup := apiGroup.Group("/analytics")
		{
			analyticsGroup.GET("/valuation/:product_id", handler.GetValuation)
			analyticsGroup.GET("/reorder", handler.GetReorderReport)
			analyticsGroup.GET("/abc", handler.GetABCAnalysis)
			analyticsGroup.GET("/forecast/:product_id", handler.GetForecast)
			analyticsGroup.GET("/efficiency", handler.GetEfficiencySweep)
			analyticsGroup.GET("/efficiency/:machine_id", handler.GetMachineEfficiency)
			analyticsGroup.GET("/waste", handler.GetWaste)
			analyticsGroup.GET("/dashboard", handler.GetDashboard)
			analyticsGroup.POST("/snapshots/reconcile", handler.PostReconcile)
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
