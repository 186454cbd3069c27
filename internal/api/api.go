package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/api/handlers"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/api/middleware"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/jobs"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	ForecastService *service.ForecastService
	AggregationJob  *jobs.AggregationJob
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
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

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil {
		if services.ForecastService != nil {
			forecastHandler := handlers.NewForecastHandler(services.ForecastService)
			forecastGroup := apiGroup.Group("/forecasts")
			{
				forecastGroup.GET("", forecastHandler.ListForecasts)
				forecastGroup.GET("/alerts", forecastHandler.GetReorderAlerts)
				forecastGroup.GET("/:id", forecastHandler.GetForecast)
			}

			ropGroup := apiGroup.Group("/reorder-points")
			{
				ropGroup.GET("", forecastHandler.ListReorderPoints)
				ropGroup.GET("/:id", forecastHandler.GetReorderPoint)
			}

			apiGroup.GET("/events/active", forecastHandler.GetActiveEvents)
		}

		if services.AggregationJob != nil {
			aggregationHandler := handlers.NewAggregationHandler(services.AggregationJob)
			aggregationGroup := apiGroup.Group("/aggregations")
			{
				aggregationGroup.POST("", aggregationHandler.RunAggregation)
				aggregationGroup.GET("/runs", aggregationHandler.ListRuns)
				aggregationGroup.GET("/runs/:date", aggregationHandler.GetRun)
			}
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
