package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/forecast"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type ForecastHandler struct {
	forecastService *service.ForecastService
}

func NewForecastHandler(forecastService *service.ForecastService) *ForecastHandler {
	return &ForecastHandler{forecastService: forecastService}
}

// GetForecast handles GET /forecasts/:id
func (h *ForecastHandler) GetForecast(c *gin.Context) {
	productID, ok := productIDParam(c)
	if !ok {
		return
	}

	opts, err := parseForecastOptions(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.forecastService.GetForecast(c.Request.Context(), productID, opts)
	if err != nil {
		respondServiceError(c, err, "failed to compute forecast")
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListForecasts handles GET /forecasts
func (h *ForecastHandler) ListForecasts(c *gin.Context) {
	opts, err := parseBatchOptions(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results, err := h.forecastService.GetAllProductForecasts(c.Request.Context(), opts)
	if err != nil {
		respondServiceError(c, err, "failed to compute forecasts")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"forecasts": results,
		"count":     len(results),
	})
}

// GetReorderAlerts handles GET /forecasts/alerts
func (h *ForecastHandler) GetReorderAlerts(c *gin.Context) {
	opts, err := parseBatchOptions(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	alerts, err := h.forecastService.GetReorderAlerts(c.Request.Context(), opts)
	if err != nil {
		respondServiceError(c, err, "failed to compute reorder alerts")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

// GetReorderPoint handles GET /reorder-points/:id
func (h *ForecastHandler) GetReorderPoint(c *gin.Context) {
	productID, ok := productIDParam(c)
	if !ok {
		return
	}

	result, err := h.forecastService.GetDynamicReorderPoint(c.Request.Context(), productID)
	if err != nil {
		respondServiceError(c, err, "failed to compute reorder point")
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListReorderPoints handles GET /reorder-points
func (h *ForecastHandler) ListReorderPoints(c *gin.Context) {
	results, err := h.forecastService.GetAllDynamicReorderPoints(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "failed to compute reorder points")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reorder_points": results,
		"count":          len(results),
	})
}

// GetActiveEvents handles GET /events/active?product_id=&date=
func (h *ForecastHandler) GetActiveEvents(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Query("product_id"), 10, 64)
	if err != nil || productID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product_id must be a positive integer"})
		return
	}

	day, err := optionalDate(c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	events, adjustment, err := h.forecastService.GetActiveEvents(c.Request.Context(), productID, day)
	if err != nil {
		respondServiceError(c, err, "failed to fetch active events")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product_id": productID,
		"events":     events,
		"adjustment": adjustment,
	})
}

func productIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product id must be a positive integer"})
		return 0, false
	}
	return id, true
}

func parseForecastOptions(c *gin.Context) (domain.ForecastOptions, error) {
	var opts domain.ForecastOptions

	date, err := optionalDate(c.Query("date"))
	if err != nil {
		return opts, err
	}
	opts.ForecastDate = date

	if raw := c.Query("lookback_days"); raw != "" {
		lookback, err := strconv.Atoi(raw)
		if err != nil || lookback <= 0 || lookback > forecast.MaxLookbackDays {
			return opts, fmt.Errorf("lookback_days must be between 1 and %d", forecast.MaxLookbackDays)
		}
		opts.LookbackDays = lookback
	}

	if raw := c.Query("include_events"); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			return opts, fmt.Errorf("include_events must be true or false")
		}
		opts.IncludeEventAdjustment = &include
	}

	return opts, nil
}

func parseBatchOptions(c *gin.Context) (domain.BatchForecastOptions, error) {
	single, err := parseForecastOptions(c)
	if err != nil {
		return domain.BatchForecastOptions{}, err
	}

	opts := domain.BatchForecastOptions{ForecastOptions: single}
	for _, raw := range c.QueryArray("categories") {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			category, ok := domain.ParseCategory(part)
			if !ok {
				return opts, fmt.Errorf("unknown category %q", part)
			}
			opts.Categories = append(opts.Categories, category)
		}
	}

	return opts, nil
}

func respondServiceError(c *gin.Context, err error, message string) {
	if errors.Is(err, domain.ErrProductNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if errors.Is(err, domain.ErrInvalidInventory) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	log.Error().Err(err).Str("path", c.Request.URL.Path).Msg(message)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   message,
		"details": err.Error(),
	})
}

func optionalDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	day, err := domain.ParseDate(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return day, nil
}
