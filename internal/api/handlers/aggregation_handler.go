package handlers

import (
	"net/http"
	"strconv"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/jobs"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type AggregationHandler struct {
	job *jobs.AggregationJob
}

func NewAggregationHandler(job *jobs.AggregationJob) *AggregationHandler {
	return &AggregationHandler{job: job}
}

type aggregationRequest struct {
	Date string `json:"date"`
}

// RunAggregation handles POST /aggregations. An empty body aggregates yesterday.
func (h *AggregationHandler) RunAggregation(c *gin.Context) {
	var req aggregationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
			return
		}
	}

	day, err := optionalDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.job.AggregateDailySales(c.Request.Context(), day)
	if err != nil {
		log.Error().Err(err).Msg("aggregation request failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "aggregation finished with errors",
			"details": err.Error(),
			"result":  result,
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListRuns handles GET /aggregations/runs
func (h *AggregationHandler) ListRuns(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}
	if limit > 200 {
		limit = 200
	}

	runs, err := h.job.RecentRuns(c.Request.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to list aggregation runs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list aggregation runs", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

// GetRun handles GET /aggregations/runs/:date
func (h *AggregationHandler) GetRun(c *gin.Context) {
	day, err := domain.ParseDate(c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	run, err := h.job.RunForDate(c.Request.Context(), day)
	if err != nil {
		log.Error().Err(err).Msg("failed to get aggregation run")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get aggregation run", "details": err.Error()})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no aggregation run for " + day.Format(domain.DateLayout)})
		return
	}

	c.JSON(http.StatusOK, run)
}
