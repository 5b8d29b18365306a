package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/trackscan/trackscan/analyzer"
	"github.com/trackscan/trackscan/config"
	"github.com/trackscan/trackscan/models"
	"github.com/trackscan/trackscan/webhook"
)

// Analyzer is the analysis surface the API exposes. *analyzer.Analyzer
// satisfies it.
type Analyzer interface {
	AnalyzeWithOptions(ctx context.Context, url string, opts analyzer.Options) (*models.AnalysisRecord, error)
	Report() *models.AggregateReport
	Records() []*models.AnalysisRecord
	AnalyzedCount() int
	Uptime() time.Duration
	Ready() bool
}

// Analyze returns a handler for POST /api/v1/analyze.
//
// Page-level failures (navigation, evaluation) do not fail the call: the
// record comes back with its errors field populated and success stays true.
// Only a rejected request or an unusable analyzer produce an error response.
func Analyze(an Analyzer, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var req models.AnalyzeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.AnalyzeResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		rec, err := an.AnalyzeWithOptions(c.Request.Context(), req.URL, analyzer.Options{
			Stealth:      req.Stealth,
			PageSnapshot: req.PageSnapshot,
		})
		if err != nil {
			respondError(c, err, time.Since(start).Milliseconds())
			return
		}

		if cfg.Webhook.URL != "" {
			webhook.DeliverAsync(cfg.Webhook.URL, cfg.Webhook.Secret,
				webhook.NewEvent(webhook.EventAnalysisCompleted, rec))
		}

		c.JSON(http.StatusOK, models.AnalyzeResponse{
			Success:    true,
			DurationMs: time.Since(start).Milliseconds(),
			Record:     rec,
		})
	}
}

// respondError maps an AnalysisError to the correct HTTP status code and
// writes a structured JSON error response.
func respondError(c *gin.Context, err error, durationMs int64) {
	analysisErr, ok := err.(*models.AnalysisError)
	if !ok {
		analysisErr = models.NewAnalysisError(models.ErrCodeInternal, err.Error(), err)
	}

	c.JSON(mapErrorToStatus(analysisErr), models.AnalyzeResponse{
		Success:    false,
		DurationMs: durationMs,
		Error:      analysisErr.ToDetail(),
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.AnalysisError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation, models.ErrCodeProbe:
		return http.StatusBadGateway // 502
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	case models.ErrCodeSession:
		return http.StatusServiceUnavailable // 503, analyzer shut down
	default:
		return http.StatusInternalServerError // 500
	}
}
