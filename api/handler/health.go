package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/trackscan/trackscan/models"
)

// Health returns a handler for GET /api/v1/health.
//
// Status degrades when the browser connection is gone; the process keeps
// serving reports and records either way.
func Health(an Analyzer) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		if !an.Ready() {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:       status,
			Uptime:       an.Uptime().Round(time.Second).String(),
			AnalyzedURLs: an.AnalyzedCount(),
			BrowserReady: an.Ready(),
			Version:      "0.1.0",
		})
	}
}
