package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/trackscan/trackscan/cache"
	"github.com/trackscan/trackscan/models"
)

// Prober is the static-probe surface the API exposes. *probe.Prober
// satisfies it.
type Prober interface {
	Probe(ctx context.Context, url string) (*models.StaticProbe, error)
}

// Probe returns a handler for POST /api/v1/probe.
//
// A probe runs without a browser, so it is cheap enough to expose even
// where full analyses are rate limited hard, and its result is cacheable
// (cc may be nil to disable caching). Non-2xx upstream statuses are
// results, not errors; only transport failures reach the error path.
func Probe(pr Prober, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ProbeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ProbeResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		if cc != nil {
			if cached, hit := cc.Get(req.URL); hit {
				c.JSON(http.StatusOK, models.ProbeResponse{
					Success: true,
					Probe:   cached,
					Cached:  true,
				})
				return
			}
		}

		result, err := pr.Probe(c.Request.Context(), req.URL)
		if err != nil {
			analysisErr, ok := err.(*models.AnalysisError)
			if !ok {
				analysisErr = models.NewAnalysisError(models.ErrCodeInternal, err.Error(), err)
			}
			c.JSON(mapErrorToStatus(analysisErr), models.ProbeResponse{
				Success: false,
				Error:   analysisErr.ToDetail(),
			})
			return
		}

		if cc != nil {
			cc.Set(req.URL, result)
		}

		c.JSON(http.StatusOK, models.ProbeResponse{
			Success: true,
			Probe:   result,
		})
	}
}
