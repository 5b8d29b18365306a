package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/trackscan/trackscan/models"
)

// Report returns a handler for GET /api/v1/report.
//
// The report is rebuilt from the result set on every call, so repeated
// reads always agree with the records analyzed so far.
func Report(an Analyzer) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, an.Report())
	}
}

// Records returns a handler for GET /api/v1/records: one summary row per
// analyzed URL, in analysis order, without the full evidence payloads.
func Records(an Analyzer) gin.HandlerFunc {
	return func(c *gin.Context) {
		recs := an.Records()
		rows := make([]models.RecordSummary, 0, len(recs))
		for _, rec := range recs {
			rows = append(rows, models.RecordSummary{
				URL:             rec.URL,
				Timestamp:       rec.Timestamp,
				TrackingScripts: len(rec.TrackingScripts),
				NetworkRequests: len(rec.NetworkRequests),
				Cookies:         len(rec.Cookies),
				Fingerprinting:  rec.Fingerprinting.Any(),
				WalletTracking:  rec.WalletTracking.Detected,
				Failed:          len(rec.Errors) > 0,
			})
		}
		c.JSON(http.StatusOK, models.RecordsResponse{
			Count:   len(rows),
			Records: rows,
		})
	}
}
