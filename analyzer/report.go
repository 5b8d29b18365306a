package analyzer

import (
	"strings"

	"github.com/trackscan/trackscan/detect"
	"github.com/trackscan/trackscan/models"
)

// buildReport tallies the aggregate summary over a result set. It reads the
// set once and never mutates it.
//
// The googleAnalytics and customTracking counters are part of the report
// schema but have no tallying rule; they stay zero.
func buildReport(rs *models.ResultSet) *models.AggregateReport {
	report := &models.AggregateReport{
		AnalyzedURLs: rs.Len(),
		Details:      rs,
	}

	for _, rec := range rs.Records() {
		if recordHasCookie3(rec) {
			report.TrackingImplementations.Cookie3++
		}
		if rec.Fingerprinting.Any() {
			report.FingerprintingDetected++
		}
		if rec.WalletTracking.Detected {
			report.WalletTrackingDetected++
		}
	}
	return report
}

// recordHasCookie3 reports whether a record carries cookie3 evidence: a
// network request categorized cookie3, or a retained script mentioning it.
func recordHasCookie3(rec *models.AnalysisRecord) bool {
	for _, r := range rec.NetworkRequests {
		if r.Category == detect.CategoryCookie3 {
			return true
		}
	}
	for _, s := range rec.TrackingScripts {
		if strings.Contains(s.Src, "cookie3") || strings.Contains(s.Content, "cookie3") {
			return true
		}
	}
	return false
}
