package models

// AnalyzeResponse is the response for POST /api/v1/analyze.
type AnalyzeResponse struct {
	// Success indicates the analysis ran to completion. A record whose
	// Errors field is populated still counts as success — the failure
	// policy records page-level errors instead of failing the call.
	Success bool `json:"success"`

	// DurationMs is the end-to-end analysis time in milliseconds.
	DurationMs int64 `json:"duration_ms"`

	// Record is the full analysis record for the URL.
	Record *AnalysisRecord `json:"record,omitempty"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// ProbeResponse is the response for POST /api/v1/probe.
type ProbeResponse struct {
	Success bool         `json:"success"`
	Probe   *StaticProbe `json:"probe,omitempty"`
	Cached  bool         `json:"cached,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// StaticProbe is the result of a browserless inspection of a page's served
// HTML. It sees only what the server sends — scripts injected at runtime
// are invisible to it, which is exactly what makes it useful as a baseline
// against the full browser analysis.
type StaticProbe struct {
	// URL is the probed page.
	URL string `json:"url"`

	// StatusCode is the HTTP status of the fetch.
	StatusCode int `json:"statusCode"`

	// Title is the page title from the served HTML, if any.
	Title string `json:"title,omitempty"`

	// Scripts are the script elements in the served HTML that matched the
	// tracking keyword list.
	Scripts []TrackingScript `json:"scripts"`

	// Fingerprint is a 64-bit structural hash of the served markup,
	// hex-encoded. Two probes of the same page with different fingerprints
	// mean the served shell changed between them.
	Fingerprint string `json:"fingerprint"`

	// DurationMs is the fetch+parse time in milliseconds.
	DurationMs int64 `json:"duration_ms"`
}

// RecordSummary is one row of GET /api/v1/records.
type RecordSummary struct {
	URL             string `json:"url"`
	Timestamp       string `json:"timestamp"`
	TrackingScripts int    `json:"tracking_scripts"`
	NetworkRequests int    `json:"network_requests"`
	Cookies         int    `json:"cookies"`
	Fingerprinting  bool   `json:"fingerprinting"`
	WalletTracking  bool   `json:"wallet_tracking"`
	Failed          bool   `json:"failed"`
}

// RecordsResponse is the response for GET /api/v1/records.
type RecordsResponse struct {
	Count   int             `json:"count"`
	Records []RecordSummary `json:"records"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status       string `json:"status"` // "healthy" or "degraded"
	Uptime       string `json:"uptime"`
	AnalyzedURLs int    `json:"analyzed_urls"`
	BrowserReady bool   `json:"browser_ready"`
	Version      string `json:"version"`
}
