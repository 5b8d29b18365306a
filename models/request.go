package models

// AnalyzeRequest is the payload for POST /api/v1/analyze.
type AnalyzeRequest struct {
	// URL is the target page to analyze. Required, absolute.
	URL string `json:"url" binding:"required,url"`

	// Stealth enables anti-bot-detection evasions for this session
	// (navigator.webdriver masking and friends). A page that refuses to
	// load for "automated" browsers skews every downstream signal, so
	// investigations of defensive sites usually want this on.
	// Default: the server's TRACKSCAN_STEALTH setting.
	Stealth *bool `json:"stealth,omitempty"`

	// PageSnapshot writes a Markdown snapshot of the rendered page's main
	// content next to the screenshot.
	// Default: the server's TRACKSCAN_PAGE_SNAPSHOT setting.
	PageSnapshot *bool `json:"page_snapshot,omitempty"`
}

// ProbeRequest is the payload for POST /api/v1/probe.
type ProbeRequest struct {
	// URL is the page whose served HTML should be inspected. Required.
	URL string `json:"url" binding:"required,url"`
}
