package models

import "time"

// AnalysisRecord holds every observation collected for one URL in one
// browser session. JSON field names match the on-disk results format,
// so records round-trip between the API, the results files, and the
// aggregate report without translation.
type AnalysisRecord struct {
	// URL is the target page as passed to Analyze.
	URL string `json:"url"`

	// Timestamp is the record creation time, RFC 3339 UTC.
	Timestamp string `json:"timestamp"`

	// TrackingScripts are the script elements whose src or inline body
	// matched the tracking keyword list.
	TrackingScripts []TrackingScript `json:"trackingScripts"`

	// NetworkRequests are the intercepted requests whose URL matched the
	// request keyword list. Requests observed before a mid-session failure
	// are retained.
	NetworkRequests []NetworkRequest `json:"networkRequests"`

	// Cookies are the cookies visible to the session whose name or domain
	// matched the cookie keyword list.
	Cookies []Cookie `json:"cookies"`

	// LocalStorage is the full, unfiltered localStorage of the page.
	LocalStorage map[string]string `json:"localStorage"`

	// Fingerprinting reports which instrumented browser APIs the page
	// invoked during load.
	Fingerprinting FingerprintFlags `json:"fingerprinting"`

	// WalletTracking reports injected-provider access and wallet-related
	// markup patterns.
	WalletTracking WalletTracking `json:"walletTracking"`

	// Errors holds the single failure message when navigation or
	// extraction failed. Empty on a clean run.
	Errors []string `json:"errors,omitempty"`
}

// TrackingScript is one matched script element.
type TrackingScript struct {
	// Src is the script's source URL; empty for inline scripts.
	Src string `json:"src"`

	// Content is the inline script body; empty for external scripts.
	Content string `json:"content"`
}

// NetworkRequest is one intercepted request that matched the request
// keyword list. The request was allowed to proceed unmodified.
type NetworkRequest struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body,omitempty"`

	// Category is "cookie3", "analytics", "tracking", or "other",
	// assigned in that precedence order.
	Category string `json:"category"`
}

// Cookie describes one tracking-relevant cookie.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
}

// FingerprintFlags marks which fingerprinting-capable APIs the page called.
// Fonts has no observer and stays false; it is kept so the record schema
// matches the results files this tool has always produced.
type FingerprintFlags struct {
	Canvas bool `json:"canvas"`
	WebGL  bool `json:"webgl"`
	Fonts  bool `json:"fonts"`
	Audio  bool `json:"audio"`
}

// Any reports whether any instrumented API was observed.
func (f FingerprintFlags) Any() bool {
	return f.Canvas || f.WebGL || f.Fonts || f.Audio
}

// WalletTracking reports evidence that the page reads from or subscribes
// to an injected cryptocurrency wallet provider.
type WalletTracking struct {
	Detected bool `json:"detected"`

	// Methods lists one identifier per piece of evidence: the provider
	// global when present, plus each matched markup pattern. Entries are
	// appended in detection order and are not deduplicated.
	Methods []string `json:"methods"`
}

// NewAnalysisRecord creates a record with the creation timestamp set and
// every collection non-nil, so a failed session still serializes with all
// declared fields present.
func NewAnalysisRecord(url string) *AnalysisRecord {
	return &AnalysisRecord{
		URL:             url,
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		TrackingScripts: []TrackingScript{},
		NetworkRequests: []NetworkRequest{},
		Cookies:         []Cookie{},
		LocalStorage:    map[string]string{},
		WalletTracking:  WalletTracking{Methods: []string{}},
	}
}
