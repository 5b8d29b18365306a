package models

// AggregateReport summarizes every record analyzed so far. It is computed
// fresh on each request and never stored.
type AggregateReport struct {
	// AnalyzedURLs is the number of distinct URLs in the result set.
	AnalyzedURLs int `json:"analyzedUrls"`

	// TrackingImplementations tallies per-vendor detections.
	TrackingImplementations TrackingTally `json:"trackingImplementations"`

	// FingerprintingDetected counts records with any fingerprint flag set.
	FingerprintingDetected int `json:"fingerprintingDetected"`

	// WalletTrackingDetected counts records with walletTracking.detected.
	WalletTrackingDetected int `json:"walletTrackingDetected"`

	// Details is the full result set, keyed by URL in analysis order.
	Details *ResultSet `json:"details"`
}

// TrackingTally counts per-vendor tracking detections across records.
// GoogleAnalytics and CustomTracking are part of the report schema but have
// no tallying rule; they are always zero.
type TrackingTally struct {
	Cookie3         int `json:"cookie3"`
	GoogleAnalytics int `json:"googleAnalytics"`
	CustomTracking  int `json:"customTracking"`
}
