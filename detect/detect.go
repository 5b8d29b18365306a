// Package detect holds the fixed signal catalogs and the matching rules
// applied to observed page state. All matching is plain case-sensitive
// substring matching — the catalogs below are literal fragments, not
// patterns, and the same fragment lists drive both the browser analyzer
// and the static probe.
package detect

import "strings"

// Request categories, in precedence order.
const (
	CategoryCookie3   = "cookie3"
	CategoryAnalytics = "analytics"
	CategoryTracking  = "tracking"
	CategoryOther     = "other"
)

// WalletProviderID identifies the injected provider global in a record's
// wallet methods list.
const WalletProviderID = "window.ethereum"

// requestKeywords select which intercepted requests get recorded.
var requestKeywords = []string{
	"cookie3.co",
	"analytics",
	"tracking",
	"collect",
	"wallet",
}

// scriptKeywords select which script elements get retained.
var scriptKeywords = []string{
	"cookie3",
	"analytics",
	"tracking",
	"wallet",
	"web3",
}

// cookieKeywords select which cookies get retained, matched against both
// name and domain.
var cookieKeywords = []string{
	"cookie3",
	"analytics",
	"_ga",
	"track",
}

// walletMarkupPatterns are literal fragments whose presence in rendered
// markup indicates wallet-provider access. Matched fragments are recorded
// verbatim as method identifiers.
var walletMarkupPatterns = []string{
	"accountsChanged",
	"ethereum.on(",
	"wallet.on(",
	"web3",
}

// MatchRequestURL reports whether an intercepted request URL is worth
// recording.
func MatchRequestURL(url string) bool {
	for _, kw := range requestKeywords {
		if strings.Contains(url, kw) {
			return true
		}
	}
	return false
}

// CategorizeRequest assigns the coarse category for a recorded request.
// Checks run in fixed precedence order: a URL containing both "cookie3.co"
// and "analytics" is categorized cookie3.
func CategorizeRequest(url string) string {
	switch {
	case strings.Contains(url, "cookie3.co"):
		return CategoryCookie3
	case strings.Contains(url, "analytics"):
		return CategoryAnalytics
	case strings.Contains(url, "tracking"):
		return CategoryTracking
	default:
		return CategoryOther
	}
}

// MatchScript reports whether a script element should be retained, based
// on its source URL or inline body.
func MatchScript(src, content string) bool {
	for _, kw := range scriptKeywords {
		if strings.Contains(src, kw) || strings.Contains(content, kw) {
			return true
		}
	}
	return false
}

// MatchCookie reports whether a cookie is tracking-relevant by name or
// domain.
func MatchCookie(name, domain string) bool {
	for _, kw := range cookieKeywords {
		if strings.Contains(name, kw) || strings.Contains(domain, kw) {
			return true
		}
	}
	return false
}

// ScanWalletMarkup returns the wallet markup fragments present in the
// rendered document, in catalog order. Each fragment appears at most once
// per scan; overlap with other evidence (e.g. the provider global) is not
// deduplicated by callers.
func ScanWalletMarkup(html string) []string {
	var matched []string
	for _, p := range walletMarkupPatterns {
		if strings.Contains(html, p) {
			matched = append(matched, p)
		}
	}
	return matched
}
