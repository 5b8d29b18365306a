package analyzer

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod/lib/proto"
	"github.com/trackscan/trackscan/detect"
	"github.com/trackscan/trackscan/models"
)

// inspectScripts enumerates every script element in the rendered document
// and retains the ones whose source URL or inline body matches the script
// keyword list. The rendered DOM is used rather than the raw response, so
// dynamically injected trackers are seen too.
func inspectScripts(html string) ([]models.TrackingScript, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	scripts := []models.TrackingScript{}
	doc.Find("script").Each(func(_ int, sel *goquery.Selection) {
		src := sel.AttrOr("src", "")
		content := sel.Text()
		if detect.MatchScript(src, content) {
			scripts = append(scripts, models.TrackingScript{
				Src:     src,
				Content: content,
			})
		}
	})
	return scripts, nil
}

// filterCookies keeps the cookies whose name or domain matches the cookie
// keyword list and converts them to the record shape.
func filterCookies(cookies []*proto.NetworkCookie) []models.Cookie {
	out := []models.Cookie{}
	for _, c := range cookies {
		if !detect.MatchCookie(c.Name, c.Domain) {
			continue
		}
		out = append(out, models.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  float64(c.Expires),
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
		})
	}
	return out
}

// collectWalletEvidence merges the provider-global check with the markup
// scan. Each piece of evidence appends its own identifier; overlapping
// evidence is kept, not deduplicated.
func collectWalletEvidence(providerPresent bool, html string) models.WalletTracking {
	wt := models.WalletTracking{Methods: []string{}}
	if providerPresent {
		wt.Detected = true
		wt.Methods = append(wt.Methods, detect.WalletProviderID)
	}
	for _, m := range detect.ScanWalletMarkup(html) {
		wt.Detected = true
		wt.Methods = append(wt.Methods, m)
	}
	return wt
}
