package analyzer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/trackscan/trackscan/models"
)

// sessionOptions is the resolved per-session behavior.
type sessionOptions struct {
	stealth      bool
	pageSnapshot bool
}

// runSession drives one isolated browser session against rec.URL and fills
// rec in place. The returned error is the single failure the caller records;
// observations collected before the failure stay on the record.
//
// Lifecycle (numbered steps match the inline comments):
//
//	1. Timeout guard        - hard deadline on the entire session
//	2. Browsing context     - fresh incognito context, disposed on every path
//	3. Desktop identity     - fixed user agent + viewport
//	4. Instrumentation      - fingerprint hooks, optional stealth (before navigation!)
//	5. Request observer     - hijack mount (before navigation!)
//	6. Navigate + settle    - triggers page load, waits for the DOM to stop moving
//	7. Extraction battery   - flags, scripts, storage, cookies, wallet evidence
//	8. Artifacts            - screenshot and optional page snapshot (never fail the record)
//
// Steps 4-5 MUST happen before step 6: instrumentation and request
// interception only take effect for navigations that happen after they are
// installed. The request observer's defer snapshots whatever it saw into the
// record, so a session that dies at step 6 or 7 still keeps its traffic.
func (a *Analyzer) runSession(ctx context.Context, rec *models.AnalysisRecord, opts sessionOptions) error {
	// ── 1. Timeout guard ─────────────────────────────────────────────
	ctx, cancel := context.WithTimeout(ctx, a.cfg.NavigationTimeout)
	defer cancel()

	// ── 2. Fresh isolated browsing context for this call only ────────
	inc, err := a.browser.Incognito()
	if err != nil {
		return models.NewAnalysisError(
			models.ErrCodeSession,
			"failed to create browsing context",
			err,
		)
	}
	defer func() {
		_ = proto.TargetDisposeBrowserContext{
			BrowserContextID: inc.BrowserContextID,
		}.Call(a.browser)
	}()

	page, err := inc.Page(proto.TargetCreateTarget{})
	if err != nil {
		return models.NewAnalysisError(
			models.ErrCodeSession,
			"failed to open page",
			err,
		)
	}
	defer func() { _ = page.Close() }()

	// ── 3. Fixed desktop identity ────────────────────────────────────
	if err := (proto.NetworkSetUserAgentOverride{
		UserAgent: a.cfg.UserAgent,
	}).Call(page); err != nil {
		return models.NewAnalysisError(
			models.ErrCodeSession,
			"failed to set user agent",
			err,
		)
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             1920,
		Height:            1080,
		DeviceScaleFactor: 1,
	}); err != nil {
		return models.NewAnalysisError(
			models.ErrCodeSession,
			"failed to set viewport",
			err,
		)
	}

	// ── 4. Instrumentation, before navigation ────────────────────────
	if _, err := page.EvalOnNewDocument(fingerprintJS); err != nil {
		return models.NewAnalysisError(
			models.ErrCodeEvaluation,
			"failed to install fingerprint instrumentation",
			err,
		)
	}
	if opts.stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth",
				"error", evalErr,
			)
		}
	}

	// ── 5. Request observer, before navigation ───────────────────────
	obs := observeRequests(page)
	defer func() {
		obs.stop()
		rec.NetworkRequests = obs.requests()
	}()

	// ── 6. Navigate and let the page settle ──────────────────────────
	p := page.Context(ctx)
	if err := p.Navigate(rec.URL); err != nil {
		return categorizeError(err, "navigation to target URL failed")
	}
	// NOTE: WaitRequestIdle uses the Fetch domain which conflicts with
	// HijackRequests on Chromium 145+. Use WaitDOMStable instead.
	if stableErr := p.WaitDOMStable(300*time.Millisecond, 0.1); stableErr != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM",
			"error", stableErr,
		)
	}

	// ── 7. Extraction battery ────────────────────────────────────────
	// First failure wins; everything extracted before it stays on the record.
	flags, err := readFingerprintFlags(p)
	if err != nil {
		return models.NewAnalysisError(
			models.ErrCodeEvaluation,
			"failed to read fingerprint flags",
			err,
		)
	}
	rec.Fingerprinting = flags

	html, err := p.HTML()
	if err != nil {
		return models.NewAnalysisError(
			models.ErrCodeEvaluation,
			"failed to extract page HTML",
			err,
		)
	}

	scripts, err := inspectScripts(html)
	if err != nil {
		return models.NewAnalysisError(
			models.ErrCodeEvaluation,
			"failed to inspect script elements",
			err,
		)
	}
	rec.TrackingScripts = scripts

	storage, err := readLocalStorage(p)
	if err != nil {
		return models.NewAnalysisError(
			models.ErrCodeEvaluation,
			"failed to read localStorage",
			err,
		)
	}
	rec.LocalStorage = storage

	cookies, err := p.Cookies(nil)
	if err != nil {
		return models.NewAnalysisError(
			models.ErrCodeEvaluation,
			"failed to read cookies",
			err,
		)
	}
	rec.Cookies = filterCookies(cookies)

	provider, err := detectWalletProvider(p)
	if err != nil {
		return models.NewAnalysisError(
			models.ErrCodeEvaluation,
			"failed to probe wallet provider",
			err,
		)
	}
	rec.WalletTracking = collectWalletEvidence(provider, html)

	// ── 8. Artifacts ─────────────────────────────────────────────────
	// Failures here are logged and swallowed; they never reach the record.
	a.saveScreenshot(p, rec)
	if opts.pageSnapshot {
		a.savePageSnapshot(html, rec)
	}

	return nil
}

// categorizeError wraps raw session errors into typed AnalysisErrors so the
// record and the API layer can distinguish timeouts from navigation failures.
func categorizeError(err error, msg string) *models.AnalysisError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewAnalysisError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewAnalysisError(models.ErrCodeTimeout, "analysis canceled", err)
	default:
		return models.NewAnalysisError(models.ErrCodeNavigation, msg, err)
	}
}
