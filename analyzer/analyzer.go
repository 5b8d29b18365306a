// Package analyzer drives headless browser sessions against target pages and
// collects tracking-relevant signals: matched network requests, tracking
// scripts, fingerprinting API usage, storage state, and wallet-provider
// access. Records accumulate in memory for the process lifetime and feed the
// aggregate report.
package analyzer

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/trackscan/trackscan/config"
	"github.com/trackscan/trackscan/models"
)

// Analyzer owns the browser process and the accumulated result set. Each
// Analyze call runs in its own isolated browsing context; sessions never
// share page state. Safe for concurrent use, though sessions are serialized.
type Analyzer struct {
	browser *rod.Browser
	cfg     config.AnalyzerConfig

	// runMu serializes sessions: one browser session at a time, torn down
	// before the next begins.
	runMu sync.Mutex

	// mu guards results.
	mu      sync.RWMutex
	results *models.ResultSet

	startTime time.Time
	closed    atomic.Bool
}

// Options override per-session behavior. Nil fields fall back to the
// analyzer configuration.
type Options struct {
	Stealth      *bool
	PageSnapshot *bool
}

// New launches a headless browser and returns an Analyzer ready to run
// sessions against it.
func New(browserCfg config.BrowserConfig, cfg config.AnalyzerConfig) (*Analyzer, error) {
	l := launcher.New().
		Headless(browserCfg.Headless).
		NoSandbox(browserCfg.NoSandbox)

	if browserCfg.BrowserBin != "" {
		l = l.Bin(browserCfg.BrowserBin)
	}
	if browserCfg.Proxy != "" {
		l = l.Proxy(browserCfg.Proxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-ipc-flooding-protection"))
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-prompt-on-repost"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewAnalysisError(
			models.ErrCodeBrowserCrash,
			"failed to launch browser",
			err,
		)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewAnalysisError(
			models.ErrCodeBrowserCrash,
			"failed to connect to browser",
			err,
		)
	}

	return &Analyzer{
		browser:   browser,
		cfg:       cfg,
		results:   models.NewResultSet(),
		startTime: time.Now(),
	}, nil
}

// Analyze runs one full session against url with the configured defaults and
// returns the record for that URL. Navigation, instrumentation, and
// extraction failures are recorded on the record's errors field, never
// returned; the error is non-nil only when the analyzer itself can no longer
// run sessions.
func (a *Analyzer) Analyze(ctx context.Context, url string) (*models.AnalysisRecord, error) {
	return a.AnalyzeWithOptions(ctx, url, Options{})
}

// AnalyzeWithOptions is Analyze with per-session overrides.
func (a *Analyzer) AnalyzeWithOptions(ctx context.Context, url string, opts Options) (*models.AnalysisRecord, error) {
	if a.closed.Load() {
		return nil, models.NewAnalysisError(models.ErrCodeSession, "analyzer is closed", nil)
	}

	a.runMu.Lock()
	defer a.runMu.Unlock()

	start := time.Now()
	rec := models.NewAnalysisRecord(url)

	if err := a.runSession(ctx, rec, a.resolveOptions(opts)); err != nil {
		slog.Error("analysis failed", "url", url, "error", err)
		rec.Errors = []string{err.Error()}
	}

	a.mu.Lock()
	a.results.Add(rec)
	a.mu.Unlock()

	// Every call persists the full accumulated set, failed sessions included.
	a.persistResults()

	slog.Info("analysis complete",
		"url", url,
		"durationMs", time.Since(start).Milliseconds(),
		"requests", len(rec.NetworkRequests),
		"scripts", len(rec.TrackingScripts),
		"wallet", rec.WalletTracking.Detected,
	)
	return rec, nil
}

// resolveOptions applies per-call overrides on top of the configured
// defaults.
func (a *Analyzer) resolveOptions(opts Options) sessionOptions {
	so := sessionOptions{
		stealth:      a.cfg.Stealth,
		pageSnapshot: a.cfg.PageSnapshot,
	}
	if opts.Stealth != nil {
		so.stealth = *opts.Stealth
	}
	if opts.PageSnapshot != nil {
		so.pageSnapshot = *opts.PageSnapshot
	}
	return so
}

// Report builds the aggregate summary over everything analyzed so far. It is
// a pure read: calling it twice without an intervening Analyze yields
// identical output.
func (a *Analyzer) Report() *models.AggregateReport {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return buildReport(a.results.Clone())
}

// Record returns the stored record for url, or nil when the URL was never
// analyzed.
func (a *Analyzer) Record(url string) *models.AnalysisRecord {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.results.Get(url)
}

// Records returns all records in first-analysis order.
func (a *Analyzer) Records() []*models.AnalysisRecord {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.results.Records()
}

// AnalyzedCount returns the number of distinct analyzed URLs.
func (a *Analyzer) AnalyzedCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.results.Len()
}

// Uptime reports how long the analyzer has been running.
func (a *Analyzer) Uptime() time.Duration {
	return time.Since(a.startTime)
}

// Ready reports whether the analyzer can still run sessions.
func (a *Analyzer) Ready() bool {
	return !a.closed.Load()
}

// Close kills the browser process. Call this on shutdown to prevent zombie
// Chrome processes. Safe to call more than once.
func (a *Analyzer) Close() {
	if a.closed.Swap(true) {
		return
	}
	slog.Info("analyzer shutting down: closing browser")
	a.browser.MustClose()
	slog.Info("analyzer shutdown complete")
}
