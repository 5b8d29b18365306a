package analyzer

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/trackscan/trackscan/models"
	"github.com/trackscan/trackscan/snapshot"
)

// Artifact writes are best effort: a failed screenshot, snapshot, or results
// write is logged and swallowed, and never alters the record or the errors
// field. Directories are created on demand.

// saveScreenshot captures a full-page image and writes it under the
// screenshot directory, named after the sanitized URL and record timestamp.
func (a *Analyzer) saveScreenshot(p *rod.Page, rec *models.AnalysisRecord) {
	bin, err := p.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		slog.Error("screenshot capture failed", "url", rec.URL, "error", err)
		return
	}

	if err := os.MkdirAll(a.cfg.ScreenshotDir, 0o755); err != nil {
		slog.Error("screenshot directory creation failed",
			"dir", a.cfg.ScreenshotDir, "error", err,
		)
		return
	}

	path := filepath.Join(a.cfg.ScreenshotDir, screenshotName(rec.URL, rec.Timestamp))
	if err := os.WriteFile(path, bin, 0o644); err != nil {
		slog.Error("screenshot write failed", "path", path, "error", err)
		return
	}
	slog.Debug("screenshot saved", "path", path)
}

// savePageSnapshot renders the page's main content to Markdown next to the
// other artifacts.
func (a *Analyzer) savePageSnapshot(html string, rec *models.AnalysisRecord) {
	md, err := snapshot.Render(html, rec.URL)
	if err != nil {
		slog.Error("page snapshot rendering failed", "url", rec.URL, "error", err)
		return
	}

	name := sanitizeURLName(rec.URL) + "_" + sanitizeTimestamp(rec.Timestamp) + ".md"
	if err := snapshot.Write(a.cfg.SnapshotDir, name, md); err != nil {
		slog.Error("page snapshot write failed", "url", rec.URL, "error", err)
		return
	}
	slog.Debug("page snapshot saved", "url", rec.URL, "name", name)
}

// persistResults writes the full accumulated result set, pretty-printed, to
// a fresh timestamped file. Every call produces a new snapshot file
// superseding the previous one, so a run over N URLs leaves N files, each a
// superset of the last.
func (a *Analyzer) persistResults() {
	a.mu.RLock()
	data, err := json.MarshalIndent(a.results, "", "  ")
	urls := a.results.Len()
	a.mu.RUnlock()
	if err != nil {
		slog.Error("results encoding failed", "error", err)
		return
	}

	if err := os.MkdirAll(a.cfg.ResultsDir, 0o755); err != nil {
		slog.Error("results directory creation failed",
			"dir", a.cfg.ResultsDir, "error", err,
		)
		return
	}

	path := filepath.Join(a.cfg.ResultsDir, resultsFileName(nowStamp()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		slog.Error("results write failed", "path", path, "error", err)
		return
	}
	slog.Debug("results persisted", "path", path, "urls", urls)
}

// screenshotName builds the screenshot filename from a sanitized URL and a
// sanitized timestamp.
func screenshotName(url, timestamp string) string {
	return sanitizeURLName(url) + "_" + sanitizeTimestamp(timestamp) + ".png"
}

// resultsFileName builds the results filename from a sanitized timestamp.
func resultsFileName(timestamp string) string {
	return "analysis_results_" + sanitizeTimestamp(timestamp) + ".json"
}

// sanitizeURLName lowercases the URL and replaces every character outside
// [a-z0-9] with an underscore, yielding a filesystem-safe name for any
// input.
func sanitizeURLName(url string) string {
	lower := strings.ToLower(url)
	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// sanitizeTimestamp replaces the ':' and '.' of an ISO-8601 timestamp with
// '-' so it can appear in a filename.
func sanitizeTimestamp(ts string) string {
	return strings.NewReplacer(":", "-", ".", "-").Replace(ts)
}

// nowStamp returns the current UTC time in ISO-8601 with millisecond
// precision, so back-to-back persistence calls land in distinct files.
func nowStamp() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
