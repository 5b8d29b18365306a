package probe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/trackscan/trackscan/config"
	"github.com/trackscan/trackscan/models"
)

const probePage = `<html><head>
<title>Demo Exchange</title>
<script src="https://cdn.cookie3.co/sdk.js"></script>
<script src="/static/app.js"></script>
<script>window.analytics = [];</script>
</head><body><h1>hi</h1></body></html>`

func testConfig() config.ProbeConfig {
	return config.ProbeConfig{
		Timeout:   5 * time.Second,
		UserAgent: "Mozilla/5.0 test",
	}
}

func TestProbe_ExtractsStaticSignals(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(probePage))
	}))
	defer srv.Close()

	result, err := New(testConfig()).Probe(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Probe returned error: %v", err)
	}

	if result.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", result.StatusCode)
	}
	if result.Title != "Demo Exchange" {
		t.Errorf("Title = %q", result.Title)
	}
	if len(result.Scripts) != 2 {
		t.Fatalf("retained %d scripts, want 2: %+v", len(result.Scripts), result.Scripts)
	}
	if result.Scripts[0].Src != "https://cdn.cookie3.co/sdk.js" {
		t.Errorf("Scripts[0].Src = %q", result.Scripts[0].Src)
	}
	if result.Scripts[1].Content != "window.analytics = [];" {
		t.Errorf("Scripts[1].Content = %q", result.Scripts[1].Content)
	}
	if len(result.Fingerprint) != 16 {
		t.Errorf("Fingerprint = %q, want 16 hex chars", result.Fingerprint)
	}
}

func TestProbe_ErrorStatusStillReported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	result, err := New(testConfig()).Probe(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("a served error page is still a probe result, got error: %v", err)
	}
	if result.StatusCode != http.StatusForbidden {
		t.Errorf("StatusCode = %d, want 403", result.StatusCode)
	}
}

func TestProbe_UnreachableHostFails(t *testing.T) {
	cfg := testConfig()
	cfg.Timeout = 500 * time.Millisecond

	_, err := New(cfg).Probe(context.Background(), "http://127.0.0.1:1")
	if err == nil {
		t.Fatal("expected error for unreachable host")
	}
	var ae *models.AnalysisError
	if !errors.As(err, &ae) || ae.Code != models.ErrCodeProbe {
		t.Errorf("err = %v, want %s", err, models.ErrCodeProbe)
	}
}

func TestProbe_FingerprintStableAcrossFetches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(probePage))
	}))
	defer srv.Close()

	p := New(testConfig())
	first, err := p.Probe(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("first probe: %v", err)
	}
	second, err := p.Probe(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("second probe: %v", err)
	}
	if first.Fingerprint != second.Fingerprint {
		t.Errorf("same page produced different fingerprints: %s vs %s",
			first.Fingerprint, second.Fingerprint)
	}
}

func TestExtractTitle_None(t *testing.T) {
	if got := extractTitle("<html><body>untitled</body></html>"); got != "" {
		t.Errorf("extractTitle = %q, want empty", got)
	}
}

func TestExtractScripts_CaseSensitive(t *testing.T) {
	html := `<script src="https://x.com/Analytics.js"></script>` +
		`<script src="https://x.com/analytics.js"></script>`

	scripts := extractScripts(html)
	if len(scripts) != 1 {
		t.Fatalf("retained %d scripts, want 1", len(scripts))
	}
	if scripts[0].Src != "https://x.com/analytics.js" {
		t.Errorf("retained wrong script: %q", scripts[0].Src)
	}
}
