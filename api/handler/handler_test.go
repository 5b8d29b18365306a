package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/trackscan/trackscan/analyzer"
	"github.com/trackscan/trackscan/cache"
	"github.com/trackscan/trackscan/config"
	"github.com/trackscan/trackscan/models"
)

type stubAnalyzer struct {
	rec    *models.AnalysisRecord
	err    error
	report *models.AggregateReport
	recs   []*models.AnalysisRecord
	ready  bool
}

func (s *stubAnalyzer) AnalyzeWithOptions(_ context.Context, _ string, _ analyzer.Options) (*models.AnalysisRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.rec, nil
}

func (s *stubAnalyzer) Report() *models.AggregateReport { return s.report }

func (s *stubAnalyzer) Records() []*models.AnalysisRecord { return s.recs }

func (s *stubAnalyzer) AnalyzedCount() int { return len(s.recs) }

func (s *stubAnalyzer) Uptime() time.Duration { return 90 * time.Second }

func (s *stubAnalyzer) Ready() bool { return s.ready }

type stubProber struct {
	probe *models.StaticProbe
	err   error
}

func (s *stubProber) Probe(_ context.Context, _ string) (*models.StaticProbe, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.probe, nil
}

func newTestRouter(method, path string, h gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Handle(method, path, h)
	return r
}

func perform(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAnalyze_ReturnsRecord(t *testing.T) {
	an := &stubAnalyzer{rec: models.NewAnalysisRecord("https://example.com")}
	r := newTestRouter(http.MethodPost, "/analyze", Analyze(an, &config.Config{}))

	w := perform(t, r, http.MethodPost, "/analyze", `{"url":"https://example.com"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
	var resp models.AnalyzeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !resp.Success {
		t.Error("success = false, want true")
	}
	if resp.Record == nil || resp.Record.URL != "https://example.com" {
		t.Errorf("record = %+v, want record for https://example.com", resp.Record)
	}
}

func TestAnalyze_PageFailureIsStillSuccess(t *testing.T) {
	rec := models.NewAnalysisRecord("https://example.com")
	rec.Errors = []string{"navigation failed: net::ERR_NAME_NOT_RESOLVED"}
	an := &stubAnalyzer{rec: rec}
	r := newTestRouter(http.MethodPost, "/analyze", Analyze(an, &config.Config{}))

	w := perform(t, r, http.MethodPost, "/analyze", `{"url":"https://example.com"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp models.AnalyzeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !resp.Success {
		t.Error("success = false, want true for a record with page-level errors")
	}
	if len(resp.Record.Errors) != 1 {
		t.Errorf("record errors = %v, want the page-level error preserved", resp.Record.Errors)
	}
}

func TestAnalyze_RejectsInvalidBody(t *testing.T) {
	an := &stubAnalyzer{rec: models.NewAnalysisRecord("https://example.com")}
	r := newTestRouter(http.MethodPost, "/analyze", Analyze(an, &config.Config{}))

	w := perform(t, r, http.MethodPost, "/analyze", `{"url":"not a url"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var resp models.AnalyzeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != models.ErrCodeInvalidInput {
		t.Errorf("error = %+v, want code %s", resp.Error, models.ErrCodeInvalidInput)
	}
}

func TestAnalyze_ClosedAnalyzerIsUnavailable(t *testing.T) {
	an := &stubAnalyzer{err: models.NewAnalysisError(models.ErrCodeSession, "analyzer is closed", nil)}
	r := newTestRouter(http.MethodPost, "/analyze", Analyze(an, &config.Config{}))

	w := perform(t, r, http.MethodPost, "/analyze", `{"url":"https://example.com"}`)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	var resp models.AnalyzeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != models.ErrCodeSession {
		t.Errorf("error = %+v, want code %s", resp.Error, models.ErrCodeSession)
	}
}

func TestProbe_ReturnsResult(t *testing.T) {
	pr := &stubProber{probe: &models.StaticProbe{
		URL:         "https://example.com",
		StatusCode:  200,
		Fingerprint: "00000000deadbeef",
		Scripts:     []models.TrackingScript{},
	}}
	r := newTestRouter(http.MethodPost, "/probe", Probe(pr, nil))

	w := perform(t, r, http.MethodPost, "/probe", `{"url":"https://example.com"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
	var resp models.ProbeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !resp.Success || resp.Probe == nil || resp.Probe.StatusCode != 200 {
		t.Errorf("response = %+v, want successful probe with status 200", resp)
	}
	if resp.Cached {
		t.Error("cached = true on a fresh probe")
	}
}

func TestProbe_SecondCallHitsCache(t *testing.T) {
	pr := &stubProber{probe: &models.StaticProbe{URL: "https://example.com", StatusCode: 200}}
	cc := cache.New(4, time.Hour)
	r := newTestRouter(http.MethodPost, "/probe", Probe(pr, cc))

	perform(t, r, http.MethodPost, "/probe", `{"url":"https://example.com"}`)
	w := perform(t, r, http.MethodPost, "/probe", `{"url":"https://example.com"}`)

	var resp models.ProbeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !resp.Success || !resp.Cached {
		t.Errorf("response = %+v, want a cached hit on the second call", resp)
	}
}

func TestProbe_TransportFailureIsBadGateway(t *testing.T) {
	pr := &stubProber{err: models.NewAnalysisError(models.ErrCodeProbe, "request failed", nil)}
	r := newTestRouter(http.MethodPost, "/probe", Probe(pr, nil))

	w := perform(t, r, http.MethodPost, "/probe", `{"url":"https://example.com"}`)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
	var resp models.ProbeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != models.ErrCodeProbe {
		t.Errorf("error = %+v, want code %s", resp.Error, models.ErrCodeProbe)
	}
}

func TestRecords_SummarizesWithoutPayloads(t *testing.T) {
	ok := models.NewAnalysisRecord("https://a.example")
	ok.TrackingScripts = append(ok.TrackingScripts, models.TrackingScript{Src: "https://a.example/analytics.js"})
	ok.Fingerprinting.Canvas = true

	failed := models.NewAnalysisRecord("https://b.example")
	failed.Errors = []string{"analysis timed out after 30s"}

	an := &stubAnalyzer{recs: []*models.AnalysisRecord{ok, failed}}
	r := newTestRouter(http.MethodGet, "/records", Records(an))

	w := perform(t, r, http.MethodGet, "/records", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp models.RecordsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Count != 2 || len(resp.Records) != 2 {
		t.Fatalf("count = %d with %d rows, want 2 and 2", resp.Count, len(resp.Records))
	}
	first := resp.Records[0]
	if first.TrackingScripts != 1 || !first.Fingerprinting || first.Failed {
		t.Errorf("first row = %+v, want 1 script, fingerprinting, not failed", first)
	}
	if !resp.Records[1].Failed {
		t.Errorf("second row = %+v, want failed", resp.Records[1])
	}
}

func TestReport_PassesThroughAggregate(t *testing.T) {
	rs := models.NewResultSet()
	rs.Add(models.NewAnalysisRecord("https://example.com"))
	an := &stubAnalyzer{report: &models.AggregateReport{AnalyzedURLs: 1, Details: rs}}
	r := newTestRouter(http.MethodGet, "/report", Report(an))

	w := perform(t, r, http.MethodGet, "/report", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"analyzedUrls":1`) {
		t.Errorf("body = %s, want analyzedUrls count", w.Body.String())
	}
}

func TestHealth_ReflectsBrowserState(t *testing.T) {
	tests := []struct {
		name       string
		ready      bool
		wantStatus string
	}{
		{"browser connected", true, "healthy"},
		{"browser gone", false, "degraded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			an := &stubAnalyzer{ready: tt.ready}
			r := newTestRouter(http.MethodGet, "/health", Health(an))

			w := perform(t, r, http.MethodGet, "/health", "")

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", w.Code)
			}
			var resp models.HealthResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal response: %v", err)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", resp.Status, tt.wantStatus)
			}
			if resp.BrowserReady != tt.ready {
				t.Errorf("browser_ready = %v, want %v", resp.BrowserReady, tt.ready)
			}
			if resp.Uptime != "1m30s" {
				t.Errorf("uptime = %q, want 1m30s", resp.Uptime)
			}
		})
	}
}

func TestMapErrorToStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{models.ErrCodeTimeout, http.StatusGatewayTimeout},
		{models.ErrCodeNavigation, http.StatusBadGateway},
		{models.ErrCodeProbe, http.StatusBadGateway},
		{models.ErrCodeInvalidInput, http.StatusBadRequest},
		{models.ErrCodeRateLimited, http.StatusTooManyRequests},
		{models.ErrCodeUnauthorized, http.StatusUnauthorized},
		{models.ErrCodeSession, http.StatusServiceUnavailable},
		{models.ErrCodeEvaluation, http.StatusInternalServerError},
		{models.ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got := mapErrorToStatus(models.NewAnalysisError(tt.code, "x", nil))
			if got != tt.want {
				t.Errorf("mapErrorToStatus(%s) = %d, want %d", tt.code, got, tt.want)
			}
		})
	}
}
