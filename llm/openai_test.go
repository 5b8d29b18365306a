package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/trackscan/trackscan/config"
	"github.com/trackscan/trackscan/models"
)

func testClient(baseURL string) *Client {
	return New(config.LLMConfig{
		APIKey:  "test-key",
		Model:   "gpt-4o-mini",
		BaseURL: baseURL,
	}, nil)
}

func emptyReport() *models.AggregateReport {
	return &models.AggregateReport{Details: models.NewResultSet()}
}

func TestSummarize_ReturnsNarrative(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"choices": [{"message": {"content": "  No trackers were observed.  "}}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`))
	}))
	defer srv.Close()

	got, err := testClient(srv.URL).Summarize(context.Background(), emptyReport())
	if err != nil {
		t.Fatalf("Summarize returned error: %v", err)
	}
	if got != "No trackers were observed." {
		t.Errorf("narrative = %q", got)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestSummarize_AuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "bad key"}}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Summarize(context.Background(), emptyReport())
	var ae *models.AnalysisError
	if !errors.As(err, &ae) || ae.Code != models.ErrCodeLLMAuthFailure {
		t.Errorf("err = %v, want %s", err, models.ErrCodeLLMAuthFailure)
	}
	if ae != nil && ae.Message != "bad key" {
		t.Errorf("provider message not surfaced: %q", ae.Message)
	}
}

func TestSummarize_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "slow down"}}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Summarize(context.Background(), emptyReport())
	var ae *models.AnalysisError
	if !errors.As(err, &ae) || ae.Code != models.ErrCodeLLMRateLimited {
		t.Errorf("err = %v, want %s", err, models.ErrCodeLLMRateLimited)
	}
}

func TestSummarize_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Summarize(context.Background(), emptyReport())
	var ae *models.AnalysisError
	if !errors.As(err, &ae) || ae.Code != models.ErrCodeLLMFailure {
		t.Errorf("err = %v, want %s", err, models.ErrCodeLLMFailure)
	}
}
