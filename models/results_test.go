package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestResultSet_AddPreservesOrder(t *testing.T) {
	rs := NewResultSet()
	rs.Add(NewAnalysisRecord("https://a.example"))
	rs.Add(NewAnalysisRecord("https://b.example"))
	rs.Add(NewAnalysisRecord("https://c.example"))

	want := []string{"https://a.example", "https://b.example", "https://c.example"}
	got := rs.URLs()
	if len(got) != len(want) {
		t.Fatalf("URLs() returned %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("URLs()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestResultSet_ReAnalyzeOverwritesInPlace(t *testing.T) {
	rs := NewResultSet()

	first := NewAnalysisRecord("https://a.example")
	rs.Add(first)
	rs.Add(NewAnalysisRecord("https://b.example"))

	second := NewAnalysisRecord("https://a.example")
	second.WalletTracking.Detected = true
	rs.Add(second)

	if rs.Len() != 2 {
		t.Errorf("Len() = %d after re-analysis, want 2", rs.Len())
	}
	if got := rs.Get("https://a.example"); got != second {
		t.Error("re-analysis should replace the stored record")
	}
	if urls := rs.URLs(); urls[0] != "https://a.example" {
		t.Errorf("re-analyzed URL moved to position %d, want 0", indexOf(urls, "https://a.example"))
	}
}

func indexOf(ss []string, s string) int {
	for i, v := range ss {
		if v == s {
			return i
		}
	}
	return -1
}

func TestResultSet_GetMissing(t *testing.T) {
	rs := NewResultSet()
	if rec := rs.Get("https://nope.example"); rec != nil {
		t.Errorf("Get on missing URL = %+v, want nil", rec)
	}
}

func TestResultSet_MarshalEmpty(t *testing.T) {
	rs := NewResultSet()
	data, err := json.Marshal(rs)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("empty set marshals to %q, want {}", string(data))
	}
}

func TestResultSet_MarshalKeyOrder(t *testing.T) {
	rs := NewResultSet()
	rs.Add(NewAnalysisRecord("https://z.example"))
	rs.Add(NewAnalysisRecord("https://a.example"))
	rs.Add(NewAnalysisRecord("https://m.example"))

	data, err := json.Marshal(rs)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	s := string(data)

	zi := strings.Index(s, `"https://z.example"`)
	ai := strings.Index(s, `"https://a.example"`)
	mi := strings.Index(s, `"https://m.example"`)
	if zi == -1 || ai == -1 || mi == -1 {
		t.Fatalf("marshaled output missing keys: %s", s)
	}
	if !(zi < ai && ai < mi) {
		t.Errorf("keys not in insertion order: z=%d a=%d m=%d", zi, ai, mi)
	}
}

func TestResultSet_MarshalRoundTrips(t *testing.T) {
	rs := NewResultSet()
	rec := NewAnalysisRecord("https://a.example")
	rec.TrackingScripts = append(rec.TrackingScripts, TrackingScript{Src: "https://a.example/analytics.js"})
	rs.Add(rec)

	data, err := json.Marshal(rs)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]AnalysisRecord
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not a valid JSON object of records: %v", err)
	}
	got, ok := decoded["https://a.example"]
	if !ok {
		t.Fatal("decoded object missing analyzed URL key")
	}
	if len(got.TrackingScripts) != 1 || got.TrackingScripts[0].Src != "https://a.example/analytics.js" {
		t.Errorf("record content lost in marshal: %+v", got)
	}
}
