package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

// CLI flags
var (
	apiURL = flag.String("api-url", "http://localhost:8080", "Trackscan API base URL")
	apiKey = flag.String("api-key", "", "API key for authenticated requests")
	runs   = flag.Int("runs", 3, "Number of runs per URL for averaging")
	output = flag.String("output", "benchmark-results.json", "JSON output file path")
)

// Test URLs covering heavy and light tracking surfaces.
var testURLs = []struct {
	Label string
	URL   string
}{
	{"DEX", "https://app.uniswap.org"},
	{"NFT", "https://opensea.io"},
	{"Data", "https://www.coingecko.com"},
	{"News", "https://www.bbc.com/news"},
	{"Static", "https://example.com"},
}

// --- Request / Response types (mirrors models package) ---

type analyzeRequest struct {
	URL string `json:"url"`
}

type analyzeResponse struct {
	Success    bool         `json:"success"`
	DurationMs int64        `json:"duration_ms"`
	Record     *record      `json:"record"`
	Error      *errorDetail `json:"error,omitempty"`
}

type record struct {
	TrackingScripts []json.RawMessage `json:"trackingScripts"`
	NetworkRequests []json.RawMessage `json:"networkRequests"`
	Cookies         []json.RawMessage `json:"cookies"`
	Fingerprinting  struct {
		Canvas bool `json:"canvas"`
		WebGL  bool `json:"webgl"`
		Fonts  bool `json:"fonts"`
		Audio  bool `json:"audio"`
	} `json:"fingerprinting"`
	WalletTracking struct {
		Detected bool `json:"detected"`
	} `json:"walletTracking"`
	Errors []string `json:"errors"`
}

type probeResponse struct {
	Success bool `json:"success"`
	Probe   *struct {
		StatusCode  int               `json:"statusCode"`
		Scripts     []json.RawMessage `json:"scripts"`
		Fingerprint string            `json:"fingerprint"`
		DurationMs  int64             `json:"duration_ms"`
	} `json:"probe"`
	Error *errorDetail `json:"error,omitempty"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// --- Benchmark result types ---

type runResult struct {
	Run             int    `json:"run"`
	DurationMs      int64  `json:"duration_ms"`
	TrackingScripts int    `json:"tracking_scripts"`
	NetworkRequests int    `json:"network_requests"`
	Cookies         int    `json:"cookies"`
	Fingerprinting  bool   `json:"fingerprinting"`
	WalletTracking  bool   `json:"wallet_tracking"`
	PageErrors      int    `json:"page_errors"`
	Success         bool   `json:"success"`
	Error           string `json:"error,omitempty"`
}

type probeResult struct {
	DurationMs  int64  `json:"duration_ms"`
	StatusCode  int    `json:"status_code"`
	Scripts     int    `json:"scripts"`
	Fingerprint string `json:"fingerprint"`
	Error       string `json:"error,omitempty"`
}

type urlAverages struct {
	DurationMs      float64 `json:"duration_ms"`
	TrackingScripts float64 `json:"tracking_scripts"`
	NetworkRequests float64 `json:"network_requests"`
	Cookies         float64 `json:"cookies"`
}

type urlResult struct {
	URL      string       `json:"url"`
	Label    string       `json:"label"`
	Runs     []runResult  `json:"runs"`
	Probe    *probeResult `json:"probe,omitempty"`
	Averages *urlAverages `json:"averages,omitempty"`
}

type benchmarkReport struct {
	Timestamp  string      `json:"timestamp"`
	APIURL     string      `json:"api_url"`
	RunsPerURL int         `json:"runs_per_url"`
	Results    []urlResult `json:"results"`
}

func main() {
	flag.Parse()

	fmt.Println("=== Trackscan Benchmark Suite ===")
	fmt.Printf("API URL:   %s\n", *apiURL)
	fmt.Printf("Runs/URL:  %d\n", *runs)
	fmt.Printf("Output:    %s\n", *output)
	fmt.Println()

	// Quick connectivity check.
	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		fmt.Fprintf(os.Stderr, "Make sure Trackscan is running in serve mode (e.g. make serve)\n")
		os.Exit(1)
	}

	report := benchmarkReport{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		APIURL:     *apiURL,
		RunsPerURL: *runs,
	}

	for _, t := range testURLs {
		fmt.Printf("Benchmarking [%s] %s ...\n", t.Label, t.URL)
		ur := urlResult{URL: t.URL, Label: t.Label}

		for i := 1; i <= *runs; i++ {
			fmt.Printf("  Analyze %d/%d ... ", i, *runs)
			rr := analyzeURL(t.URL, i)
			if rr.Success {
				fmt.Printf("OK  %dms  %d scripts  %d requests\n", rr.DurationMs, rr.TrackingScripts, rr.NetworkRequests)
			} else {
				fmt.Printf("FAILED: %s\n", rr.Error)
			}
			ur.Runs = append(ur.Runs, rr)
		}

		fmt.Printf("  Probe ... ")
		pr := probeURL(t.URL)
		if pr.Error == "" {
			fmt.Printf("OK  %dms  status %d\n", pr.DurationMs, pr.StatusCode)
		} else {
			fmt.Printf("FAILED: %s\n", pr.Error)
		}
		ur.Probe = pr

		ur.Averages = computeAverages(ur.Runs)
		report.Results = append(report.Results, ur)
		fmt.Println()
	}

	// Print summary table.
	printTable(report.Results)

	// Write JSON report.
	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func checkAPI(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/api/v1/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func analyzeURL(url string, run int) runResult {
	rr := runResult{Run: run}

	bodyBytes, err := json.Marshal(analyzeRequest{URL: url})
	if err != nil {
		rr.Error = fmt.Sprintf("marshal error: %v", err)
		return rr
	}

	req, err := http.NewRequest("POST", *apiURL+"/api/v1/analyze", bytes.NewReader(bodyBytes))
	if err != nil {
		rr.Error = fmt.Sprintf("request error: %v", err)
		return rr
	}
	req.Header.Set("Content-Type", "application/json")
	if *apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+*apiKey)
	}

	client := &http.Client{Timeout: 90 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()

	var ar analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		rr.Error = fmt.Sprintf("decode error: %v", err)
		return rr
	}

	rr.Success = ar.Success
	rr.DurationMs = ar.DurationMs
	if ar.Record != nil {
		rr.TrackingScripts = len(ar.Record.TrackingScripts)
		rr.NetworkRequests = len(ar.Record.NetworkRequests)
		rr.Cookies = len(ar.Record.Cookies)
		f := ar.Record.Fingerprinting
		rr.Fingerprinting = f.Canvas || f.WebGL || f.Fonts || f.Audio
		rr.WalletTracking = ar.Record.WalletTracking.Detected
		rr.PageErrors = len(ar.Record.Errors)
	}
	if ar.Error != nil {
		rr.Error = ar.Error.Message
	}

	return rr
}

func probeURL(url string) *probeResult {
	pr := &probeResult{}

	bodyBytes, err := json.Marshal(analyzeRequest{URL: url})
	if err != nil {
		pr.Error = fmt.Sprintf("marshal error: %v", err)
		return pr
	}

	req, err := http.NewRequest("POST", *apiURL+"/api/v1/probe", bytes.NewReader(bodyBytes))
	if err != nil {
		pr.Error = fmt.Sprintf("request error: %v", err)
		return pr
	}
	req.Header.Set("Content-Type", "application/json")
	if *apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+*apiKey)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		pr.Error = fmt.Sprintf("request failed: %v", err)
		return pr
	}
	defer resp.Body.Close()

	var presp probeResponse
	if err := json.NewDecoder(resp.Body).Decode(&presp); err != nil {
		pr.Error = fmt.Sprintf("decode error: %v", err)
		return pr
	}

	if presp.Error != nil {
		pr.Error = presp.Error.Message
		return pr
	}
	if presp.Probe != nil {
		pr.DurationMs = presp.Probe.DurationMs
		pr.StatusCode = presp.Probe.StatusCode
		pr.Scripts = len(presp.Probe.Scripts)
		pr.Fingerprint = presp.Probe.Fingerprint
	}

	return pr
}

func computeAverages(runs []runResult) *urlAverages {
	var successCount int
	var avg urlAverages

	for _, r := range runs {
		if !r.Success {
			continue
		}
		successCount++
		avg.DurationMs += float64(r.DurationMs)
		avg.TrackingScripts += float64(r.TrackingScripts)
		avg.NetworkRequests += float64(r.NetworkRequests)
		avg.Cookies += float64(r.Cookies)
	}

	if successCount == 0 {
		return nil
	}

	n := float64(successCount)
	avg.DurationMs /= n
	avg.TrackingScripts /= n
	avg.NetworkRequests /= n
	avg.Cookies /= n
	return &avg
}

func printTable(results []urlResult) {
	fmt.Println(strings.Repeat("─", 95))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "URL\tAvg Analyze\tProbe\tScripts\tRequests\tDetections\n")
	fmt.Fprintf(w, "───\t───────────\t─────\t───────\t────────\t──────────\n")

	for _, r := range results {
		probeMs := "-"
		if r.Probe != nil && r.Probe.Error == "" {
			probeMs = fmt.Sprintf("%dms", r.Probe.DurationMs)
		}

		if r.Averages == nil {
			fmt.Fprintf(w, "%s\tFAILED\t%s\t-\t-\t-\n", truncateURL(r.URL, 40), probeMs)
			continue
		}

		fmt.Fprintf(w, "%s\t%dms\t%s\t%.1f\t%.1f\t%s\n",
			truncateURL(r.URL, 40),
			int64(r.Averages.DurationMs),
			probeMs,
			r.Averages.TrackingScripts,
			r.Averages.NetworkRequests,
			detections(r.Runs),
		)
	}

	w.Flush()
	fmt.Println(strings.Repeat("─", 95))
}

// detections summarizes the detection flags seen across runs.
func detections(runs []runResult) string {
	var fingerprinting, wallet bool
	for _, r := range runs {
		fingerprinting = fingerprinting || r.Fingerprinting
		wallet = wallet || r.WalletTracking
	}
	var parts []string
	if fingerprinting {
		parts = append(parts, "fingerprinting")
	}
	if wallet {
		parts = append(parts, "wallet")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}

func truncateURL(u string, max int) string {
	if len(u) <= max {
		return u
	}
	return u[:max-3] + "..."
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
