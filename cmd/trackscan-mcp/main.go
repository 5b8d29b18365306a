package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// apiError mirrors the Trackscan API error detail.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// analysisRecord mirrors the Trackscan API record model.
type analysisRecord struct {
	URL             string `json:"url"`
	Timestamp       string `json:"timestamp"`
	TrackingScripts []struct {
		Src     string `json:"src"`
		Content string `json:"content"`
	} `json:"trackingScripts"`
	NetworkRequests []struct {
		URL      string `json:"url"`
		Method   string `json:"method"`
		Category string `json:"category"`
	} `json:"networkRequests"`
	Cookies []struct {
		Name   string `json:"name"`
		Domain string `json:"domain"`
	} `json:"cookies"`
	LocalStorage   map[string]string `json:"localStorage"`
	Fingerprinting struct {
		Canvas bool `json:"canvas"`
		WebGL  bool `json:"webgl"`
		Fonts  bool `json:"fonts"`
		Audio  bool `json:"audio"`
	} `json:"fingerprinting"`
	WalletTracking struct {
		Detected bool     `json:"detected"`
		Methods  []string `json:"methods"`
	} `json:"walletTracking"`
	Errors []string `json:"errors"`
}

// analyzeResponse mirrors the Trackscan analyze API response.
type analyzeResponse struct {
	Success    bool            `json:"success"`
	DurationMs int64           `json:"duration_ms"`
	Record     *analysisRecord `json:"record"`
	Error      *apiError       `json:"error"`
}

// probeResponse mirrors the Trackscan probe API response.
type probeResponse struct {
	Success bool `json:"success"`
	Probe   *struct {
		URL        string `json:"url"`
		StatusCode int    `json:"statusCode"`
		Title      string `json:"title"`
		Scripts    []struct {
			Src     string `json:"src"`
			Content string `json:"content"`
		} `json:"scripts"`
		Fingerprint string `json:"fingerprint"`
		DurationMs  int64  `json:"duration_ms"`
	} `json:"probe"`
	Error *apiError `json:"error"`
}

// recordsResponse mirrors the Trackscan records API response.
type recordsResponse struct {
	Count   int `json:"count"`
	Records []struct {
		URL             string `json:"url"`
		Timestamp       string `json:"timestamp"`
		TrackingScripts int    `json:"tracking_scripts"`
		NetworkRequests int    `json:"network_requests"`
		Cookies         int    `json:"cookies"`
		Fingerprinting  bool   `json:"fingerprinting"`
		WalletTracking  bool   `json:"wallet_tracking"`
		Failed          bool   `json:"failed"`
	} `json:"records"`
}

func main() {
	apiURL := os.Getenv("TRACKSCAN_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("TRACKSCAN_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "TRACKSCAN_API_KEY is required")
		os.Exit(1)
	}

	s := server.NewMCPServer(
		"trackscan",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	analyzeURLTool := mcp.NewTool("analyze_url",
		mcp.WithDescription("Analyze a web page for tracking implementations: tracking scripts, analytics network calls, tracking cookies, fingerprinting API usage, and wallet-provider access. Renders the page in a headless browser."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the web page to analyze"),
		),
		mcp.WithBoolean("stealth",
			mcp.Description("Enable anti-bot-detection evasions for this session. Useful when the target refuses automated browsers."),
		),
	)
	s.AddTool(analyzeURLTool, handleAnalyzeURL(apiURL, apiKey))

	probeURLTool := mcp.NewTool("probe_url",
		mcp.WithDescription("Fetch a page's served HTML without a browser and report its static tracking signals: title, tracking-related script tags, and a structural fingerprint of the markup. Much cheaper than a full analysis; sees only what the server sends."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the web page to probe"),
		),
	)
	s.AddTool(probeURLTool, handleProbeURL(apiURL, apiKey))

	reportTool := mcp.NewTool("tracking_report",
		mcp.WithDescription("Get the aggregate tracking report over every URL analyzed so far: per-category counts plus the full per-URL records, as JSON."),
	)
	s.AddTool(reportTool, handleTrackingReport(apiURL, apiKey))

	recordsTool := mcp.NewTool("list_records",
		mcp.WithDescription("List one summary line per analyzed URL: evidence counts and detection flags, without the full payloads."),
	)
	s.AddTool(recordsTool, handleListRecords(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiPost sends a POST request to the Trackscan API and returns the response body.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// apiGet sends a GET request to the Trackscan API and returns the response body.
func apiGet(ctx context.Context, client *http.Client, apiURL, apiKey, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-API-Key", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func handleAnalyzeURL(apiURL, apiKey string) server.ToolHandlerFunc {
	// A full analysis renders the page and waits out slow trackers, so the
	// client timeout sits well above the server's navigation timeout.
	client := &http.Client{Timeout: 120 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		payload := map[string]interface{}{"url": url}
		if args := request.GetArguments(); args != nil {
			if stealth, ok := args["stealth"]; ok {
				payload["stealth"] = stealth
			}
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/analyze", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("analyze request failed: %v", err)), nil
		}

		var resp analyzeResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		if !resp.Success || resp.Record == nil {
			errMsg := "analysis failed"
			if resp.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", resp.Error.Code, resp.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		return mcp.NewToolResultText(formatRecord(resp.Record)), nil
	}
}

func handleProbeURL(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/probe", map[string]string{"url": url})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("probe request failed: %v", err)), nil
		}

		var resp probeResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		if !resp.Success || resp.Probe == nil {
			errMsg := "probe failed"
			if resp.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", resp.Error.Code, resp.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		p := resp.Probe
		var sb strings.Builder
		fmt.Fprintf(&sb, "Probe of %s\n\n", p.URL)
		fmt.Fprintf(&sb, "Status: %d\n", p.StatusCode)
		if p.Title != "" {
			fmt.Fprintf(&sb, "Title: %s\n", p.Title)
		}
		fmt.Fprintf(&sb, "Markup fingerprint: %s\n", p.Fingerprint)
		fmt.Fprintf(&sb, "Tracking scripts in served HTML: %d\n", len(p.Scripts))
		for _, s := range p.Scripts {
			if s.Src != "" {
				fmt.Fprintf(&sb, "  - %s\n", s.Src)
			} else {
				sb.WriteString("  - [inline script]\n")
			}
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleTrackingReport(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		respBody, err := apiGet(ctx, client, apiURL, apiKey, "/api/v1/report")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("report request failed: %v", err)), nil
		}

		var pretty bytes.Buffer
		if err := json.Indent(&pretty, respBody, "", "  "); err != nil {
			// Fall back to the raw body.
			pretty.Write(respBody)
		}

		return mcp.NewToolResultText(pretty.String()), nil
	}
}

func handleListRecords(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		respBody, err := apiGet(ctx, client, apiURL, apiKey, "/api/v1/records")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("records request failed: %v", err)), nil
		}

		var resp recordsResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		if resp.Count == 0 {
			return mcp.NewToolResultText("No URLs analyzed yet."), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "%d analyzed URLs:\n\n", resp.Count)
		for _, r := range resp.Records {
			flags := make([]string, 0, 3)
			if r.Fingerprinting {
				flags = append(flags, "fingerprinting")
			}
			if r.WalletTracking {
				flags = append(flags, "wallet")
			}
			if r.Failed {
				flags = append(flags, "FAILED")
			}
			flagStr := ""
			if len(flags) > 0 {
				flagStr = " [" + strings.Join(flags, ", ") + "]"
			}
			fmt.Fprintf(&sb, "- %s (%s): %d scripts, %d requests, %d cookies%s\n",
				r.URL, r.Timestamp, r.TrackingScripts, r.NetworkRequests, r.Cookies, flagStr)
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}

// formatRecord renders one analysis record as a readable summary.
func formatRecord(rec *analysisRecord) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Analysis of %s (%s)\n\n", rec.URL, rec.Timestamp)

	categories := map[string]int{}
	for _, r := range rec.NetworkRequests {
		categories[r.Category]++
	}
	fmt.Fprintf(&sb, "Network requests recorded: %d", len(rec.NetworkRequests))
	if len(rec.NetworkRequests) > 0 {
		parts := make([]string, 0, len(categories))
		for _, cat := range []string{"cookie3", "analytics", "tracking", "other"} {
			if n := categories[cat]; n > 0 {
				parts = append(parts, fmt.Sprintf("%s %d", cat, n))
			}
		}
		fmt.Fprintf(&sb, " (%s)", strings.Join(parts, ", "))
	}
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "Tracking scripts: %d\n", len(rec.TrackingScripts))
	for _, s := range rec.TrackingScripts {
		if s.Src != "" {
			fmt.Fprintf(&sb, "  - %s\n", s.Src)
		} else {
			sb.WriteString("  - [inline script]\n")
		}
	}

	fmt.Fprintf(&sb, "Tracking cookies: %d\n", len(rec.Cookies))
	for _, c := range rec.Cookies {
		fmt.Fprintf(&sb, "  - %s (%s)\n", c.Name, c.Domain)
	}

	var fp []string
	if rec.Fingerprinting.Canvas {
		fp = append(fp, "canvas")
	}
	if rec.Fingerprinting.WebGL {
		fp = append(fp, "webgl")
	}
	if rec.Fingerprinting.Fonts {
		fp = append(fp, "fonts")
	}
	if rec.Fingerprinting.Audio {
		fp = append(fp, "audio")
	}
	if len(fp) > 0 {
		fmt.Fprintf(&sb, "Fingerprinting APIs used: %s\n", strings.Join(fp, ", "))
	} else {
		sb.WriteString("Fingerprinting APIs used: none observed\n")
	}

	if rec.WalletTracking.Detected {
		fmt.Fprintf(&sb, "Wallet access: %s\n", strings.Join(rec.WalletTracking.Methods, ", "))
	} else {
		sb.WriteString("Wallet access: none\n")
	}

	fmt.Fprintf(&sb, "localStorage keys: %d\n", len(rec.LocalStorage))

	if len(rec.Errors) > 0 {
		sb.WriteString("\nErrors:\n")
		for _, e := range rec.Errors {
			fmt.Fprintf(&sb, "  - %s\n", e)
		}
	}

	return sb.String()
}
