package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// defaultUserAgent is the fixed desktop user agent every analysis session
// presents. Keeping it constant across sessions makes records from one run
// comparable: a site serving different trackers to different UAs would
// otherwise contaminate run-over-run diffs.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// defaultTargets is the standing investigation list used when
// TRACKSCAN_TARGETS is unset.
var defaultTargets = []string{
	"https://app.uniswap.org",
	"https://opensea.io",
	"https://www.coingecko.com",
}

// Config holds all application configuration.
type Config struct {
	Mode      string // "batch" runs the target list and exits; "serve" starts the HTTP API
	Targets   []string
	Server    ServerConfig
	Browser   BrowserConfig
	Analyzer  AnalyzerConfig
	Probe     ProbeConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
	Webhook   WebhookConfig
	LLM       LLMConfig
}

// ServerConfig controls the HTTP server (serve mode only).
type ServerConfig struct {
	Host    string // default: "0.0.0.0"
	Port    int    // default: 8080
	GinMode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is the proxy URL for all sessions.
	Proxy string
}

// AnalyzerConfig controls per-session analysis behavior.
type AnalyzerConfig struct {
	// NavigationTimeout bounds one full session: navigation, settle,
	// and extraction.
	NavigationTimeout time.Duration // default: 30s

	// UserAgent is presented by every browsing context.
	UserAgent string

	// Stealth injects anti-bot-detection evasions before navigation.
	Stealth bool // default: false

	// PageSnapshot writes a Markdown snapshot of the rendered page's
	// main content alongside the screenshot.
	PageSnapshot bool // default: false

	// ScreenshotDir, ResultsDir, and SnapshotDir are created on demand,
	// relative to the working directory.
	ScreenshotDir string // default: "screenshots"
	ResultsDir    string // default: "results"
	SnapshotDir   string // default: "snapshots"
}

// ProbeConfig controls the static HTML probe.
type ProbeConfig struct {
	// Timeout is the deadline for one probe fetch.
	Timeout time.Duration // default: 10s

	// UserAgent is sent with probe requests. Defaults to the analyzer UA
	// so static and rendered observations are comparable.
	UserAgent string

	// CacheTTL is how long a probe result stays valid in the serve-mode
	// cache. Zero disables caching.
	CacheTTL time.Duration // default: 5m

	// CacheSize is the maximum number of cached probe results.
	CacheSize int // default: 256
}

// AuthConfig controls API key authentication (serve mode).
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting (serve mode).
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per API key.
	Burst int // default: 10
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// WebhookConfig controls completion event delivery. Disabled when URL is
// empty.
type WebhookConfig struct {
	URL    string
	Secret string
}

// LLMConfig controls the optional findings narrative. Disabled when APIKey
// is empty.
type LLMConfig struct {
	APIKey  string
	Model   string // default: "gpt-4o-mini"
	BaseURL string // default: "https://api.openai.com/v1"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Mode:    envOr("TRACKSCAN_MODE", "batch"),
		Targets: envSliceOr("TRACKSCAN_TARGETS", defaultTargets),
		Server: ServerConfig{
			Host:    envOr("TRACKSCAN_HOST", "0.0.0.0"),
			Port:    envIntOr("TRACKSCAN_PORT", 8080),
			GinMode: envOr("TRACKSCAN_GIN_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("TRACKSCAN_HEADLESS", true),
			NoSandbox:  envBoolOr("TRACKSCAN_NO_SANDBOX", false),
			BrowserBin: os.Getenv("TRACKSCAN_BROWSER_BIN"),
			Proxy:      os.Getenv("TRACKSCAN_PROXY"),
		},
		Analyzer: AnalyzerConfig{
			NavigationTimeout: envDurationOr("TRACKSCAN_NAV_TIMEOUT", 30*time.Second),
			UserAgent:         envOr("TRACKSCAN_USER_AGENT", defaultUserAgent),
			Stealth:           envBoolOr("TRACKSCAN_STEALTH", false),
			PageSnapshot:      envBoolOr("TRACKSCAN_PAGE_SNAPSHOT", false),
			ScreenshotDir:     envOr("TRACKSCAN_SCREENSHOT_DIR", "screenshots"),
			ResultsDir:        envOr("TRACKSCAN_RESULTS_DIR", "results"),
			SnapshotDir:       envOr("TRACKSCAN_SNAPSHOT_DIR", "snapshots"),
		},
		Probe: ProbeConfig{
			Timeout:   envDurationOr("TRACKSCAN_PROBE_TIMEOUT", 10*time.Second),
			UserAgent: envOr("TRACKSCAN_USER_AGENT", defaultUserAgent),
			CacheTTL:  envDurationOr("TRACKSCAN_PROBE_CACHE_TTL", 5*time.Minute),
			CacheSize: envIntOr("TRACKSCAN_PROBE_CACHE_SIZE", 256),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("TRACKSCAN_AUTH_ENABLED", true),
			APIKeys: envSliceOr("TRACKSCAN_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("TRACKSCAN_RATE_RPS", 5.0),
			Burst:             envIntOr("TRACKSCAN_RATE_BURST", 10),
		},
		Log: LogConfig{
			Level:  envOr("TRACKSCAN_LOG_LEVEL", "info"),
			Format: envOr("TRACKSCAN_LOG_FORMAT", "json"),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("TRACKSCAN_WEBHOOK_URL"),
			Secret: os.Getenv("TRACKSCAN_WEBHOOK_SECRET"),
		},
		LLM: LLMConfig{
			APIKey:  os.Getenv("TRACKSCAN_LLM_API_KEY"),
			Model:   envOr("TRACKSCAN_LLM_MODEL", "gpt-4o-mini"),
			BaseURL: envOr("TRACKSCAN_LLM_BASE_URL", "https://api.openai.com/v1"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
