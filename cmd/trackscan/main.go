package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/trackscan/trackscan/analyzer"
	"github.com/trackscan/trackscan/api"
	"github.com/trackscan/trackscan/cache"
	"github.com/trackscan/trackscan/config"
	"github.com/trackscan/trackscan/llm"
	"github.com/trackscan/trackscan/probe"
	"github.com/trackscan/trackscan/runner"
	"github.com/trackscan/trackscan/webhook"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("trackscan starting",
		"mode", cfg.Mode,
		"targets", len(cfg.Targets),
		"navTimeout", cfg.Analyzer.NavigationTimeout,
	)

	// ── 3. Initialise analyzer (launches browser) ───────────────────
	an, err := analyzer.New(cfg.Browser, cfg.Analyzer)
	if err != nil {
		slog.Error("failed to initialise analyzer", "error", err)
		os.Exit(1)
	}

	var code int
	switch cfg.Mode {
	case "serve":
		code = runServe(an, cfg)
	default:
		code = runBatch(an, cfg)
	}

	an.Close()
	os.Exit(code)
}

// runBatch analyzes the configured target list sequentially, prints the
// aggregate report, and exits. Progress lines and the report go to stdout;
// everything else (logs included) goes to stderr.
func runBatch(an *analyzer.Analyzer, cfg *config.Config) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runner.Run(ctx, an, cfg.Targets, os.Stdout); err != nil {
		slog.Error("batch run failed", "error", err)
		return 1
	}

	report := an.Report()

	// Completion side channels are best effort: a webhook or narrative
	// failure never fails a run that analyzed its targets.
	if cfg.Webhook.URL != "" {
		ev := webhook.NewEvent(webhook.EventRunCompleted, report)
		if err := webhook.Deliver(ctx, cfg.Webhook.URL, cfg.Webhook.Secret, ev); err != nil {
			slog.Error("webhook delivery failed", "url", cfg.Webhook.URL, "error", err)
		}
	}

	if cfg.LLM.APIKey != "" {
		narrative, err := llm.New(cfg.LLM, nil).Summarize(ctx, report)
		if err != nil {
			slog.Error("narrative generation failed", "error", err)
		} else {
			fmt.Println()
			fmt.Println(narrative)
		}
	}

	return 0
}

// runServe starts the HTTP API and blocks until a shutdown signal.
func runServe(an *analyzer.Analyzer, cfg *config.Config) int {
	pr := probe.New(cfg.Probe)

	var cc *cache.Cache
	if cfg.Probe.CacheTTL > 0 {
		cc = cache.New(cfg.Probe.CacheSize, cfg.Probe.CacheTTL)
	}

	router := api.NewRouter(an, pr, cc, cfg)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errc:
		slog.Error("HTTP server error", "error", err)
		return 1
	case sig := <-quit:
		slog.Info("shutdown signal received", "signal", sig.String())
	}

	// Give in-flight requests 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	slog.Info("trackscan stopped")
	return 0
}

// initLogger configures slog based on the LogConfig. Logs go to stderr;
// stdout is reserved for batch progress lines and the report.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}
