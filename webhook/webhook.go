// Package webhook delivers signed completion events to a configured
// endpoint. Delivery is strictly fire-and-forget: analysis results never
// depend on whether the endpoint answered.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Event types delivered to the endpoint.
const (
	// EventRunCompleted fires once after a batch run's final report.
	EventRunCompleted = "run.completed"

	// EventAnalysisCompleted fires per API-triggered analysis.
	EventAnalysisCompleted = "analysis.completed"
)

// Event is the payload sent to the webhook endpoint.
type Event struct {
	Event     string      `json:"event"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEvent builds an event stamped with the current time.
func NewEvent(eventType string, data interface{}) *Event {
	return &Event{
		Event:     eventType,
		Timestamp: time.Now().Unix(),
		Data:      data,
	}
}

// client is shared across deliveries; endpoints that stall get cut off at
// the timeout rather than holding a goroutine per attempt.
var client = &http.Client{Timeout: 10 * time.Second}

// Deliver sends an event synchronously. When secret is non-empty the body
// is signed with HMAC-SHA256 and the hex digest travels in
// X-Trackscan-Signature as "sha256=<hex>".
func Deliver(ctx context.Context, url, secret string, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: encode event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Trackscan-Webhook/1.0")
	if secret != "" {
		req.Header.Set("X-Trackscan-Signature", signature(secret, body))
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// DeliverAsync sends an event from a goroutine with up to 3 attempts and
// linear backoff (2s, then 4s).
func DeliverAsync(url, secret string, event *Event) {
	go func() {
		for attempt := 1; attempt <= 3; attempt++ {
			if attempt > 1 {
				time.Sleep(time.Duration(attempt-1) * 2 * time.Second)
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err := Deliver(ctx, url, secret, event)
			cancel()
			if err == nil {
				slog.Info("webhook delivered",
					"url", url,
					"event", event.Event,
					"attempt", attempt,
				)
				return
			}
			slog.Warn("webhook delivery failed",
				"url", url,
				"event", event.Event,
				"attempt", attempt,
				"error", err,
			)
		}
		slog.Error("webhook delivery gave up",
			"url", url,
			"event", event.Event,
		)
	}()
}

// signature computes the hex HMAC-SHA256 header value for a request body.
func signature(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
