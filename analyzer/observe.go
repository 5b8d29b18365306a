package analyzer

import (
	"net/http"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/trackscan/trackscan/detect"
	"github.com/trackscan/trackscan/models"
)

// requestObserver records every intercepted request whose URL matches the
// tracking keyword list. It never blocks or modifies traffic; every request
// is continued unchanged.
type requestObserver struct {
	router *rod.HijackRouter

	mu      sync.Mutex
	matched []models.NetworkRequest
}

// observeRequests installs the observer on the page. Must be called before
// navigation or in-flight requests are missed.
//
// Returns the running observer so the caller can defer stop().
func observeRequests(page *rod.Page) *requestObserver {
	obs := &requestObserver{}
	router := page.HijackRequests()

	// Pattern "*" + empty resourceType = intercept ALL requests, then
	// decide per-request whether to record. Everything continues either way.
	_ = router.Add("*", "", func(h *rod.Hijack) {
		u := h.Request.URL().String()
		if detect.MatchRequestURL(u) {
			req := models.NetworkRequest{
				URL:      u,
				Method:   h.Request.Method(),
				Headers:  flattenHeaders(h.Request.Req().Header),
				Body:     h.Request.Body(),
				Category: detect.CategorizeRequest(u),
			}
			obs.mu.Lock()
			obs.matched = append(obs.matched, req)
			obs.mu.Unlock()
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})

	// router.Run() blocks, so it must live in its own goroutine.
	// It will exit when router.Stop() is called.
	go router.Run()

	obs.router = router
	return obs
}

// stop halts interception. Outstanding handler callbacks finish first.
func (o *requestObserver) stop() {
	_ = o.router.Stop()
}

// requests returns a copy of everything recorded so far, in arrival order.
func (o *requestObserver) requests() []models.NetworkRequest {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]models.NetworkRequest, len(o.matched))
	copy(out, o.matched)
	return out
}

// flattenHeaders collapses an http.Header into the flat mapping stored on
// the record, joining repeated values the way they appear on the wire.
func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vals := range h {
		out[k] = strings.Join(vals, ", ")
	}
	return out
}
