// Package probe inspects a page's served HTML without a browser. It reports
// only statically embedded tracking signals, which makes it a cheap baseline
// to compare against the full browser analysis: anything the analyzer sees
// that the probe does not was injected at runtime.
package probe

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	tls "github.com/refraction-networking/utls"
	"github.com/trackscan/trackscan/config"
	"github.com/trackscan/trackscan/models"
	"github.com/trackscan/trackscan/simhash"
)

// maxBody caps how much of a response body the probe reads.
const maxBody = 10 << 20

// chromeHello is a Chrome ClientHello with its ALPN list cut down to
// http/1.1. Go's http.Transport cannot drive HTTP/2 over a utls connection,
// so the hello must never offer h2. Built once at init.
var chromeHello tls.ClientHelloSpec

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		// Leaves the zero spec; probes will fail per request rather than
		// at startup. Does not happen on a valid utls build.
		return
	}
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeHello = spec
}

// dialChromeTLS dials addr and completes the handshake presenting the Chrome
// ClientHello instead of Go's.
func dialChromeTLS(ctx context.Context, network, addr string) (net.Conn, error) {
	d := &net.Dialer{Timeout: 10 * time.Second}
	raw, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	host, _, _ := net.SplitHostPort(addr)
	uconn := tls.UClient(raw, &tls.Config{ServerName: host}, tls.HelloCustom)
	if err := uconn.ApplyPreset(&chromeHello); err != nil {
		raw.Close()
		return nil, fmt.Errorf("probe: apply tls spec: %w", err)
	}
	if err := uconn.HandshakeContext(ctx); err != nil {
		raw.Close()
		return nil, err
	}
	return uconn, nil
}

// Prober fetches pages with a Chrome TLS fingerprint. Sites that gate
// plain-Go TLS handshakes serve it the same shell they serve a browser.
type Prober struct {
	client *http.Client
	cfg    config.ProbeConfig
}

// New creates a Prober whose TLS handshakes look like Chrome's, locked to
// HTTP/1.1.
func New(cfg config.ProbeConfig) *Prober {
	return &Prober{
		client: &http.Client{
			Transport: &http.Transport{
				DialTLSContext:    dialChromeTLS,
				ForceAttemptHTTP2: false,
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				return nil
			},
		},
		cfg: cfg,
	}
}

// Probe fetches targetURL and tokenizes the served HTML. Any HTTP response,
// error statuses included, yields a result — the probe's job is to report
// what the server sent. The error is non-nil only when no response could be
// read at all.
func (p *Prober) Probe(ctx context.Context, targetURL string) (*models.StaticProbe, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, models.NewAnalysisError(models.ErrCodeProbe, "invalid probe URL", err)
	}

	// Simulate browser-like headers. Compression is declined so the body
	// tokenizes directly.
	req.Header.Set("User-Agent", p.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "identity")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, models.NewAnalysisError(models.ErrCodeProbe, "probe request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, models.NewAnalysisError(models.ErrCodeProbe, "failed to read probe response", err)
	}

	htmlStr := string(body)
	return &models.StaticProbe{
		URL:         targetURL,
		StatusCode:  resp.StatusCode,
		Title:       extractTitle(htmlStr),
		Scripts:     extractScripts(htmlStr),
		Fingerprint: fmt.Sprintf("%016x", simhash.FingerprintMarkup(htmlStr)),
		DurationMs:  time.Since(start).Milliseconds(),
	}, nil
}
