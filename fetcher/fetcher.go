package fetcher

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	tls2 "github.com/refraction-networking/utls"
)

const chromeUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Truncation budgets for fetched HTML, selected per call site.
const (
	BudgetSmall   = 50_000  // tool results for context-limited models
	BudgetDefault = 100_000 // standard tool-loop budget
	BudgetLarge   = 200_000 // heuristic extraction over full pages
)

// Diagnostics records what happened during a fetch, for the tool-call
// transcript and for operator debugging.
type Diagnostics struct {
	URL          string `json:"url"`
	HTTPStatus   int    `json:"http_status,omitempty"`
	SizeChars    int    `json:"html_size_chars,omitempty"`
	WasTruncated bool   `json:"was_truncated"`
	Preview      string `json:"html_preview,omitempty"`
	Title        string `json:"title,omitempty"`
	Err          string `json:"error,omitempty"`
}

// Result is a fetched page body plus its diagnostics. Body is already
// truncated to the requested budget; Diagnostics.SizeChars keeps the
// original length.
type Result struct {
	Body        string
	Diagnostics Diagnostics
}

// Fetcher performs HTTP GETs with a Chrome TLS fingerprint (utls) and a
// browser-like header set. Safe for concurrent use.
type Fetcher struct {
	proxy   string
	timeout time.Duration
}

// New creates a Fetcher. proxy may be empty; timeout <= 0 means 30s.
func New(proxy string, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{proxy: proxy, timeout: timeout}
}

// Fetch retrieves the URL and truncates the body to maxChars, appending an
// explicit marker that preserves the original length. Non-2xx responses and
// network failures are returned as errors.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string, maxChars int) (*Result, error) {
	if maxChars <= 0 {
		maxChars = BudgetDefault
	}

	diag := Diagnostics{URL: targetURL}

	body, status, err := f.get(ctx, targetURL)
	diag.HTTPStatus = status
	if err != nil {
		diag.Err = err.Error()
		return &Result{Diagnostics: diag}, err
	}
	if status < 200 || status >= 300 {
		err := fmt.Errorf("HTTP %d %s", status, http.StatusText(status))
		diag.Err = err.Error()
		return &Result{Diagnostics: diag}, err
	}

	html := string(body)
	diag.SizeChars = len(html)
	diag.Preview = preview(html, 500)
	diag.Title = extractTitle(body)

	if len(html) > maxChars {
		diag.WasTruncated = true
		html = html[:maxChars] + fmt.Sprintf("\n\n[HTML truncated - original length: %d characters]", diag.SizeChars)
	}

	return &Result{Body: html, Diagnostics: diag}, nil
}

// FetchToolResult is the never-fail variant used inside the tool-call loop.
// Errors become a descriptive string in Body so the calling model sees a
// recoverable tool result instead of the orchestrator aborting.
func (f *Fetcher) FetchToolResult(ctx context.Context, targetURL string, maxChars int) *Result {
	res, err := f.Fetch(ctx, targetURL, maxChars)
	if err != nil {
		res.Body = fmt.Sprintf("Error fetching URL: %v", err)
	}
	return res
}

// get performs the raw GET. Returns body bytes and HTTP status; status is 0
// when the request never completed.
func (f *Fetcher) get(ctx context.Context, targetURL string) ([]byte, int, error) {
	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialTLSChrome(ctx, network, addr, f.proxy)
		},
	}
	if f.proxy != "" {
		if proxyURL, err := url.Parse(f.proxy); err == nil && (proxyURL.Scheme == "http" || proxyURL.Scheme == "https") {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	client := &http.Client{Transport: transport, Timeout: f.timeout}
	defer client.CloseIdleConnections()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", chromeUA)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024)) // 10 MB cap
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}

	return body, resp.StatusCode, nil
}

// dialTLSChrome establishes a TLS connection using a Chrome fingerprint via utls.
func dialTLSChrome(ctx context.Context, network, addr, proxy string) (net.Conn, error) {
	var rawConn net.Conn
	var err error

	dialer := &net.Dialer{}

	if proxy != "" {
		if proxyURL, parseErr := url.Parse(proxy); parseErr == nil && (proxyURL.Scheme == "socks5" || proxyURL.Scheme == "socks5h") {
			socksConn, socksErr := dialer.DialContext(ctx, "tcp", proxyURL.Host)
			if socksErr != nil {
				return nil, fmt.Errorf("socks5 dial: %w", socksErr)
			}
			rawConn = socksConn
		}
	}

	if rawConn == nil {
		rawConn, err = dialer.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
	}

	host, _, _ := net.SplitHostPort(addr)
	tlsConn := tls2.UClient(rawConn, &tls2.Config{
		ServerName: host,
	}, tls2.HelloChrome_Auto)

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		rawConn.Close()
		return nil, err
	}
	return tlsConn, nil
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
