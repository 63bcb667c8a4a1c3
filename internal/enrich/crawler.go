package enrich

import (
	"context"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
	"golang.org/x/time/rate"

	"github.com/sells-group/outreach-cli/internal/config"
)

// Fetcher retrieves lead pages over plain HTTP with a per-request timeout,
// a body size cap, and advisory rate limiting.
type Fetcher struct {
	client       *http.Client
	limiter      *rate.Limiter
	userAgent    string
	maxBodyBytes int64
}

// NewFetcher creates a fetcher from crawl config.
func NewFetcher(cfg config.CrawlConfig) *Fetcher {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	ratePerSec := cfg.RatePerSec
	if ratePerSec <= 0 {
		ratePerSec = 2
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 512 * 1024
	}
	return &Fetcher{
		client:       &http.Client{Timeout: timeout},
		limiter:      rate.NewLimiter(rate.Limit(ratePerSec), 1),
		userAgent:    cfg.UserAgent,
		maxBodyBytes: maxBody,
	}
}

// Fetch downloads one page and returns its decoded HTML. Non-HTML content is
// an error so callers can skip PDFs and images without parsing them.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "crawl: rate limit wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", eris.Wrapf(err, "crawl: create request %s", pageURL)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", eris.Wrapf(err, "crawl: fetch %s", pageURL)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return "", eris.Errorf("crawl: %s returned status %d", pageURL, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err == nil && mediaType != "" && !strings.Contains(mediaType, "html") && !strings.Contains(mediaType, "text/plain") {
		return "", eris.Errorf("crawl: %s is %s, not HTML", pageURL, mediaType)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes))
	if err != nil {
		return "", eris.Wrapf(err, "crawl: read body %s", pageURL)
	}

	return decodeCharset(body, params["charset"]), nil
}

// FetchHomepage tries the lead URL as-is, then falls back from https to http.
// Older shop sites still serve plain http only.
func (f *Fetcher) FetchHomepage(ctx context.Context, homepage string) (string, string, error) {
	html, err := f.Fetch(ctx, homepage)
	if err == nil {
		return homepage, html, nil
	}
	if strings.HasPrefix(homepage, "https://") {
		fallback := "http://" + strings.TrimPrefix(homepage, "https://")
		if html, ferr := f.Fetch(ctx, fallback); ferr == nil {
			return fallback, html, nil
		}
	}
	return "", "", err
}

// decodeCharset converts a non-UTF-8 body to UTF-8 using the declared charset.
// Unknown or missing charsets pass the bytes through unchanged.
func decodeCharset(body []byte, charset string) string {
	charset = strings.ToLower(strings.TrimSpace(charset))
	if charset == "" || charset == "utf-8" || charset == "utf8" {
		return string(body)
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return string(body)
	}
	decoded, _, err := transform.Bytes(enc.NewDecoder(), body)
	if err != nil {
		return string(body)
	}
	return string(decoded)
}
