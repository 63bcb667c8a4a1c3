package discovery

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/outreach-cli/internal/config"
)

// Hit is one search result.
type Hit struct {
	URL   string
	Title string
}

// Searcher issues one web search and returns result hits.
type Searcher interface {
	Search(ctx context.Context, query string, max int) ([]Hit, error)
}

// DuckDuckGo searches via the DDG HTML endpoints, falling through a chain of
// mirrors until one returns results. No API key required.
type DuckDuckGo struct {
	endpoints []string
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// NewDuckDuckGo creates a searcher from discovery config.
func NewDuckDuckGo(cfg config.DiscoveryConfig) *DuckDuckGo {
	ratePerSec := cfg.RatePerSec
	if ratePerSec <= 0 {
		ratePerSec = 1
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	return &DuckDuckGo{
		endpoints: cfg.Endpoints,
		client:    &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(rate.Limit(ratePerSec), 1),
		userAgent: cfg.UserAgent,
	}
}

// Search tries each endpoint in order and returns the first non-empty result
// set. Endpoints embed a {query} placeholder.
func (d *DuckDuckGo) Search(ctx context.Context, query string, max int) ([]Hit, error) {
	log := zap.L().With(zap.String("query", query))

	var lastErr error
	for _, endpoint := range d.endpoints {
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "search: rate limit wait")
		}

		searchURL := strings.ReplaceAll(endpoint, "{query}", url.QueryEscape(query))
		hits, err := d.fetch(ctx, searchURL, max)
		if err != nil {
			log.Debug("search endpoint failed", zap.String("endpoint", endpoint), zap.Error(err))
			lastErr = err
			continue
		}
		if len(hits) > 0 {
			return hits, nil
		}
		log.Debug("search endpoint returned no hits", zap.String("endpoint", endpoint))
	}

	if lastErr != nil {
		return nil, eris.Wrapf(lastErr, "search: all endpoints failed for %q", query)
	}
	return nil, nil
}

func (d *DuckDuckGo) fetch(ctx context.Context, searchURL string, max int) ([]Hit, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "search: create request")
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "search: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("search: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, eris.Wrap(err, "search: read body")
	}

	hits := parseHTMLHits(string(body))
	if len(hits) == 0 {
		// The r.jina.ai mirror returns markdown, not HTML.
		hits = parseMarkdownHits(string(body))
	}
	if max > 0 && len(hits) > max {
		hits = hits[:max]
	}
	return hits, nil
}

// parseHTMLHits pulls outbound links from a DDG results page, unwrapping the
// redirect links DDG wraps around organic and ad results.
func parseHTMLHits(body string) []Hit {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil
	}

	var hits []Hit
	seen := map[string]bool{}
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		target := unwrapRedirect(href)
		if target == "" || seen[target] {
			return
		}
		seen[target] = true
		hits = append(hits, Hit{URL: target, Title: strings.TrimSpace(sel.Text())})
	})
	return hits
}

var markdownLinkRe = regexp.MustCompile(`\[([^\]]*)\]\((https?://[^)\s]+)\)`)

// parseMarkdownHits extracts links from a markdown-rendered results page.
func parseMarkdownHits(body string) []Hit {
	var hits []Hit
	seen := map[string]bool{}
	for _, m := range markdownLinkRe.FindAllStringSubmatch(body, -1) {
		target := unwrapRedirect(m[2])
		if target == "" || seen[target] {
			continue
		}
		seen[target] = true
		hits = append(hits, Hit{URL: target, Title: strings.TrimSpace(m[1])})
	}
	return hits
}

// unwrapRedirect resolves DDG's result links to the destination URL. Returns
// empty for navigation links and anything that is not an outbound result.
func unwrapRedirect(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	// Relative hrefs on the results page are DDG's own redirect links.
	host := strings.ToLower(u.Hostname())
	if host == "" || strings.HasSuffix(host, "duckduckgo.com") {
		q := u.Query()
		// Organic results: /l/?uddg=<encoded target>.
		if target := q.Get("uddg"); target != "" {
			if dest, err := url.QueryUnescape(target); err == nil {
				return unwrapRedirect(dest)
			}
			return ""
		}
		// Ad results: y.js?ad_domain=<domain>.
		if adDomain := q.Get("ad_domain"); adDomain != "" {
			return "https://" + adDomain
		}
		return ""
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}
