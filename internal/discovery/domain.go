package discovery

import (
	"net/url"
	"regexp"
	"strings"
)

var domainRe = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?(\.[a-z0-9]([a-z0-9-]*[a-z0-9])?)+$`)

// NormalizeDomain reduces a result URL to its registrable-ish root: lowercase
// host, no port, no leading www. An empty return means the URL is unusable.
func NormalizeDomain(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		// Bare "acme.test/contact" parses with an empty host.
		if i := strings.IndexAny(u.Path, "/?"); i >= 0 {
			host = strings.ToLower(u.Path[:i])
		} else {
			host = strings.ToLower(u.Path)
		}
	}
	host = strings.TrimPrefix(host, "www.")
	if !domainRe.MatchString(host) {
		return ""
	}
	return host
}

// Excluded reports whether domain matches one of the excluded domains,
// either exactly or as a subdomain.
func Excluded(domain string, excluded []string) bool {
	for _, ex := range excluded {
		if domain == ex || strings.HasSuffix(domain, "."+ex) {
			return true
		}
	}
	return false
}
