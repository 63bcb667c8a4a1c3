// Package enrich crawls lead sites and extracts contact signals.
package enrich

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/outreach-cli/internal/model"
)

var (
	emailRe = regexp.MustCompile(`(?i)\b[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}\b`)
	phoneRe = regexp.MustCompile(`(?:\+1[-.\s]?)?\(?\b\d{3}\b\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`)
)

// contactLinkHints mark subpages worth crawling after the homepage.
var contactLinkHints = []string{"contact", "about", "team", "leadership", "company", "locations"}

// roleEmailHints prefer addresses belonging to the people who buy automation.
var roleEmailHints = []string{"operations", "plant", "manufacturing", "engineering", "automation"}

// genericPrefixes are catch-all mailboxes, used only when nothing better shows up.
var genericPrefixes = []string{"info@", "contact@", "sales@"}

// imageExtensions filter regex matches that are actually asset filenames,
// e.g. "logo@2x.png".
var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp"}

// PageExtract is everything pulled from one fetched page.
type PageExtract struct {
	Title       string
	CompanyName string
	Text        string
	Emails      []string
	Phones      []string
	FormURL     string
	LinkedInURL string
	Links       []string
}

// ExtractPage parses one HTML page. pageURL anchors relative links.
func ExtractPage(pageURL, html string) PageExtract {
	var ex PageExtract

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		// Unparseable HTML still gets the regex pass over raw bytes.
		ex.Emails = findEmails(html)
		ex.Phones = uniqueMatches(phoneRe, html)
		return ex
	}

	base, _ := url.Parse(pageURL)

	ex.Title = strings.TrimSpace(doc.Find("title").First().Text())
	ex.CompanyName = guessCompanyName(doc, ex.Title)

	doc.Find("script, style, noscript").Remove()
	ex.Text = collapseWhitespace(doc.Find("body").Text())

	seen := map[string]bool{}
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)

		if strings.HasPrefix(strings.ToLower(href), "mailto:") {
			addr := strings.SplitN(href[len("mailto:"):], "?", 2)[0]
			if emailRe.MatchString(addr) {
				ex.Emails = append(ex.Emails, strings.ToLower(addr))
			}
			return
		}

		abs := resolveLink(base, href)
		if abs == "" || seen[abs] {
			return
		}
		seen[abs] = true

		if ex.LinkedInURL == "" && strings.Contains(strings.ToLower(abs), "linkedin.com/") {
			ex.LinkedInURL = abs
		}
		ex.Links = append(ex.Links, abs)
	})

	ex.Emails = append(ex.Emails, findEmails(ex.Text)...)
	ex.Emails = dedupeLower(ex.Emails)
	ex.Phones = uniqueMatches(phoneRe, ex.Text)

	if formURL := findContactForm(doc, base, pageURL); formURL != "" {
		ex.FormURL = formURL
	}
	return ex
}

// findEmails applies the email pattern and drops asset-filename false positives.
func findEmails(text string) []string {
	var out []string
	for _, m := range emailRe.FindAllString(text, -1) {
		lower := strings.ToLower(m)
		if isImageName(lower) {
			continue
		}
		out = append(out, lower)
	}
	return out
}

func isImageName(email string) bool {
	for _, ext := range imageExtensions {
		if strings.HasSuffix(email, ext) {
			return true
		}
	}
	return false
}

// PickPrimaryEmail chooses the best address: role-hinted first, then any
// non-generic, then a generic catch-all.
func PickPrimaryEmail(emails []string) string {
	if len(emails) == 0 {
		return ""
	}
	for _, e := range emails {
		for _, hint := range roleEmailHints {
			if strings.Contains(e, hint) {
				return e
			}
		}
	}
	for _, e := range emails {
		if !isGenericEmail(e) {
			return e
		}
	}
	return emails[0]
}

func isGenericEmail(email string) bool {
	for _, prefix := range genericPrefixes {
		if strings.HasPrefix(email, prefix) {
			return true
		}
	}
	return false
}

// IsGenericEmail reports whether the address is a catch-all mailbox.
func IsGenericEmail(email string) bool { return isGenericEmail(strings.ToLower(email)) }

// IsRoleEmail reports whether the address hints at an operations-side owner.
func IsRoleEmail(email string) bool {
	lower := strings.ToLower(email)
	for _, hint := range roleEmailHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

// findContactForm looks for a form with indicative field names and returns
// its action URL, or the page URL itself when the action is inline.
func findContactForm(doc *goquery.Document, base *url.URL, pageURL string) string {
	formURL := ""
	doc.Find("form").EachWithBreak(func(_ int, form *goquery.Selection) bool {
		indicative := false
		form.Find("input, textarea").Each(func(_ int, field *goquery.Selection) {
			name, _ := field.Attr("name")
			fieldType, _ := field.Attr("type")
			n := strings.ToLower(name)
			if fieldType == "email" || strings.Contains(n, "email") || strings.Contains(n, "message") || strings.Contains(n, "inquiry") {
				indicative = true
			}
		})
		if !indicative {
			return true
		}
		action, _ := form.Attr("action")
		if abs := resolveLink(base, action); abs != "" {
			formURL = abs
		} else {
			formURL = pageURL
		}
		return false
	})
	return formURL
}

// CandidateSubpages picks same-host links that look like contact or about
// pages, in hint order, capped at max.
func CandidateSubpages(homepage string, links []string, max int) []string {
	base, err := url.Parse(homepage)
	if err != nil {
		return nil
	}

	var out []string
	seen := map[string]bool{homepage: true}
	for _, hint := range contactLinkHints {
		for _, link := range links {
			if len(out) >= max {
				return out
			}
			u, err := url.Parse(link)
			if err != nil || !strings.EqualFold(u.Hostname(), base.Hostname()) {
				continue
			}
			if seen[link] || !strings.Contains(strings.ToLower(u.Path), hint) {
				continue
			}
			seen[link] = true
			out = append(out, link)
		}
	}
	return out
}

func guessCompanyName(doc *goquery.Document, title string) string {
	if meta, ok := doc.Find(`meta[property="og:site_name"]`).Attr("content"); ok {
		if name := strings.TrimSpace(meta); name != "" {
			return name
		}
	}
	// "Acme Machining | CNC Services" keeps the part before the separator.
	for _, sep := range []string{" | ", " - ", " – ", " :: "} {
		if i := strings.Index(title, sep); i > 0 {
			return strings.TrimSpace(title[:i])
		}
	}
	return strings.TrimSpace(title)
}

func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return ""
	}
	ref.Fragment = ""
	return ref.String()
}

var whitespaceRe = regexp.MustCompile(`\s+`)

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

func uniqueMatches(re *regexp.Regexp, text string) []string {
	return dedupeLower(re.FindAllString(text, -1))
}

func dedupeLower(in []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// BuildSignals folds per-page extracts into one signal set for the lead.
func BuildSignals(extracts []PageExtract) model.Signals {
	var sig model.Signals
	var emails []string
	for _, ex := range extracts {
		emails = append(emails, ex.Emails...)
		if sig.Phone == "" && len(ex.Phones) > 0 {
			sig.Phone = ex.Phones[0]
		}
		if sig.FormURL == "" && ex.FormURL != "" {
			sig.FormURL = ex.FormURL
		}
		if sig.LinkedInURL == "" && ex.LinkedInURL != "" {
			sig.LinkedInURL = ex.LinkedInURL
		}
	}
	sig.Email = PickPrimaryEmail(dedupeLower(emails))
	return sig
}
