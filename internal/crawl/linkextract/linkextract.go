// Package linkextract implements the LinkExtractor: given a base URL and a
// parsed DOM, returns the set of same-host, schema-valid, normalized
// outbound links. Grounded on the teacher's goquery-based anchor extraction
// in fetcher/parser.go, generalized from "build absolute URLs, dedup
// globally" to the spec's same-host/exclusion/fragment rules, applied once
// per page rather than across an entire crawl run.
package linkextract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// excludedPaths mirrors the spec's "/login", "/logout", "/admin" style
// exclusion list.
var excludedPaths = regexp.MustCompile(`(?i)/(login|logout|signout|admin)(/|$)`)

// Extract returns the deduplicated, insertion-ordered set of outbound links
// from doc that share baseURL's host, use http/https, aren't
// mailto/tel/javascript/fragment-only, and don't match an excluded path.
// Fragments are stripped; query strings are preserved.
func Extract(baseURL string, doc *goquery.Document) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var links []string

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		normalized, ok := resolve(base, href)
		if !ok {
			return
		}
		if seen[normalized] {
			return
		}
		seen[normalized] = true
		links = append(links, normalized)
	})

	return links, nil
}

func resolve(base *url.URL, href string) (string, bool) {
	trimmed := strings.TrimSpace(href)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", false
	}
	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:") || strings.HasPrefix(lower, "javascript:") {
		return "", false
	}

	ref, err := url.Parse(trimmed)
	if err != nil {
		return "", false
	}
	resolved := base.ResolveReference(ref)

	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	if resolved.Host != base.Host {
		return "", false
	}
	if excludedPaths.MatchString(resolved.Path) {
		return "", false
	}

	resolved.Fragment = ""
	return resolved.String(), true
}
