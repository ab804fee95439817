// Package htmlparse implements the page-structure extraction step of the
// crawl pipeline: raw HTML in, a model.PageRecord out. Grounded on the
// teacher's GoqueryParser (crawler/fetcher/parser.go) for DOM traversal and
// on the recovered original_source/src/crawler/parser.py for the
// title/content/date/category heuristics, which the distilled spec treats
// as an opaque collaborator (spec.md intro, "HTML parser's field
// heuristics... treated as a black-box collaborator").
package htmlparse

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/corvuscrawl/seeker/internal/crawl/linkextract"
	"github.com/corvuscrawl/seeker/internal/crawl/model"
)

// dateMetaCandidates lists, in priority order, the meta-tag attribute/value
// pairs checked for a publication date, matching the original parser.
var dateMetaCandidates = []struct{ attr, value string }{
	{"property", "article:published_time"},
	{"name", "pubdate"},
	{"name", "date"},
	{"itemprop", "datePublished"},
}

// Parser turns raw HTML for a given URL into a structured PageRecord.
type Parser struct{}

// New creates a Parser.
func New() *Parser { return &Parser{} }

// Parse extracts title, cleaned content, published_at, category, images and
// outbound links from html, building the full PageRecord (including
// search_text and the representative image) for the given page URL.
func (p *Parser) Parse(pageURL string, html []byte) (model.PageRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(html)))
	if err != nil {
		return model.PageRecord{}, err
	}

	doc.Find("script,style,nav,footer,header").Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = "No Title"
	}

	content := cleanText(doc.Selection.Text())

	var publishedAt *string
	for _, cand := range dateMetaCandidates {
		sel := doc.Find("meta[" + cand.attr + "=\"" + cand.value + "\"]").First()
		if dateContent, ok := sel.Attr("content"); ok && dateContent != "" {
			publishedAt = &dateContent
			break
		}
	}

	category := extractCategory(pageURL, doc)
	images := extractImages(pageURL, doc)
	links, err := linkextract.Extract(pageURL, doc)
	if err != nil {
		return model.PageRecord{}, err
	}

	record := model.PageRecord{
		URL:                 pageURL,
		Title:               title,
		Content:             content,
		Category:            category,
		Images:              images,
		Links:               links,
		RepresentativeImage: selectRepresentativeImage(images),
	}
	if publishedAt != nil {
		t, ok := parsePublishedAt(*publishedAt)
		if ok {
			record.PublishedAt = &t
		}
	}
	record.SearchText = buildSearchText(title, content, images)

	return record, nil
}

func cleanText(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

func extractCategory(pageURL string, doc *goquery.Document) string {
	if sel := doc.Find(`meta[property="article:section"]`).First(); sel.Length() > 0 {
		if v, ok := sel.Attr("content"); ok && v != "" {
			return v
		}
	}

	parsed, err := url.Parse(pageURL)
	if err != nil {
		return "general"
	}
	var segments []string
	for _, seg := range strings.Split(parsed.Path, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	if len(segments) > 0 && len(segments[0]) > 2 {
		return segments[0]
	}
	return "general"
}

func extractImages(pageURL string, doc *goquery.Document) []model.PageImage {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	var images []model.PageImage
	doc.Find("img[src]").Each(func(i int, sel *goquery.Selection) {
		src, _ := sel.Attr("src")
		if src == "" {
			return
		}
		ref, err := url.Parse(src)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(ref)
		canonical := canonicalizeImageURL(resolved)
		alt, _ := sel.Attr("alt")

		images = append(images, model.PageImage{
			ImageAsset: model.ImageAsset{
				Hash:         hashImageURL(canonical),
				CanonicalURL: canonical,
			},
			AltText:  alt,
			Position: i,
		})
	})
	return images
}

// canonicalizeImageURL drops the query string so that the same asset
// fetched with different cache-busting parameters hashes identically.
func canonicalizeImageURL(u *url.URL) string {
	clean := *u
	clean.RawQuery = ""
	clean.Fragment = ""
	return clean.String()
}

func hashImageURL(canonical string) string {
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// selectRepresentativeImage picks the best image hash per the recovered
// heuristic: meaningful alt text (len > 5) first, then earliest position.
func selectRepresentativeImage(images []model.PageImage) string {
	if len(images) == 0 {
		return ""
	}
	sorted := make([]model.PageImage, len(images))
	copy(sorted, images)
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, pj := altPriority(sorted[i].AltText), altPriority(sorted[j].AltText)
		if pi != pj {
			return pi < pj
		}
		return sorted[i].Position < sorted[j].Position
	})
	return sorted[0].Hash
}

func altPriority(alt string) int {
	if len(alt) > 5 {
		return 0
	}
	return 1
}

// publishedAtLayouts covers the common date formats seen in article
// meta tags; a value matching none of them is treated as unobtainable
// rather than guessed at, per the original parser's stated preference.
var publishedAtLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02",
	"2006-01-02 15:04:05",
}

func parsePublishedAt(raw string) (time.Time, bool) {
	for _, layout := range publishedAtLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func buildSearchText(title, content string, images []model.PageImage) string {
	parts := []string{title, content}
	for _, img := range images {
		if img.AltText != "" {
			parts = append(parts, img.AltText)
		}
	}
	return strings.Join(parts, " ")
}
