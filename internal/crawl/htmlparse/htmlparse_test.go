package htmlparse

import (
	"strings"
	"testing"
)

func TestParseExtractsTitleAndContent(t *testing.T) {
	html := `<html><head><title> Hello World </title></head>
		<body><script>ignored()</script><p>Real  content   here.</p></body></html>`

	record, err := New().Parse("https://news.example.com/tech/story", []byte(html))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if record.Title != "Hello World" {
		t.Errorf("title = %q", record.Title)
	}
	if !strings.Contains(record.Content, "Real content here.") {
		t.Errorf("content = %q", record.Content)
	}
	if strings.Contains(record.Content, "ignored()") {
		t.Errorf("script content leaked into content: %q", record.Content)
	}
}

func TestParseCategoryFromMetaTag(t *testing.T) {
	html := `<html><head><title>T</title>
		<meta property="article:section" content="finance"></head><body></body></html>`

	record, err := New().Parse("https://news.example.com/misc/story", []byte(html))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if record.Category != "finance" {
		t.Errorf("category = %q, want finance", record.Category)
	}
}

func TestParseCategoryFromPathFallback(t *testing.T) {
	html := `<html><head><title>T</title></head><body></body></html>`

	record, err := New().Parse("https://news.example.com/sports/story", []byte(html))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if record.Category != "sports" {
		t.Errorf("category = %q, want sports", record.Category)
	}
}

func TestParseCategorySkipsShortLanguageSegment(t *testing.T) {
	html := `<html><head><title>T</title></head><body></body></html>`

	record, err := New().Parse("https://news.example.com/en/story", []byte(html))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if record.Category != "general" {
		t.Errorf("category = %q, want general", record.Category)
	}
}

func TestParsePublishedAtFromMeta(t *testing.T) {
	html := `<html><head><title>T</title>
		<meta property="article:published_time" content="2024-03-15T10:00:00Z"></head><body></body></html>`

	record, err := New().Parse("https://news.example.com/tech/story", []byte(html))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if record.PublishedAt == nil {
		t.Fatal("expected published_at to be set")
	}
	if record.PublishedAt.Year() != 2024 {
		t.Errorf("published_at year = %d, want 2024", record.PublishedAt.Year())
	}
}

func TestParseSelectsRepresentativeImageByAltText(t *testing.T) {
	html := `<html><head><title>T</title></head><body>
		<img src="/thumb.png" alt="x">
		<img src="/hero.png" alt="a beautiful sunset over the bay">
	</body></html>`

	record, err := New().Parse("https://news.example.com/tech/story", []byte(html))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var hero, thumb string
	for _, img := range record.Images {
		if strings.Contains(img.CanonicalURL, "hero") {
			hero = img.Hash
		}
		if strings.Contains(img.CanonicalURL, "thumb") {
			thumb = img.Hash
		}
	}
	if record.RepresentativeImage != hero {
		t.Errorf("representative image = %s, want hero (%s), thumb was %s", record.RepresentativeImage, hero, thumb)
	}
}

func TestParseSearchTextIncludesAltText(t *testing.T) {
	html := `<html><head><title>T</title></head><body>
		<p>body text</p>
		<img src="/a.png" alt="sunset photo">
	</body></html>`

	record, err := New().Parse("https://news.example.com/tech/story", []byte(html))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !strings.Contains(record.SearchText, "sunset photo") {
		t.Errorf("search_text = %q, missing alt text", record.SearchText)
	}
}
