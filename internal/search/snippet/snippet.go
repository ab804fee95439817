// Package snippet implements the SnippetGenerator: picks the most
// query-relevant sentence from page content and truncates it for display.
// Grounded on spec.md §4.11.
package snippet

import (
	"strings"
)

const maxLength = 120

// sentenceDelimiters splits content into candidate sentences.
var sentenceDelimiters = ".!?。"

// Generate returns the first max-scoring sentence of content (scored by
// count of distinct lowercased tokens of normalizedQuery it contains),
// truncated to 120 characters with a trailing ellipsis. If no sentence
// contains any query term, returns the truncated head of content. Empty
// content yields an empty snippet.
func Generate(content, normalizedQuery string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}

	sentences := splitSentences(content)
	terms := dedupTerms(strings.Fields(normalizedQuery))

	best := ""
	bestScore := -1
	for _, sentence := range sentences {
		score := scoreSentence(sentence, terms)
		if score > bestScore {
			bestScore = score
			best = sentence
		}
	}

	if bestScore <= 0 {
		return truncate(content)
	}
	return truncate(best)
}

func splitSentences(content string) []string {
	var sentences []string
	var builder strings.Builder
	for _, r := range content {
		builder.WriteRune(r)
		if strings.ContainsRune(sentenceDelimiters, r) {
			if s := strings.TrimSpace(builder.String()); s != "" {
				sentences = append(sentences, s)
			}
			builder.Reset()
		}
	}
	if remainder := strings.TrimSpace(builder.String()); remainder != "" {
		sentences = append(sentences, remainder)
	}
	return sentences
}

func dedupTerms(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	unique := make([]string, 0, len(terms))
	for _, term := range terms {
		if !seen[term] {
			seen[term] = true
			unique = append(unique, term)
		}
	}
	return unique
}

func scoreSentence(sentence string, terms []string) int {
	lower := strings.ToLower(sentence)
	score := 0
	for _, term := range terms {
		if term != "" && strings.Contains(lower, term) {
			score++
		}
	}
	return score
}

func truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}
	return string(runes[:maxLength]) + "..."
}
