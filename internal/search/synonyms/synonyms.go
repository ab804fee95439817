// Package synonyms implements the SynonymExpander: query-term expansion
// against a JSON synonym dictionary loaded once at construction. Grounded
// on the recovered src/services/synonym_expander.py, generalized from a
// print-and-degrade load path into a structured-logging one via zerolog.
package synonyms

import (
	"encoding/json"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// Expander expands each term of a normalized query into a sorted,
// deduplicated OR group with its configured synonyms, joining groups with
// spaces (AND semantics in the target full-text dialect).
type Expander struct {
	synonyms map[string][]string
	log      zerolog.Logger
}

// New loads the dictionary at path. A missing or malformed file degrades
// gracefully to identity expansion rather than failing construction.
func New(path string, log zerolog.Logger) *Expander {
	return &Expander{synonyms: loadDictionary(path, log), log: log.With().Str("component", "synonym_expander").Logger()}
}

func loadDictionary(path string, log zerolog.Logger) map[string][]string {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn().Str("path", path).Err(err).Msg("synonym file not found, degrading to identity expansion")
		return map[string][]string{}
	}

	var dict map[string][]string
	if err := json.Unmarshal(data, &dict); err != nil {
		log.Error().Str("path", path).Err(err).Msg("failed to parse synonym file, degrading to identity expansion")
		return map[string][]string{}
	}
	return dict
}

// Expand tokenizes normalizedQuery on whitespace and, for each token,
// emits either the bare token or a "(t1 OR t2 OR ...)" group over the
// sorted deduplicated union of {token} and its synonyms.
func (e *Expander) Expand(normalizedQuery string) string {
	if normalizedQuery == "" {
		return ""
	}

	terms := strings.Fields(normalizedQuery)
	groups := make([]string, 0, len(terms))

	for _, term := range terms {
		variants := dedupSorted(append([]string{term}, e.synonyms[term]...))
		if len(variants) > 1 {
			groups = append(groups, "("+strings.Join(variants, " OR ")+")")
		} else {
			groups = append(groups, term)
		}
	}

	return strings.Join(groups, " ")
}

func dedupSorted(values []string) []string {
	seen := make(map[string]bool, len(values))
	unique := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			unique = append(unique, v)
		}
	}
	sort.Strings(unique)
	return unique
}
