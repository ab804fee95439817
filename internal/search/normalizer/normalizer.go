// Package normalizer implements the QueryNormalizer: a deterministic,
// pure-function pipeline turning raw query text into its canonical form.
// Grounded on the recovered normalization step in the original query
// pipeline and SPEC_FULL's domain-stack decision to reach for
// golang.org/x/text's NFKC transform rather than hand-roll Unicode
// normalization.
package normalizer

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize applies Unicode NFKC, case-folds to lower, collapses all
// whitespace runs to a single space, and trims. Empty input yields empty
// output; the same input always produces the same output.
func Normalize(query string) string {
	folded := norm.NFKC.String(query)
	folded = strings.ToLower(folded)
	return strings.Join(strings.Fields(folded), " ")
}
