// Package similarity provides the lexical concept-relatedness helpers the
// diagnosis engine uses to spot interference between concept names.
package similarity

import "strings"

// Tokenize splits a string into lowercase word tokens.
// Word characters are letters, digits, and underscores.
func Tokenize(s string) []string {
	words := make([]string, 0)
	var current strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			current.WriteRune(r)
		} else if current.Len() > 0 {
			words = append(words, strings.ToLower(current.String()))
			current.Reset()
		}
	}
	if current.Len() > 0 {
		words = append(words, strings.ToLower(current.String()))
	}
	return words
}

// stopwords are tokens ignored when counting shared significant words
// between concept names.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "as": true, "at": true,
	"by": true, "for": true, "from": true, "in": true, "is": true,
	"of": true, "on": true, "or": true, "the": true, "to": true,
	"with": true,
}

// SignificantTokens returns the non-stopword tokens of s, lowercased.
func SignificantTokens(s string) []string {
	tokens := Tokenize(s)
	out := tokens[:0]
	for _, t := range tokens {
		if !stopwords[t] {
			out = append(out, t)
		}
	}
	return out
}

// SharedSignificantTokens counts distinct non-stopword tokens present in
// both a and b.
func SharedSignificantTokens(a, b string) int {
	setA := make(map[string]bool)
	for _, t := range SignificantTokens(a) {
		setA[t] = true
	}
	shared := 0
	seen := make(map[string]bool)
	for _, t := range SignificantTokens(b) {
		if setA[t] && !seen[t] {
			shared++
			seen[t] = true
		}
	}
	return shared
}

// ConceptsRelated reports whether two concept names look related:
// they share a 5-character prefix (case-insensitive) or at least two
// significant words. This is a deliberately crude lexical proxy for
// semantic relatedness; callers treat it as the compatibility contract,
// not an approximation to silently improve on.
func ConceptsRelated(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la == lb {
		return true
	}
	if len(la) >= 5 && len(lb) >= 5 && la[:5] == lb[:5] {
		return true
	}
	return SharedSignificantTokens(a, b) >= 2
}
