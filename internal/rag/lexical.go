package rag

import (
	"hash/fnv"
	"sort"
	"strings"
	"unicode"
)

// stopwords carry no lexical signal for the sparse index.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "by": {},
	"do": {}, "does": {}, "for": {}, "from": {}, "in": {}, "is": {}, "it": {}, "of": {},
	"on": {}, "or": {}, "the": {}, "to": {}, "was": {}, "were": {}, "what": {}, "with": {},
}

// lexicalTokens lowercases text, splits it on whitespace and punctuation, and
// drops stopwords. Currency and percent signs are kept as their own tokens.
func lexicalTokens(text string) []string {
	var tokens []string
	for _, word := range strings.Fields(strings.ToLower(text)) {
		for _, tok := range splitOnPunctuation(word) {
			if _, skip := stopwords[tok]; skip {
				continue
			}
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// splitOnPunctuation splits a word around punctuation marks, discarding them
// unless they are symbols with meaning in financial text.
func splitOnPunctuation(word string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}
	for _, r := range word {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			current.WriteRune(r)
		case r == '$' || r == '€' || r == '£' || r == '%':
			flush()
			tokens = append(tokens, string(r))
		default:
			flush()
		}
	}
	flush()
	return tokens
}

// sparseVector builds a hashed term-frequency vector of the query tokens.
// Indices are sorted and unique.
func sparseVector(text string) ([]uint32, []float32) {
	counts := make(map[uint32]float32)
	for _, tok := range lexicalTokens(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		counts[h.Sum32()]++
	}

	indices := make([]uint32, 0, len(counts))
	for idx := range counts {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	values := make([]float32, len(indices))
	for i, idx := range indices {
		values[i] = counts[idx]
	}
	return indices, values
}
