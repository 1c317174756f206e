package validator

import (
	"regexp"
	"strings"
)

// spaceRegexp is compiled once at package init and reused across all Sanitize calls.
var spaceRegexp = regexp.MustCompile(`\s+`)

const defaultMaxQueryRunes = 4000

// InputValidator normalizes the user query before classification and retrieval.
type InputValidator struct {
	maxRunes int
}

func NewInputValidator(maxRunes int) *InputValidator {
	if maxRunes <= 0 {
		maxRunes = defaultMaxQueryRunes
	}
	return &InputValidator{maxRunes: maxRunes}
}

// Sanitize trims, collapses whitespace, drops invalid UTF-8 and caps the length.
func (v *InputValidator) Sanitize(query string) string {
	query = strings.ToValidUTF8(query, "")
	query = strings.TrimSpace(query)
	query = spaceRegexp.ReplaceAllString(query, " ")

	runes := []rune(query)
	if len(runes) > v.maxRunes {
		query = string(runes[:v.maxRunes])
	}
	return query
}
