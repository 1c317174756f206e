package validator

import (
	"strings"
	"testing"

	"github.com/ashutoshrp06/dealroom-orchestrator/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rulesHit(findings []types.Finding) []string {
	names := make([]string, 0, len(findings))
	for _, f := range findings {
		names = append(names, f.Rule)
	}
	return names
}

func TestOutputValidator_Validate(t *testing.T) {
	v := NewOutputValidator()

	tests := []struct {
		name  string
		text  string
		rules []string
	}{
		{"clean", "The SPA was signed in March.", []string{}},
		{"hedging", "I think the deal closes soon and it will probably slip.", []string{"hedging", "hedging"}},
		{"bare currency", "Revenue reached $12.5 million last year.", []string{"currency"}},
		{"euro amount", "Net debt stands at 40 m€ after refinancing.", []string{"currency"}},
		{"cited currency", "Revenue reached $12.5 million last year [1].", []string{}},
		{"cited hedging", "Churn is likely to rise (source: board pack).", []string{}},
		{"unlikely is not hedging", "A breach is unlikely given the covenants.", []string{}},
		{"percentage", "Margin improved to 18.5% in Q4.", []string{"percentage"}},
		{"empty", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.Validate(tt.text)
			assert.Equal(t, tt.rules, rulesHit(got))
		})
	}
}

func TestOutputValidator_DoesNotModifyText(t *testing.T) {
	v := NewOutputValidator()
	text := "I think EBITDA was probably $3m."
	original := strings.Clone(text)

	findings := v.Validate(text)
	assert.NotEmpty(t, findings)
	assert.Equal(t, original, text)
	assert.Equal(t, "I think", findings[0].Match)
	assert.Equal(t, 0, findings[0].Offset)
}

func TestOutputValidator_MarkerOutsideWindow(t *testing.T) {
	v := NewOutputValidator()
	text := "Revenue was $5 million. " + strings.Repeat("Filler sentence here. ", 10) + "[1]"
	assert.Equal(t, []string{"currency"}, rulesHit(v.Validate(text)))
}

func TestParseRules(t *testing.T) {
	data := []byte(`
rules:
  - name: absolute-claims
    pattern: '(?i)\b(guaranteed|certainly)\b'
    severity: info
  - name: forecast
    pattern: '(?i)\bwill reach\b'
    require_citation: true
`)
	rules, err := ParseRules(data)
	require.NoError(t, err)
	require.Len(t, rules, len(DefaultRules())+2)

	extra := rules[len(rules)-2:]
	assert.Equal(t, "absolute-claims", extra[0].Name)
	assert.Equal(t, types.SeverityInfo, extra[0].Severity)
	assert.False(t, extra[0].RequireCitation)
	assert.Equal(t, types.SeverityWarning, extra[1].Severity)
	assert.True(t, extra[1].RequireCitation)

	v := NewOutputValidator(rules...)
	assert.Equal(t, []string{"absolute-claims"}, rulesHit(v.Validate("Returns are guaranteed.")))
}

func TestParseRules_Invalid(t *testing.T) {
	_, err := ParseRules([]byte("rules:\n  - name: broken\n    pattern: '(['\n"))
	assert.Error(t, err)

	_, err = ParseRules([]byte("rules:\n  - pattern: 'x'\n"))
	assert.Error(t, err)
}

func TestInputValidator_Sanitize(t *testing.T) {
	v := NewInputValidator(10)
	assert.Equal(t, "a b c", v.Sanitize("  a \n\t b   c  "))
	assert.Equal(t, "0123456789", v.Sanitize("0123456789abcdef"))
	assert.Equal(t, "ok", v.Sanitize("o\xffk"))
}
