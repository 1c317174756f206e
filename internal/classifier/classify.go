// Package classifier maps raw query text to a complexity tier and an intent.
//
// Classification is lexical and deterministic: it never performs I/O, because
// its output gates the retrieval strategy and must not add latency.
package classifier

import (
	"strings"

	"github.com/ashutoshrp06/dealroom-orchestrator/internal/types"
)

const (
	longQueryChars = 200
	longQueryWords = 25
	mediumWords    = 12
	greetingWords  = 4
)

var (
	greetingTerms = []string{
		"hello", "hi", "hey", "good morning", "good afternoon", "good evening",
		"thanks", "thank you", "bonjour", "salut", "merci",
	}

	metaTerms = []string{
		"what can you do", "who are you", "how do you work", "what are you",
		"help me use", "how to use you",
	}

	// comparison and aggregation verbs call for multi-source synthesis
	complexTerms = []string{
		"compare", "comparison", "versus", " vs ", " vs.", "trend", "across",
		"aggregate", "breakdown", "break down", "correlat", "impact of",
		"over time", "year over year", "yoy", "benchmark", "reconcile",
	}

	mediumTerms = []string{
		" how ", " how's", " why ", "explain", "risk", "assess", "evaluate", "describe",
		"implication", "summarize", "summary",
	}

	taskTerms = []string{
		"draft", "create", "prepare", "generate", "write", "build", "summarize",
		"list", "make", "produce",
	}
)

// Classify analyzes query text. Identical input always yields identical output.
//
// Rules (in order of priority):
//  1. Blank: simple/meta
//  2. Short greeting: simple/greeting
//  3. Meta questions about the assistant: simple/meta
//  4. Comparison or aggregation, or a paragraph-length query: complex
//  5. Explanatory or multi-part questions: medium
//  6. Everything else: simple
func Classify(query string) types.Classification {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return types.Classification{
			Complexity: types.ComplexitySimple,
			Intent:     types.IntentMeta,
			Confidence: 1.0,
		}
	}

	q := " " + strings.ToLower(trimmed) + " "
	wc := len(strings.Fields(trimmed))

	if wc <= greetingWords && hasGreeting(q) {
		return types.Classification{
			Complexity: types.ComplexitySimple,
			Intent:     types.IntentGreeting,
			Confidence: 0.95,
		}
	}

	if containsAny(q, metaTerms) {
		return types.Classification{
			Complexity: types.ComplexitySimple,
			Intent:     types.IntentMeta,
			Confidence: 0.9,
		}
	}

	complexity, confidence := classifyComplexity(q, trimmed, wc)
	return types.Classification{
		Complexity: complexity,
		Intent:     classifyIntent(q, complexity),
		Confidence: confidence,
	}
}

func classifyComplexity(q, raw string, wc int) (types.ComplexityTier, float64) {
	long := len(raw) > longQueryChars || wc > longQueryWords

	if containsAny(q, complexTerms) {
		if long {
			return types.ComplexityComplex, 0.9
		}
		return types.ComplexityComplex, 0.8
	}
	if long {
		return types.ComplexityComplex, 0.7
	}

	if containsAny(q, mediumTerms) || strings.Count(raw, "?") > 1 {
		return types.ComplexityMedium, 0.75
	}
	if wc > mediumWords {
		return types.ComplexityMedium, 0.6
	}

	return types.ComplexitySimple, 0.8
}

func classifyIntent(q string, complexity types.ComplexityTier) types.IntentCategory {
	first := firstWord(q)
	for _, verb := range taskTerms {
		if first == verb {
			return types.IntentTask
		}
	}
	if complexity == types.ComplexityComplex {
		return types.IntentAnalytical
	}
	return types.IntentFactual
}

// hasGreeting matches greeting terms on word boundaries so "hi" does not
// match "this".
func hasGreeting(q string) bool {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '!', '.', ',', '?':
			return ' '
		}
		return r
	}, q)
	cleaned = " " + strings.Join(strings.Fields(cleaned), " ") + " "
	for _, term := range greetingTerms {
		if strings.Contains(cleaned, " "+term+" ") {
			return true
		}
	}
	return false
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func firstWord(q string) string {
	fields := strings.Fields(q)
	if len(fields) == 0 {
		return ""
	}
	return strings.Trim(fields[0], ",.:;!?")
}
