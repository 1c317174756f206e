package classifier

import (
	"strings"
	"testing"
	"time"

	"github.com/ashutoshrp06/dealroom-orchestrator/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		complexity types.ComplexityTier
		intent     types.IntentCategory
	}{
		{"empty", "", types.ComplexitySimple, types.IntentMeta},
		{"blank", "   \n\t", types.ComplexitySimple, types.IntentMeta},
		{"greeting", "Hello", types.ComplexitySimple, types.IntentGreeting},
		{"greeting with punctuation", "Hi there!", types.ComplexitySimple, types.IntentGreeting},
		{"meta", "What can you do for me?", types.ComplexitySimple, types.IntentMeta},
		{"simple lookup", "What is the EBITDA?", types.ComplexitySimple, types.IntentFactual},
		{"simple revenue", "What is the revenue?", types.ComplexitySimple, types.IntentFactual},
		{"explanatory", "Why did gross margin drop last quarter?", types.ComplexityMedium, types.IntentFactual},
		{"comparison", "Compare revenue and EBITDA between 2022 and 2023", types.ComplexityComplex, types.IntentAnalytical},
		{"task", "Draft a summary of the key risks", types.ComplexityMedium, types.IntentTask},
		{"multiple questions", "Who is the CEO? Where is the HQ?", types.ComplexityMedium, types.IntentFactual},
		{"this is not hi", "this deal", types.ComplexitySimple, types.IntentFactual},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.query)
			assert.Equal(t, tt.complexity, got.Complexity)
			assert.Equal(t, tt.intent, got.Intent)
			assert.GreaterOrEqual(t, got.Confidence, 0.0)
			assert.LessOrEqual(t, got.Confidence, 1.0)
		})
	}
}

func TestClassify_LongQueryBiasesComplex(t *testing.T) {
	paragraph := strings.Repeat("the company reported figures for the period ", 10)
	got := Classify(paragraph)
	assert.Equal(t, types.ComplexityComplex, got.Complexity)
}

func TestClassify_Deterministic(t *testing.T) {
	query := "How exposed is the target to customer concentration?"
	first := Classify(query)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Classify(query))
	}
}

func TestCache_ScopesByDeal(t *testing.T) {
	cache := NewCache(8, time.Minute)

	a := cache.Classify("deal-a", "What is the revenue?")
	b := cache.Classify("deal-b", "What is the revenue?")
	assert.Equal(t, a, b)
	assert.Equal(t, 2, cache.size())

	cache.Classify("deal-a", "What is the revenue?")
	assert.Equal(t, 2, cache.size())
}

func TestCache_NilClassifiesDirectly(t *testing.T) {
	var cache *Cache
	got := cache.Classify("deal", "Hello")
	assert.Equal(t, types.IntentGreeting, got.Intent)
	assert.Equal(t, 0, cache.size())
}
