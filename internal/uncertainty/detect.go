// Package uncertainty derives a confidence signal from retrieval quality.
package uncertainty

import (
	"github.com/ashutoshrp06/dealroom-orchestrator/internal/types"
)

// Directives injected into the system prompt, one per non-none level.
const (
	DirectiveNoDocuments = "No documents in the Data Room — invite upload."
	DirectiveNoRelevant  = "Nothing relevant found among existing documents — offer to add to a follow-up/Q&A list."
	DirectiveHigh        = "Limited relevant information — answer must hedge and attribute weakly."
	DirectiveMedium      = "Partially relevant information — qualify every claim and cite the supporting source."
	DirectiveLow         = "Mostly relevant information — answer directly but point out any gaps in the sources."
)

// Score thresholds on the best citation relevance.
const (
	highThreshold   = 0.3
	mediumThreshold = 0.5
	lowThreshold    = 0.7
)

// Detect maps citation relevance and document availability to an uncertainty
// level. Rules apply in order and the first match wins. Callers without a
// deal context must pass hasDocuments=false.
func Detect(citations []types.SourceCitation, hasDocuments bool) types.Uncertainty {
	if len(citations) == 0 {
		if !hasDocuments {
			return types.Uncertainty{Level: types.UncertaintyComplete, Directive: DirectiveNoDocuments}
		}
		return types.Uncertainty{Level: types.UncertaintyComplete, Directive: DirectiveNoRelevant}
	}

	best := MaxScore(citations)
	switch {
	case best < highThreshold:
		return types.Uncertainty{Level: types.UncertaintyHigh, Directive: DirectiveHigh}
	case best < mediumThreshold:
		return types.Uncertainty{Level: types.UncertaintyMedium, Directive: DirectiveMedium}
	case best < lowThreshold:
		return types.Uncertainty{Level: types.UncertaintyLow, Directive: DirectiveLow}
	default:
		return types.Uncertainty{Level: types.UncertaintyNone}
	}
}

// DetectForDeal applies Detect with the document signal of an optional deal.
// An absent deal counts as having no documents.
func DetectForDeal(citations []types.SourceCitation, deal types.OptionalDeal) types.Uncertainty {
	return Detect(citations, deal.HasDocuments())
}

// MaxScore returns the highest relevance score, or 0 for no citations.
func MaxScore(citations []types.SourceCitation) float64 {
	best := 0.0
	for _, c := range citations {
		if c.RelevanceScore > best {
			best = c.RelevanceScore
		}
	}
	return best
}
