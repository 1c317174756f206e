package llm

import (
	"fmt"
	"strings"

	"github.com/ashutoshrp06/dealroom-orchestrator/internal/specialist"
	"github.com/ashutoshrp06/dealroom-orchestrator/internal/types"
)

const maxEvidenceRunes = 500

// basePrompt is the behavior contract sent with every turn.
const basePrompt = `You are the Data Room assistant for an M&A deal team.

Rules:
- Answer only from the evidence listed below. Never invent figures, names or dates.
- Cite every factual claim with its evidence marker, for example [1] or [2, 3].
- If the evidence does not answer the question, say so plainly and suggest a follow-up question for the seller.
- Keep answers concise and professional.
- When a question needs deeper work, call exactly one specialist tool instead of answering.`

// PromptInput carries everything the system prompt is composed from.
type PromptInput struct {
	Directive string
	Deal      types.OptionalDeal
	Citations []types.SourceCitation
}

// BuildSystemPrompt composes the base contract, the uncertainty directive, the
// deal name, the numbered evidence and the specialist routing menu, in that order.
func BuildSystemPrompt(in PromptInput) string {
	var sb strings.Builder
	sb.WriteString(basePrompt)
	sb.WriteString("\n\n")

	if in.Directive != "" {
		sb.WriteString("Confidence guidance: ")
		sb.WriteString(in.Directive)
		sb.WriteString("\n\n")
	}

	if name := in.Deal.Name(); name != "" {
		sb.WriteString(fmt.Sprintf("Current deal: %s\n\n", name))
	}

	sb.WriteString(buildEvidence(in.Citations))
	sb.WriteString("\nSpecialists:\n")
	sb.WriteString(specialist.RoutingMenu())
	return sb.String()
}

// buildEvidence numbers citations from 1 so markers line up with the prompt rules.
func buildEvidence(citations []types.SourceCitation) string {
	if len(citations) == 0 {
		return "Evidence: none retrieved.\n"
	}

	var sb strings.Builder
	sb.WriteString("Evidence:\n")
	for i, c := range citations {
		source := c.DocumentName
		if c.Location != "" {
			source += ", " + c.Location
		}
		sb.WriteString(fmt.Sprintf("[%d] %s (score: %.2f)\n%s\n", i+1, source, c.RelevanceScore, truncateRunes(c.Snippet, maxEvidenceRunes)))
	}
	return sb.String()
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
