// Package specialist defines the closed set of sub-agents a turn can be
// delegated to, and the toolset offered to the generation backend.
package specialist

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ashutoshrp06/dealroom-orchestrator/internal/agenterr"
	"github.com/ashutoshrp06/dealroom-orchestrator/internal/types"
)

// Specialist names one of the known sub-agents.
type Specialist string

const (
	FinancialAnalyst   Specialist = "financial-analyst"
	DocumentResearcher Specialist = "document-researcher"
	KGExpert           Specialist = "kg-expert"
	DueDiligence       Specialist = "due-diligence"
)

// All lists the specialists in routing-menu order.
var All = []Specialist{FinancialAnalyst, DocumentResearcher, KGExpert, DueDiligence}

// Parameter describes one tool argument.
type Parameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// Definition is a tool offered to the generation backend.
type Definition struct {
	Name        Specialist  `json:"name"`
	Description string      `json:"description"`
	Routing     string      `json:"routing"`
	Parameters  []Parameter `json:"parameters"`
}

// Schema renders the parameters as a JSON schema object.
func (d Definition) Schema() map[string]any {
	props := make(map[string]any, len(d.Parameters))
	required := make([]string, 0, len(d.Parameters))
	for _, p := range d.Parameters {
		props[p.Name] = map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

var taskParam = Parameter{
	Name:        "task",
	Type:        "string",
	Description: "The precise question or instruction for the specialist",
	Required:    true,
}

// Definition returns the tool definition for s. Every known specialist is
// handled by this switch; there is no other dispatch path.
func (s Specialist) Definition() (Definition, bool) {
	switch s {
	case FinancialAnalyst:
		return Definition{
			Name:        s,
			Description: "Analyzes financial statements, KPIs and valuation figures from the deal documents.",
			Routing:     "revenue, EBITDA, margins, cash flow, multiples or any numeric financial analysis",
			Parameters: []Parameter{taskParam, {
				Name: "metrics", Type: "string", Description: "Comma separated metrics of interest",
			}},
		}, true
	case DocumentResearcher:
		return Definition{
			Name:        s,
			Description: "Searches and reads the deal documents to answer questions with exact quotes.",
			Routing:     "locating clauses, quotes or facts inside specific documents",
			Parameters: []Parameter{taskParam, {
				Name: "document_hint", Type: "string", Description: "Document name or type to focus on",
			}},
		}, true
	case KGExpert:
		return Definition{
			Name:        s,
			Description: "Explores the knowledge graph of entities and relationships extracted from the deal.",
			Routing:     "relationships between companies, people, subsidiaries, shareholders or contracts",
			Parameters: []Parameter{taskParam, {
				Name: "entities", Type: "string", Description: "Comma separated entities to start from",
			}},
		}, true
	case DueDiligence:
		return Definition{
			Name:        s,
			Description: "Runs due diligence checks: red flags, risks, missing documents and follow-up questions.",
			Routing:     "risk assessment, red flags, checklists or preparing Q&A for the seller",
			Parameters:  []Parameter{taskParam},
		}, true
	default:
		return Definition{}, false
	}
}

// Parse resolves a tool name into a known specialist. Names outside the set
// are rejected rather than trusted.
func Parse(name string) (Specialist, error) {
	s := Specialist(strings.TrimSpace(name))
	if _, ok := s.Definition(); !ok {
		return "", fmt.Errorf("%w: %q", agenterr.ErrUnknownSpecialist, name)
	}
	return s, nil
}

// Toolset returns the fixed tool definitions in routing-menu order.
func Toolset() []Definition {
	defs := make([]Definition, 0, len(All))
	for _, s := range All {
		def, _ := s.Definition()
		defs = append(defs, def)
	}
	return defs
}

// RoutingMenu renders the specialist menu for the system prompt.
func RoutingMenu() string {
	var sb strings.Builder
	for _, def := range Toolset() {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", def.Name, def.Routing))
	}
	return sb.String()
}

// Delegation routes a turn to exactly one specialist.
type Delegation struct {
	Specialist Specialist      `json:"specialist"`
	Arguments  json.RawMessage `json:"arguments,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
	// Message is the tool-call-bearing assistant message, kept verbatim for
	// downstream specialist execution.
	Message types.Message `json:"message"`
}

// FromToolCall builds a delegation from a backend tool call.
func FromToolCall(call types.ToolCall, msg types.Message) (*Delegation, error) {
	s, err := Parse(call.Name)
	if err != nil {
		return nil, err
	}
	return &Delegation{
		Specialist: s,
		Arguments:  call.Arguments,
		ToolCallID: call.ID,
		Message:    msg,
	}, nil
}
