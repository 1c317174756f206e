// Package types defines shared data structures for the deal room orchestrator.
package types

import (
	"encoding/json"
	"strings"
	"time"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall represents a tool invocation emitted by the generation backend.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"args,omitempty"`
}

// Message represents a message in the conversation transcript.
type Message struct {
	Role       Role            `json:"role"`
	Content    string          `json:"content"`
	Structured json.RawMessage `json:"structured,omitempty"`
	ToolCalls  []ToolCall      `json:"tool_calls,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
	Name       string          `json:"name,omitempty"`
}

// IsTextual reports whether the message is a plain user utterance.
// Tool output and structured payloads are not textual.
func (m Message) IsTextual() bool {
	if m.Role != RoleUser {
		return false
	}
	if len(m.Structured) > 0 || m.ToolCallID != "" {
		return false
	}
	return strings.TrimSpace(m.Content) != ""
}

// LatestQuery extracts the Query from a transcript. It returns false when the
// transcript is empty or its last turn is not textual.
func LatestQuery(messages []Message) (string, bool) {
	if len(messages) == 0 {
		return "", false
	}
	last := messages[len(messages)-1]
	if !last.IsTextual() {
		return "", false
	}
	return strings.TrimSpace(last.Content), true
}

// ComplexityTier is a coarse classification of query difficulty.
type ComplexityTier string

const (
	ComplexitySimple  ComplexityTier = "simple"
	ComplexityMedium  ComplexityTier = "medium"
	ComplexityComplex ComplexityTier = "complex"
)

// IntentCategory describes what the user is trying to do.
type IntentCategory string

const (
	IntentGreeting   IntentCategory = "greeting"
	IntentMeta       IntentCategory = "meta"
	IntentFactual    IntentCategory = "factual"
	IntentAnalytical IntentCategory = "analytical"
	IntentTask       IntentCategory = "task"
)

// Classification is the output of the query classifier.
type Classification struct {
	Complexity ComplexityTier `json:"complexity"`
	Intent     IntentCategory `json:"intent"`
	Confidence float64        `json:"confidence"`
}

// SourceCitation is a normalized, attributable snippet of retrieved evidence.
type SourceCitation struct {
	DocumentID     string    `json:"document_id"`
	DocumentName   string    `json:"document_name"`
	Location       string    `json:"location,omitempty"`
	Snippet        string    `json:"snippet"`
	RelevanceScore float64   `json:"relevance_score"`
	RetrievedAt    time.Time `json:"retrieved_at"`
}

// UncertaintyLevel is an ordered confidence signal derived from retrieval quality.
type UncertaintyLevel int

const (
	UncertaintyNone UncertaintyLevel = iota
	UncertaintyLow
	UncertaintyMedium
	UncertaintyHigh
	UncertaintyComplete
)

// String returns the level name.
func (l UncertaintyLevel) String() string {
	names := [...]string{"none", "low", "medium", "high", "complete"}
	if l >= 0 && int(l) < len(names) {
		return names[l]
	}
	return "unknown"
}

// MarshalText encodes the level by name.
func (l UncertaintyLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Uncertainty pairs a level with the directive injected into the system prompt.
// Directive is empty when no guidance is needed.
type Uncertainty struct {
	Level     UncertaintyLevel `json:"level"`
	Directive string           `json:"directive,omitempty"`
}

// DealContext is read-only metadata about the deal a query is scoped to.
type DealContext struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	DocumentCount int       `json:"document_count"`
	UpdatedAt     time.Time `json:"updated_at,omitempty"`
}

// OptionalDeal holds a DealContext that may be absent. The zero value is absent.
type OptionalDeal struct {
	deal    DealContext
	present bool
}

// SomeDeal wraps a present deal context.
func SomeDeal(d DealContext) OptionalDeal {
	return OptionalDeal{deal: d, present: true}
}

// NoDeal returns an absent deal context.
func NoDeal() OptionalDeal {
	return OptionalDeal{}
}

// Get returns the deal and whether it is present.
func (o OptionalDeal) Get() (DealContext, bool) {
	return o.deal, o.present
}

// Present reports whether a deal context is available.
func (o OptionalDeal) Present() bool {
	return o.present
}

// HasDocuments is false whenever the deal is absent.
func (o OptionalDeal) HasDocuments() bool {
	return o.present && o.deal.DocumentCount > 0
}

// Name returns the deal name, or "" when absent.
func (o OptionalDeal) Name() string {
	if !o.present {
		return ""
	}
	return o.deal.Name
}

// Outcome is the terminal state of a dispatcher turn.
type Outcome string

const (
	OutcomeNone         Outcome = "none"
	OutcomeDirectAnswer Outcome = "direct_answer"
	OutcomeDelegated    Outcome = "delegated"
	OutcomeErrored      Outcome = "errored"
)

// Severity grades a soft validation finding.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Finding is one soft validation hit.
type Finding struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Match    string   `json:"match"`
	Offset   int      `json:"offset"`
}
