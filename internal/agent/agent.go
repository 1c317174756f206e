// Package agent implements the orchestration pipeline: classification,
// retrieval, uncertainty detection and dispatch.
package agent

import (
	"context"
	"fmt"

	"github.com/ashutoshrp06/dealroom-orchestrator/internal/classifier"
	"github.com/ashutoshrp06/dealroom-orchestrator/internal/deals"
	"github.com/ashutoshrp06/dealroom-orchestrator/internal/metrics"
	"github.com/ashutoshrp06/dealroom-orchestrator/internal/specialist"
	"github.com/ashutoshrp06/dealroom-orchestrator/internal/types"
	"github.com/ashutoshrp06/dealroom-orchestrator/internal/uncertainty"
	"github.com/ashutoshrp06/dealroom-orchestrator/internal/validator"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Retriever fetches citations for a query scoped to a deal. It never fails;
// backend problems degrade to an empty slice. *rag.Adapter satisfies it.
type Retriever interface {
	Retrieve(ctx context.Context, query, dealID string, complexity types.ComplexityTier) []types.SourceCitation
}

// Deps are the collaborators of a Pipeline. Lifecycle of every dependency is
// owned by the caller.
type Deps struct {
	Classifier *classifier.Cache
	Retriever  Retriever
	Deals      deals.Provider
	Dispatcher *Dispatcher
	Input      *validator.InputValidator
	Metrics    *metrics.Metrics
	Logger     *zap.Logger

	// NewTurnID generates turn identifiers. Defaults to random UUIDs.
	NewTurnID func() string
}

// Request is one pipeline invocation.
type Request struct {
	Messages []types.Message `json:"messages"`
	DealID   string          `json:"deal_id,omitempty"`
}

// Result is the outcome of one turn.
type Result struct {
	TurnID         string                 `json:"turn_id"`
	Query          string                 `json:"query,omitempty"`
	Classification types.Classification   `json:"classification"`
	Citations      []types.SourceCitation `json:"citations"`
	Uncertainty    types.Uncertainty      `json:"uncertainty"`
	Outcome        types.Outcome          `json:"outcome"`
	Response       *types.Message         `json:"response,omitempty"`
	Delegation     *specialist.Delegation `json:"delegation,omitempty"`
	Findings       []types.Finding        `json:"findings,omitempty"`
}

// Pipeline runs queries through the orchestration chain. It holds no mutable
// state and is safe for concurrent use.
type Pipeline struct {
	classifier *classifier.Cache
	retriever  Retriever
	deals      deals.Provider
	dispatcher *Dispatcher
	input      *validator.InputValidator
	metrics    *metrics.Metrics
	logger     *zap.Logger
	newTurnID  func() string
}

// NewPipeline wires a pipeline from its dependencies.
func NewPipeline(deps Deps) (*Pipeline, error) {
	if deps.Retriever == nil {
		return nil, fmt.Errorf("retriever is required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Input == nil {
		deps.Input = validator.NewInputValidator(0)
	}
	if deps.NewTurnID == nil {
		deps.NewTurnID = func() string { return uuid.NewString() }
	}

	return &Pipeline{
		classifier: deps.Classifier,
		retriever:  deps.Retriever,
		deals:      deps.Deals,
		dispatcher: deps.Dispatcher,
		input:      deps.Input,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		newTurnID:  deps.NewTurnID,
	}, nil
}

// Run processes one turn. A non-nil error is always an *agenterr.AgentError;
// the returned Result is populated either way.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	result := &Result{
		TurnID:    p.newTurnID(),
		Citations: []types.SourceCitation{},
		Outcome:   types.OutcomeNone,
	}
	logger := p.logger.With(zap.String("turn_id", result.TurnID))

	// Extract the latest textual query
	raw, ok := types.LatestQuery(req.Messages)
	if !ok {
		logger.Debug("No textual query in transcript, skipping turn",
			zap.Int("message_count", len(req.Messages)))
		return result, nil
	}
	query := p.input.Sanitize(raw)
	if query == "" {
		return result, nil
	}
	result.Query = query

	// Classify
	result.Classification = p.classifier.Classify(req.DealID, query)
	logger.Debug("Query classified",
		zap.String("complexity", string(result.Classification.Complexity)),
		zap.String("intent", string(result.Classification.Intent)),
		zap.Float64("confidence", result.Classification.Confidence))

	// Retrieve evidence scoped to the deal, degrading to no citations
	result.Citations = p.retriever.Retrieve(ctx, query, req.DealID, result.Classification.Complexity)
	if result.Citations == nil {
		result.Citations = []types.SourceCitation{}
	}

	// Resolve deal context and derive confidence
	deal := deals.Resolve(ctx, p.deals, req.DealID, logger)
	result.Uncertainty = uncertainty.DetectForDeal(result.Citations, deal)
	p.metrics.Uncertainty(result.Uncertainty.Level.String())

	// Forward the sanitized query in place of the raw one
	messages := req.Messages
	if query != raw {
		messages = append([]types.Message(nil), req.Messages...)
		messages[len(messages)-1].Content = query
	}

	// Dispatch
	dispatch := p.dispatcher.Dispatch(ctx, DispatchInput{
		Messages:    messages,
		DealID:      req.DealID,
		Deal:        deal,
		Citations:   result.Citations,
		Uncertainty: result.Uncertainty,
	})

	result.Outcome = dispatch.Outcome
	result.Response = dispatch.Response
	result.Delegation = dispatch.Delegation
	result.Findings = dispatch.Findings

	if dispatch.Err != nil {
		return result, dispatch.Err
	}

	logger.Info("Turn completed",
		zap.String("deal_id", req.DealID),
		zap.String("outcome", string(result.Outcome)),
		zap.Int("citations", len(result.Citations)),
		zap.String("uncertainty", result.Uncertainty.Level.String()))
	return result, nil
}
