package agent

import (
	"context"
	"errors"
	"strings"

	"github.com/ashutoshrp06/dealroom-orchestrator/internal/agenterr"
	"github.com/ashutoshrp06/dealroom-orchestrator/internal/llm"
	"github.com/ashutoshrp06/dealroom-orchestrator/internal/metrics"
	"github.com/ashutoshrp06/dealroom-orchestrator/internal/specialist"
	"github.com/ashutoshrp06/dealroom-orchestrator/internal/types"
	"github.com/ashutoshrp06/dealroom-orchestrator/internal/validator"
	"go.uber.org/zap"
)

// NodeSupervisor identifies the dispatcher in classified errors.
const NodeSupervisor = "supervisor"

const defaultMode = "supervisor"

// ErrEmptyAnswer is returned when the backend answers with neither text nor a
// tool call.
var ErrEmptyAnswer = errors.New("generation returned neither content nor tool calls")

// DispatchInput is everything the dispatcher needs for one turn.
type DispatchInput struct {
	Messages    []types.Message
	DealID      string
	Deal        types.OptionalDeal
	Citations   []types.SourceCitation
	Uncertainty types.Uncertainty
}

// Dispatch is the outcome of one dispatcher turn. Response is set only for a
// direct answer, Delegation only when delegated and Err only when errored.
type Dispatch struct {
	Outcome    types.Outcome
	Response   *types.Message
	Delegation *specialist.Delegation
	Findings   []types.Finding
	Err        *agenterr.AgentError
}

// DispatcherConfig tunes the dispatcher.
type DispatcherConfig struct {
	// Mode is the workflow mode reported in error logs.
	Mode      string
	Validator *validator.OutputValidator
}

// Dispatcher builds the system prompt, calls the generation backend and
// interprets its answer as a direct answer or a delegation.
type Dispatcher struct {
	generator llm.Generator
	validator *validator.OutputValidator
	toolset   []specialist.Definition
	mode      string
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewDispatcher creates a dispatcher. The generator is expected to carry its
// own retry policy, see llm.NewRetryingGenerator.
func NewDispatcher(gen llm.Generator, cfg DispatcherConfig, m *metrics.Metrics, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Mode == "" {
		cfg.Mode = defaultMode
	}
	if cfg.Validator == nil {
		cfg.Validator = validator.NewOutputValidator()
	}
	return &Dispatcher{
		generator: gen,
		validator: cfg.Validator,
		toolset:   specialist.Toolset(),
		mode:      cfg.Mode,
		metrics:   m,
		logger:    logger,
	}
}

// Dispatch runs one turn.
func (d *Dispatcher) Dispatch(ctx context.Context, in DispatchInput) Dispatch {
	system := types.Message{
		Role: types.RoleSystem,
		Content: llm.BuildSystemPrompt(llm.PromptInput{
			Directive: in.Uncertainty.Directive,
			Deal:      in.Deal,
			Citations: in.Citations,
		}),
	}
	// Prepend the system prompt to the conversation
	messages := make([]types.Message, 0, len(in.Messages)+1)
	messages = append(messages, system)
	messages = append(messages, in.Messages...)

	d.metrics.GenerationCall()
	reply, err := d.generator.Generate(ctx, messages, d.toolset)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		return d.fail(err, in, nil)
	}

	// Tool calls take precedence over any text in the reply
	if len(reply.ToolCalls) > 0 {
		return d.delegate(reply, in)
	}

	if reply.Content == "" && len(reply.Structured) == 0 {
		return d.fail(ErrEmptyAnswer, in, nil)
	}

	out := Dispatch{Outcome: types.OutcomeDirectAnswer, Response: &reply}
	if reply.Content != "" {
		out.Findings = d.validate(reply.Content, in.DealID)
	}
	d.metrics.Outcome(string(types.OutcomeDirectAnswer), "")
	return out
}

func (d *Dispatcher) delegate(reply types.Message, in DispatchInput) Dispatch {
	if len(reply.ToolCalls) > 1 {
		extra := make([]string, 0, len(reply.ToolCalls)-1)
		for _, tc := range reply.ToolCalls[1:] {
			extra = append(extra, tc.Name)
		}
		d.logger.Warn("Multiple tool calls returned, only the first is honored",
			zap.String("node_id", NodeSupervisor),
			zap.String("deal_id", in.DealID),
			zap.String("first", reply.ToolCalls[0].Name),
			zap.Strings("ignored", extra))
	}

	// An unknown tool name is a state error whatever its wording.
	delegation, err := specialist.FromToolCall(reply.ToolCalls[0], reply)
	if err != nil {
		details := map[string]any{"tool": reply.ToolCalls[0].Name}
		return d.fail(agenterr.New(agenterr.CodeState, NodeSupervisor, err, details), in, details)
	}

	d.metrics.Outcome(string(types.OutcomeDelegated), string(delegation.Specialist))
	d.logger.Info("Delegated to specialist",
		zap.String("deal_id", in.DealID),
		zap.String("specialist", string(delegation.Specialist)))
	return Dispatch{Outcome: types.OutcomeDelegated, Delegation: delegation}
}

// validate runs the advisory rules. Findings are logged, never enforced.
func (d *Dispatcher) validate(content, dealID string) []types.Finding {
	findings := d.validator.Validate(content)
	if len(findings) == 0 {
		return nil
	}

	summary := make([]string, 0, len(findings))
	for _, f := range findings {
		summary = append(summary, f.Rule+": "+f.Match)
		d.metrics.Finding(f.Rule)
	}
	d.logger.Warn("Soft validation findings",
		zap.String("node_id", NodeSupervisor),
		zap.String("deal_id", dealID),
		zap.Int("count", len(findings)),
		zap.String("findings", strings.Join(summary, "; ")))
	return findings
}

func (d *Dispatcher) fail(err error, in DispatchInput, details map[string]any) Dispatch {
	if details == nil {
		details = map[string]any{}
	}
	details["mode"] = d.mode
	details["deal_id"] = in.DealID
	details["message_count"] = len(in.Messages)

	agentErr := agenterr.Classify(err, NodeSupervisor, details)
	d.metrics.Error(string(agentErr.Code))
	d.metrics.Outcome(string(types.OutcomeErrored), "")
	d.logger.Error("Dispatcher failed",
		zap.String("code", string(agentErr.Code)),
		zap.Bool("recoverable", agentErr.Recoverable),
		zap.String("node_id", NodeSupervisor),
		zap.String("mode", d.mode),
		zap.String("deal_id", in.DealID),
		zap.Int("message_count", len(in.Messages)),
		zap.Error(err))
	return Dispatch{Outcome: types.OutcomeErrored, Err: agentErr}
}
