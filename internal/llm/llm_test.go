package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ashutoshrp06/dealroom-orchestrator/internal/agenterr"
	"github.com/ashutoshrp06/dealroom-orchestrator/internal/specialist"
	"github.com/ashutoshrp06/dealroom-orchestrator/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeModel struct {
	resp     *llms.ContentResponse
	err      error
	messages []llms.MessageContent
	opts     llms.CallOptions
}

func (m *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.messages = messages
	for _, o := range options {
		o(&m.opts)
	}
	return m.resp, m.err
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func TestLangChainGenerator_TextAnswer(t *testing.T) {
	model := &fakeModel{resp: &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: "EBITDA was $4m [1]."}},
	}}
	g := NewLangChainGenerator(model, Options{Temperature: 0.2, MaxTokens: 256})

	msg, err := g.Generate(context.Background(), []types.Message{
		{Role: types.RoleSystem, Content: "system"},
		{Role: types.RoleUser, Content: "What was EBITDA?"},
	}, specialist.Toolset())
	require.NoError(t, err)

	assert.Equal(t, types.RoleAssistant, msg.Role)
	assert.Equal(t, "EBITDA was $4m [1].", msg.Content)
	assert.Empty(t, msg.ToolCalls)

	require.Len(t, model.messages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, model.messages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, model.messages[1].Role)
	assert.Len(t, model.opts.Tools, len(specialist.All))
	assert.Equal(t, 256, model.opts.MaxTokens)
}

func TestLangChainGenerator_ToolCall(t *testing.T) {
	model := &fakeModel{resp: &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{
			ToolCalls: []llms.ToolCall{{
				ID:   "call_1",
				Type: "function",
				FunctionCall: &llms.FunctionCall{
					Name:      "financial-analyst",
					Arguments: `{"task":"EBITDA trend"}`,
				},
			}},
		}},
	}}
	g := NewLangChainGenerator(model, Options{})

	msg, err := g.Generate(context.Background(), []types.Message{{Role: types.RoleUser, Content: "q"}}, nil)
	require.NoError(t, err)
	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "call_1", msg.ToolCalls[0].ID)
	assert.Equal(t, "financial-analyst", msg.ToolCalls[0].Name)
	assert.JSONEq(t, `{"task":"EBITDA trend"}`, string(msg.ToolCalls[0].Arguments))
	assert.Empty(t, model.opts.Tools)
}

func TestLangChainGenerator_Errors(t *testing.T) {
	t.Run("empty response", func(t *testing.T) {
		g := NewLangChainGenerator(&fakeModel{resp: &llms.ContentResponse{}}, Options{})
		_, err := g.Generate(context.Background(), []types.Message{{Role: types.RoleUser, Content: "q"}}, nil)
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})

	t.Run("backend error is wrapped", func(t *testing.T) {
		backendErr := errors.New("429 Too Many Requests")
		g := NewLangChainGenerator(&fakeModel{err: backendErr}, Options{})
		_, err := g.Generate(context.Background(), []types.Message{{Role: types.RoleUser, Content: "q"}}, nil)
		assert.ErrorIs(t, err, backendErr)
	})

	t.Run("unsupported role", func(t *testing.T) {
		g := NewLangChainGenerator(&fakeModel{}, Options{})
		_, err := g.Generate(context.Background(), []types.Message{{Role: "narrator", Content: "q"}}, nil)
		assert.Error(t, err)
	})
}

func TestConvertMessages_ToolRoundTrip(t *testing.T) {
	out, err := convertMessages([]types.Message{
		{
			Role: types.RoleAssistant,
			ToolCalls: []types.ToolCall{{
				ID: "c1", Name: "kg-expert", Arguments: json.RawMessage(`{"task":"owners"}`),
			}},
		},
		{Role: types.RoleTool, ToolCallID: "c1", Name: "kg-expert", Structured: json.RawMessage(`{"owners":["A"]}`)},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)

	call, ok := out[0].Parts[0].(llms.ToolCall)
	require.True(t, ok)
	assert.Equal(t, "kg-expert", call.FunctionCall.Name)

	resp, ok := out[1].Parts[0].(llms.ToolCallResponse)
	require.True(t, ok)
	assert.Equal(t, "c1", resp.ToolCallID)
	assert.Equal(t, `{"owners":["A"]}`, resp.Content)
}

func TestRawArguments(t *testing.T) {
	assert.Nil(t, rawArguments("  "))
	assert.JSONEq(t, `{"a":1}`, string(rawArguments(`{"a":1}`)))
	assert.Equal(t, `"not json"`, string(rawArguments("not json")))
}

func TestNewModel_UnknownProvider(t *testing.T) {
	_, err := NewModel(ModelConfig{Provider: "carrier-pigeon"})
	assert.Error(t, err)
}

type scriptedGenerator struct {
	errs  []error
	calls int
}

func (g *scriptedGenerator) Generate(ctx context.Context, _ []types.Message, _ []specialist.Definition) (types.Message, error) {
	g.calls++
	if err := ctx.Err(); err != nil {
		return types.Message{}, err
	}
	if g.calls <= len(g.errs) && g.errs[g.calls-1] != nil {
		return types.Message{}, g.errs[g.calls-1]
	}
	return types.Message{Role: types.RoleAssistant, Content: "ok"}, nil
}

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{Attempts: attempts, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestRetryingGenerator(t *testing.T) {
	tests := []struct {
		name      string
		errs      []error
		attempts  int
		wantCalls int
		wantErr   bool
	}{
		{"success first try", nil, 3, 1, false},
		{"rate limit then success", []error{errors.New("rate limit exceeded")}, 3, 2, false},
		{"timeouts exhaust attempts", []error{
			errors.New("request timed out"), errors.New("request timed out"), errors.New("request timed out"),
		}, 3, 3, true},
		{"state error not retried", []error{errors.New("unexpected response shape")}, 3, 1, true},
		{"classified state error not retried", []error{
			agenterr.New(agenterr.CodeState, "supervisor", errors.New("bad"), nil),
		}, 3, 1, true},
		{"single attempt", []error{errors.New("429")}, 1, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := &scriptedGenerator{errs: tt.errs}
			g := NewRetryingGenerator(next, fastPolicy(tt.attempts), nil)

			msg, err := g.Generate(context.Background(), nil, nil)
			assert.Equal(t, tt.wantCalls, next.calls)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "ok", msg.Content)
		})
	}
}

func TestRetryingGenerator_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	next := &scriptedGenerator{}
	g := NewRetryingGenerator(next, fastPolicy(5), nil)

	_, err := g.Generate(ctx, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.LessOrEqual(t, next.calls, 1)
}

func TestRetryPolicy_Normalized(t *testing.T) {
	p := RetryPolicy{Attempts: 0}.normalized()
	assert.Equal(t, defaultRetryAttempts, p.Attempts)
	assert.Equal(t, defaultRetryBaseDelay, p.BaseDelay)
	assert.GreaterOrEqual(t, p.MaxDelay, p.BaseDelay)

	p = RetryPolicy{Attempts: 50}.normalized()
	assert.Equal(t, defaultRetryAttempts, p.Attempts)
}

func TestBuildSystemPrompt(t *testing.T) {
	citations := []types.SourceCitation{
		{DocumentName: "CIM.pdf", Location: "page 4", Snippet: "EBITDA of $4m", RelevanceScore: 0.82},
		{DocumentName: "Unknown source", Snippet: strings.Repeat("x", 600), RelevanceScore: 0.4},
	}
	prompt := BuildSystemPrompt(PromptInput{
		Directive: "Limited relevant information",
		Deal:      types.SomeDeal(types.DealContext{ID: "d1", Name: "Project Falcon"}),
		Citations: citations,
	})

	base := strings.Index(prompt, "Data Room assistant")
	directive := strings.Index(prompt, "Limited relevant information")
	deal := strings.Index(prompt, "Current deal: Project Falcon")
	evidence := strings.Index(prompt, "[1] CIM.pdf, page 4 (score: 0.82)")
	menu := strings.Index(prompt, "- financial-analyst: ")

	for _, idx := range []int{base, directive, deal, evidence, menu} {
		require.GreaterOrEqual(t, idx, 0)
	}
	assert.Less(t, base, directive)
	assert.Less(t, directive, deal)
	assert.Less(t, deal, evidence)
	assert.Less(t, evidence, menu)
	assert.Contains(t, prompt, "[2] Unknown source")
	assert.NotContains(t, prompt, strings.Repeat("x", 501))
}

func TestBuildSystemPrompt_NoDirectiveNoDeal(t *testing.T) {
	prompt := BuildSystemPrompt(PromptInput{Deal: types.NoDeal()})
	assert.NotContains(t, prompt, "Confidence guidance")
	assert.NotContains(t, prompt, "Current deal")
	assert.Contains(t, prompt, "Evidence: none retrieved.")
	for _, s := range specialist.All {
		assert.Contains(t, prompt, "- "+string(s)+": ")
	}
}
