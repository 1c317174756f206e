// Package llm adapts the language-generation backend.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ashutoshrp06/dealroom-orchestrator/internal/specialist"
	"github.com/ashutoshrp06/dealroom-orchestrator/internal/types"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Generator invokes the generation backend. messages[0] is the system prompt.
// The returned message is the assistant turn, carrying text or tool calls.
type Generator interface {
	Generate(ctx context.Context, messages []types.Message, tools []specialist.Definition) (types.Message, error)
}

// ErrEmptyResponse is returned when the backend produces no choices.
var ErrEmptyResponse = errors.New("empty response from LLM")

// Options configures generation calls.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// LangChainGenerator adapts a langchaingo model to Generator.
type LangChainGenerator struct {
	model llms.Model
	opts  Options
}

func NewLangChainGenerator(model llms.Model, opts Options) *LangChainGenerator {
	return &LangChainGenerator{model: model, opts: opts}
}

// ModelConfig selects and configures a langchaingo provider.
type ModelConfig struct {
	Provider string // "openai" (any OpenAI-compatible endpoint) or "ollama"
	Endpoint string
	Model    string
	APIKey   string
}

// NewModel builds the langchaingo model for cfg.
func NewModel(cfg ModelConfig) (llms.Model, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "openai":
		token := cfg.APIKey
		if token == "" {
			// OpenAI-compatible servers such as vLLM accept any token.
			token = "unused"
		}
		opts := []openai.Option{openai.WithModel(cfg.Model), openai.WithToken(token)}
		if cfg.Endpoint != "" {
			opts = append(opts, openai.WithBaseURL(cfg.Endpoint))
		}
		model, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}
		return model, nil
	case "ollama":
		opts := []ollama.Option{ollama.WithModel(cfg.Model)}
		if cfg.Endpoint != "" {
			opts = append(opts, ollama.WithServerURL(cfg.Endpoint))
		}
		model, err := ollama.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}
		return model, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}

// Generate implements Generator.
func (g *LangChainGenerator) Generate(ctx context.Context, messages []types.Message, tools []specialist.Definition) (types.Message, error) {
	content, err := convertMessages(messages)
	if err != nil {
		return types.Message{}, err
	}

	resp, err := g.model.GenerateContent(ctx, content, g.callOptions(tools)...)
	if err != nil {
		return types.Message{}, fmt.Errorf("generate content: %w", err)
	}
	return convertResponse(resp)
}

func (g *LangChainGenerator) callOptions(tools []specialist.Definition) []llms.CallOption {
	var options []llms.CallOption
	if g.opts.Temperature > 0 {
		options = append(options, llms.WithTemperature(g.opts.Temperature))
	}
	if g.opts.MaxTokens > 0 {
		options = append(options, llms.WithMaxTokens(g.opts.MaxTokens))
	}
	if len(tools) > 0 {
		options = append(options, llms.WithTools(convertTools(tools)))
	}
	return options
}

func convertTools(tools []specialist.Definition) []llms.Tool {
	out := make([]llms.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        string(t.Name),
				Description: t.Description,
				Parameters:  t.Schema(),
			},
		})
	}
	return out
}

func convertMessages(messages []types.Message) ([]llms.MessageContent, error) {
	out := make([]llms.MessageContent, 0, len(messages))
	for i, msg := range messages {
		switch msg.Role {
		case types.RoleSystem:
			out = append(out, llms.TextParts(llms.ChatMessageTypeSystem, msg.Content))
		case types.RoleUser:
			out = append(out, llms.TextParts(llms.ChatMessageTypeHuman, textOf(msg)))
		case types.RoleAssistant:
			parts := make([]llms.ContentPart, 0, len(msg.ToolCalls)+1)
			if msg.Content != "" {
				parts = append(parts, llms.TextContent{Text: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				parts = append(parts, llms.ToolCall{
					ID:   tc.ID,
					Type: "function",
					FunctionCall: &llms.FunctionCall{
						Name:      tc.Name,
						Arguments: string(tc.Arguments),
					},
				})
			}
			out = append(out, llms.MessageContent{Role: llms.ChatMessageTypeAI, Parts: parts})
		case types.RoleTool:
			out = append(out, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: msg.ToolCallID,
					Name:       msg.Name,
					Content:    textOf(msg),
				}},
			})
		default:
			return nil, fmt.Errorf("message[%d]: unsupported role %q", i, msg.Role)
		}
	}
	return out, nil
}

// textOf returns the message text, falling back to its structured payload.
func textOf(msg types.Message) string {
	if msg.Content == "" && len(msg.Structured) > 0 {
		return string(msg.Structured)
	}
	return msg.Content
}

func convertResponse(resp *llms.ContentResponse) (types.Message, error) {
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return types.Message{}, ErrEmptyResponse
	}
	choice := resp.Choices[0]

	msg := types.Message{Role: types.RoleAssistant, Content: choice.Content}
	for _, tc := range choice.ToolCalls {
		if tc.FunctionCall == nil {
			continue
		}
		msg.ToolCalls = append(msg.ToolCalls, types.ToolCall{
			ID:        tc.ID,
			Name:      tc.FunctionCall.Name,
			Arguments: rawArguments(tc.FunctionCall.Arguments),
		})
	}
	return msg, nil
}

func rawArguments(args string) json.RawMessage {
	if strings.TrimSpace(args) == "" {
		return nil
	}
	if !json.Valid([]byte(args)) {
		quoted, _ := json.Marshal(args)
		return quoted
	}
	return json.RawMessage(args)
}
