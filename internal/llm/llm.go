// Package llm provides a narrow fast/strong-tier text completion interface
// over a chat-completions client, keeping every caller in the codebase
// agnostic to the concrete provider.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Tier names which cost tier a completion request targets.
type Tier string

const (
	TierFast   Tier = "fast"
	TierStrong Tier = "strong"
)

// CompletionRequest is the narrow request shape every caller constructs.
type CompletionRequest struct {
	Tier        Tier
	SystemPrompt string
	Prompt      string
	Temperature float64
	TopP        float64
	MaxTokens   int
	TimeoutOverride time.Duration
}

// ToolSchema describes one callable tool offered to the model as a
// function-calling tool definition.
type ToolSchema struct {
	Name        string
	Description string
	Parameters  map[string]interface{} // JSON Schema for the tool's arguments; nil means no-argument tool
}

// ToolCall is one invocation the model requested via function calling,
// instead of answering directly.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // raw JSON object string, as returned by the provider
}

// Completion is the result of a tool-aware completion request. Exactly one
// of Text or ToolCalls is populated: a non-empty ToolCalls means the model
// wants those tools invoked and fed back before it produces Text.
type Completion struct {
	Text      string
	ToolCalls []ToolCall
}

// Client is the interface every component depends on instead of a concrete
// provider SDK. Implementations must never block past ctx's deadline.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// CompleteWithTools behaves like Complete but offers tools as
	// function-calling definitions; the model may return tool calls
	// instead of text.
	CompleteWithTools(ctx context.Context, req CompletionRequest, tools []ToolSchema) (Completion, error)
}

// ErrLLM wraps any provider failure so callers can match on it uniformly
// (the error_kind taxonomy's LLMError).
type ErrLLM struct {
	Tier Tier
	Err  error
}

func (e *ErrLLM) Error() string { return fmt.Sprintf("llm error (%s tier): %v", e.Tier, e.Err) }
func (e *ErrLLM) Unwrap() error { return e.Err }

// HTTPDoer is the minimal transport option.WithHTTPClient accepts. Passing
// a *circuitbreaker.HTTPWrapper here extends breaker protection from
// tool-RPC calls to LLM completions.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures the chat-completions-compatible client.
type Config struct {
	APIKey       string
	BaseURL      string // empty uses the provider's default
	FastModel    string
	StrongModel  string
	FallbackModel string
	RequestTimeout time.Duration
	// HTTPClient overrides the transport used for every completion request.
	// Nil falls back to a plain *http.Client with RequestTimeout.
	HTTPClient HTTPDoer
}

type chatClient struct {
	client      openai.Client
	fastModel   string
	strongModel string
	fallback    string
	timeout     time.Duration
}

// New constructs a Client backed by a chat-completions-compatible API.
func New(cfg Config) Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	fast := cfg.FastModel
	if fast == "" {
		fast = cfg.FallbackModel
	}
	strong := cfg.StrongModel
	if strong == "" {
		strong = cfg.FallbackModel
	}
	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &chatClient{
		client:      openai.NewClient(opts...),
		fastModel:   fast,
		strongModel: strong,
		fallback:    cfg.FallbackModel,
		timeout:     timeout,
	}
}

func (c *chatClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	completion, err := c.complete(ctx, req, nil)
	if err != nil {
		return "", err
	}
	return completion.Text, nil
}

func (c *chatClient) CompleteWithTools(ctx context.Context, req CompletionRequest, tools []ToolSchema) (Completion, error) {
	return c.complete(ctx, req, tools)
}

func (c *chatClient) complete(ctx context.Context, req CompletionRequest, tools []ToolSchema) (Completion, error) {
	timeout := c.timeout
	if req.TimeoutOverride > 0 {
		timeout = req.TimeoutOverride
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	model := c.fastModel
	if req.Tier == TierStrong {
		model = c.strongModel
	}

	messages := []openai.ChatCompletionMessageParamUnion{}
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.TopP > 0 {
		params.TopP = openai.Float(req.TopP)
	}
	if len(tools) > 0 {
		params.Tools = toolParams(tools)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return Completion{}, &ErrLLM{Tier: req.Tier, Err: err}
	}
	if len(resp.Choices) == 0 {
		return Completion{}, &ErrLLM{Tier: req.Tier, Err: fmt.Errorf("empty completion response")}
	}

	msg := resp.Choices[0].Message
	if len(msg.ToolCalls) > 0 {
		calls := make([]ToolCall, 0, len(msg.ToolCalls))
		for _, tc := range msg.ToolCalls {
			calls = append(calls, ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: tc.Function.Arguments})
		}
		return Completion{ToolCalls: calls}, nil
	}
	return Completion{Text: msg.Content}, nil
}

// toolParams converts the narrow ToolSchema list every caller builds into
// the provider's function-calling tool definitions.
func toolParams(tools []ToolSchema) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, 0, len(tools))
	for _, t := range tools {
		schema := t.Parameters
		if schema == nil {
			schema = map[string]interface{}{"type": "object", "properties": map[string]interface{}{}}
		}
		out = append(out, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  openai.FunctionParameters(schema),
			},
		})
	}
	return out
}
