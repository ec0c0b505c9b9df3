// Package anthropic adapts the Anthropic Messages API to ports.LLMPort,
// the alternate LLM provider selectable via config's
// providers.llm_provider. Structured output is forced the Anthropic way:
// a single tool with an input_schema, tool_choice pinned to it, and the
// tool_use block's Input parsed as the result.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/candidflow/interviewer/pkg/adapters"
	"github.com/candidflow/interviewer/pkg/ports"
	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/invopop/jsonschema"
)

// Config configures the Anthropic-backed LLM adapter.
type Config struct {
	APIKey string
	Model  string
}

// Client wraps the anthropic-sdk-go Messages client.
type Client struct {
	msg   sdk.MessageService
	model string
}

// New constructs a Client. Model defaults to claude-sonnet-4-5.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	model := cfg.Model
	if model == "" {
		model = "claude-sonnet-4-5-20250929"
	}
	c := sdk.NewClient(option.WithAPIKey(cfg.APIKey))
	return &Client{msg: c.Messages, model: model}, nil
}

// toolJSON runs one Messages.New call, forcing the reply into result via
// a single tool whose input_schema is generated from T.
func toolJSON[T any](ctx context.Context, c *Client, toolName, systemPrompt, userPrompt string, result *T) error {
	schema := generateSchema[T]()
	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("anthropic: marshal schema: %w", err)
	}
	var inputSchema sdk.ToolInputSchemaParam
	if err := json.Unmarshal(schemaBytes, &inputSchema); err != nil {
		return fmt.Errorf("anthropic: decode schema: %w", err)
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: 2048,
		System:    []sdk.TextBlockParam{{Text: systemPrompt}},
		Messages: []sdk.MessageParam{
			{Role: sdk.MessageParamRoleUser, Content: []sdk.ContentBlockParamUnion{sdk.NewTextBlock(userPrompt)}},
		},
		Tools: []sdk.ToolUnionParam{{
			OfTool: &sdk.ToolParam{Name: toolName, InputSchema: inputSchema},
		}},
		ToolChoice: sdk.ToolChoiceUnionParam{
			OfTool: &sdk.ToolChoiceToolParam{Name: toolName},
		},
	}

	return adapters.WithRetry(ctx, func() error {
		msg, err := c.msg.New(ctx, params)
		if err != nil {
			return classifyError(err)
		}
		for _, block := range msg.Content {
			if block.Type != "tool_use" {
				continue
			}
			if err := json.Unmarshal(block.Input, result); err != nil {
				return &ports.PermanentError{Adapter: "anthropic", Err: fmt.Errorf("unmarshal tool input: %w", err)}
			}
			return nil
		}
		return &ports.PermanentError{Adapter: "anthropic", Err: fmt.Errorf("no tool_use block in response")}
	})
}

func generateSchema[T any]() any {
	reflector := jsonschema.Reflector{AllowAdditionalProperties: false, DoNotReference: true}
	var v T
	return reflector.Reflect(v)
}

func classifyError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == 429 || apiErr.StatusCode >= 500 {
			return &ports.TransientError{Adapter: "anthropic", Err: err}
		}
		return &ports.PermanentError{Adapter: "anthropic", Err: err}
	}
	return &ports.TransientError{Adapter: "anthropic", Err: err}
}
