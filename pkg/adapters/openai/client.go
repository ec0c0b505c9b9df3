// Package openai adapts the OpenAI API to ports.LLMPort, ports.STTPort,
// and ports.TTSPort. Structured outputs are forced with json-schema
// response formatting (generated by invopop/jsonschema) rather than
// prompt-and-hope parsing, the same way the pack's other OpenAI client
// wiring does it.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/candidflow/interviewer/pkg/adapters"
	"github.com/candidflow/interviewer/pkg/ports"
	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Config configures the shared client used by the LLM, STT, and TTS
// adapters in this package.
type Config struct {
	APIKey string
	Model  string
	Voice  string
}

// Client wraps the openai-go SDK client for all three port adapters.
type Client struct {
	sdk   openai.Client
	model string
	voice string
}

// New constructs a Client. Model defaults to gpt-4o; Voice to "alloy".
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o"
	}
	voice := cfg.Voice
	if voice == "" {
		voice = "alloy"
	}
	return &Client{
		sdk:   openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model: model,
		voice: voice,
	}, nil
}

// chatJSON runs one structured chat completion, forcing the response
// into result via a json-schema response format generated from T.
func chatJSON[T any](ctx context.Context, c *Client, schemaName, systemPrompt, userPrompt string, result *T) error {
	schema := generateSchema[T]()

	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        schemaName,
					Description: openai.String("Structured response schema"),
					Schema:      schema,
					Strict:      openai.Bool(true),
				},
			},
		},
	}

	err := adapters.WithRetry(ctx, func() error {
		resp, err := c.sdk.Chat.Completions.New(ctx, params)
		if err != nil {
			return classifyError("openai", err)
		}
		if len(resp.Choices) == 0 {
			return &ports.PermanentError{Adapter: "openai", Err: fmt.Errorf("no choices in response")}
		}
		if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), result); err != nil {
			return &ports.PermanentError{Adapter: "openai", Err: fmt.Errorf("unmarshal response: %w", err)}
		}
		slog.DebugContext(ctx, "openai chat completed",
			"model", c.model, "schema", schemaName,
			"prompt_tokens", resp.Usage.PromptTokens,
			"completion_tokens", resp.Usage.CompletionTokens)
		return nil
	})
	return err
}

func generateSchema[T any]() any {
	reflector := jsonschema.Reflector{AllowAdditionalProperties: false, DoNotReference: true}
	var v T
	return reflector.Reflect(v)
}

// classifyError maps an openai-go SDK error to ports.TransientError
// (rate limit, 5xx, network) or ports.PermanentError (4xx, everything
// else) so pkg/protocol can render the right failure frame.
func classifyError(adapter string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == 429 || apiErr.StatusCode >= 500 {
			return &ports.TransientError{Adapter: adapter, Err: err}
		}
		return &ports.PermanentError{Adapter: adapter, Err: err}
	}
	return &ports.TransientError{Adapter: adapter, Err: err}
}
