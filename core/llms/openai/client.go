// Package openai plans through any OpenAI-compatible chat completions API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/koscakluka/ema-welfare/core/llms"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var ErrEmptyResponse = errors.New("response contained no choices")

type Client struct {
	model  string
	client openai.Client
}

type Option func(*[]option.RequestOption)

func WithBaseURL(baseURL string) Option {
	return func(opts *[]option.RequestOption) {
		if trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/"); trimmed != "" {
			*opts = append(*opts, option.WithBaseURL(trimmed))
		}
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(opts *[]option.RequestOption) {
		*opts = append(*opts, option.WithHTTPClient(httpClient))
	}
}

func NewClient(apiKey, model string, opts ...Option) *Client {
	requestOpts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(apiKey)),
		option.WithHTTPClient(&http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}),
	}
	for _, opt := range opts {
		opt(&requestOpts)
	}

	return &Client{
		model:  model,
		client: openai.NewClient(requestOpts...),
	}
}

func (c *Client) PromptJSON(ctx context.Context, prompt string, opts ...llms.StructuredPromptOption) (string, error) {
	ctx, span := tracer.Start(ctx, "prompt llm structured")
	defer span.End()

	options := llms.NewStructuredPromptOptions(opts...)

	messages := []openai.ChatCompletionMessageParamUnion{}
	if options.Instructions != "" {
		messages = append(messages, openai.SystemMessage(options.Instructions))
	}
	messages = append(messages, openai.UserMessage(prompt))

	params := openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: messages,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}
	if options.Temperature != nil {
		params.Temperature = openai.Float(*options.Temperature)
	}
	if options.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(options.MaxTokens))
	}
	if options.Schema != nil {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   options.SchemaName,
					Schema: options.Schema,
				},
			},
		}
	}

	span.SetAttributes(attribute.String("request.model", c.model))
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		err = fmt.Errorf("openai chat.completions.create: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	if len(resp.Choices) == 0 {
		span.RecordError(ErrEmptyResponse)
		span.SetStatus(codes.Error, ErrEmptyResponse.Error())
		return "", ErrEmptyResponse
	}

	span.SetAttributes(
		attribute.Int64("response.usage.prompt_tokens", resp.Usage.PromptTokens),
		attribute.Int64("response.usage.completion_tokens", resp.Usage.CompletionTokens),
	)
	return resp.Choices[0].Message.Content, nil
}
