// Package gemini plans through Google's Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/koscakluka/ema-welfare/core/llms"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"
)

var ErrEmptyResponse = errors.New("response contained no text")

type Client struct {
	model  string
	client *genai.Client
}

func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Client{model: model, client: client}, nil
}

func (c *Client) PromptJSON(ctx context.Context, prompt string, opts ...llms.StructuredPromptOption) (string, error) {
	ctx, span := tracer.Start(ctx, "prompt llm structured")
	defer span.End()
	span.SetAttributes(attribute.String("request.model", c.model))

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), generateConfig(llms.NewStructuredPromptOptions(opts...)))
	if err != nil {
		err = fmt.Errorf("gemini generate content: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	text := resp.Text()
	if text == "" {
		span.RecordError(ErrEmptyResponse)
		span.SetStatus(codes.Error, ErrEmptyResponse.Error())
		return "", ErrEmptyResponse
	}
	return text, nil
}

func generateConfig(options llms.StructuredPromptOptions) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}
	if options.Instructions != "" {
		config.SystemInstruction = genai.NewContentFromText(options.Instructions, genai.RoleUser)
	}
	if options.Temperature != nil {
		config.Temperature = genai.Ptr(float32(*options.Temperature))
	}
	if options.MaxTokens > 0 {
		config.MaxOutputTokens = int32(options.MaxTokens)
	}
	if options.Schema != nil {
		config.ResponseJsonSchema = options.Schema
	}
	return config
}
