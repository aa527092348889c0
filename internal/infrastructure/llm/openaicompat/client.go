package openaicompat

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/kirillkom/claims-triage/internal/core/domain"
	"github.com/kirillkom/claims-triage/internal/infrastructure/resilience"
)

const systemPrompt = "You extract structured insurance claim data from FNOL documents and answer with a single JSON object."

var jsonObjectFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	HTTPTimeout time.Duration
}

// Client calls any OpenAI-compatible chat completions endpoint (OpenAI, Groq,
// vLLM, LM Studio).
type Client struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	executor    *resilience.Executor
}

func New(cfg Config, executor *resilience.Executor) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openai-compatible api key is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("openai-compatible model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	clientConfig.HTTPClient = &http.Client{Timeout: timeout}

	return &Client{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
		maxTokens:   cfg.MaxTokens,
		executor:    executor,
	}, nil
}

func (c *Client) Name() string {
	return "openai"
}

// Complete implements extraction.Completer.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature:    c.temperature,
		MaxTokens:      c.maxTokens,
		ResponseFormat: jsonObjectFormat,
	}

	var resp openai.ChatCompletionResponse
	call := func(ctx context.Context) error {
		var err error
		resp, err = c.client.CreateChatCompletion(ctx, req)
		return withStatus(err)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "openai.chat_completions", call, resilience.ClassifyTransport)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", toExtractionError(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.WrapError(domain.ErrMalformedExtractionResponse, "openai chat completions", errors.New("no choices in response"))
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// statusError exposes the HTTP status of go-openai errors to the classifier.
type statusError struct {
	code int
	err  error
}

func (e *statusError) Error() string       { return e.err.Error() }
func (e *statusError) Unwrap() error       { return e.err }
func (e *statusError) HTTPStatusCode() int { return e.code }

func withStatus(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return &statusError{code: apiErr.HTTPStatusCode, err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		return &statusError{code: reqErr.HTTPStatusCode, err: err}
	}
	return err
}

func toExtractionError(ctx context.Context, err error) error {
	const op = "openai chat completions"
	if errors.Is(err, context.Canceled) && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return domain.WrapError(domain.ErrExtractionTimeout, op, err)
	}
	return domain.WrapError(domain.ErrExtractionService, op, err)
}
