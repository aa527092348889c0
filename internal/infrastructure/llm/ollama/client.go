package ollama

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/claims-triage/internal/infrastructure/resilience"
)

type Config struct {
	BaseURL     string
	Model       string
	Temperature float64
	NumPredict  int
	HTTPTimeout time.Duration
}

// Client talks to the Ollama generate API in JSON mode.
type Client struct {
	baseURL     string
	model       string
	temperature float64
	numPredict  int
	httpClient  *http.Client
	executor    *resilience.Executor
}

func New(cfg Config, executor *resilience.Executor) *Client {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		numPredict:  cfg.NumPredict,
		httpClient:  &http.Client{Timeout: timeout},
		executor:    executor,
	}
}

func (c *Client) Name() string {
	return "ollama"
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Format  string          `json:"format"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Complete implements extraction.Completer.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	req := generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Format: "json",
		Options: generateOptions{
			Temperature: c.temperature,
			NumPredict:  c.numPredict,
		},
	}

	var resp generateResponse
	call := func(ctx context.Context) error {
		return c.postJSON(ctx, "/api/generate", req, &resp, "generate")
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "ollama.generate", call, classifyOllamaError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", toExtractionError(ctx, "ollama generate", err)
	}
	return strings.TrimSpace(resp.Response), nil
}
