package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/claims-triage/internal/core/domain"
	"github.com/kirillkom/claims-triage/internal/infrastructure/resilience"
)

func TestCompleteSendsJSONModeRequest(t *testing.T) {
	var payload generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"response":"  {\"extractedFields\":{}}  "}`))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL + "/", Model: "llama3.1", Temperature: 0.3, NumPredict: 4000}, nil)
	out, err := client.Complete(context.Background(), "extract this")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if out != `{"extractedFields":{}}` {
		t.Fatalf("unexpected output %q", out)
	}
	if payload.Model != "llama3.1" || payload.Prompt != "extract this" || payload.Format != "json" || payload.Stream {
		t.Fatalf("unexpected request: %+v", payload)
	}
	if payload.Options.Temperature != 0.3 || payload.Options.NumPredict != 4000 {
		t.Fatalf("unexpected options: %+v", payload.Options)
	}
}

func TestCompleteMapsStatusToServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL, Model: "m"}, nil)
	_, err := client.Complete(context.Background(), "x")
	if !errors.Is(err, domain.ErrExtractionService) {
		t.Fatalf("expected extraction service error, got %v", err)
	}
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected status error in chain, got %v", err)
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected response body in error, got %v", err)
	}
}

func TestCompleteMapsDeadlineToTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	client := New(Config{BaseURL: server.URL, Model: "m"}, nil)
	_, err := client.Complete(ctx, "x")
	if !errors.Is(err, domain.ErrExtractionTimeout) {
		t.Fatalf("expected extraction timeout, got %v", err)
	}
}

func TestCompleteDoesNotRetryByDefault(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL, Model: "m"}, resilience.NewExecutor(resilience.DefaultConfig(), nil))
	_, err := client.Complete(context.Background(), "x")
	if !errors.Is(err, domain.ErrExtractionService) {
		t.Fatalf("expected extraction service error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}
