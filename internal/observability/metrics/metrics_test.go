package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kirillkom/claims-triage/internal/core/domain"
)

func TestNormalizePath(t *testing.T) {
	tests := map[string]string{
		"/v1/claims/process":         "/v1/claims/process",
		"/v1/claims/abc-123":         "/v1/claims/{claim_id}",
		"/v1/claims/abc-123/reroute": "/v1/claims/{claim_id}/reroute",
		"/v1/submissions/s-1":        "/v1/submissions/{submission_id}",
		"/healthz":                   "/healthz",
		"/v1/claims":                 "/v1/claims",
		"/v1/exports/claims.xlsx":    "/v1/exports/claims.xlsx",
		"/wp-login.php":              "other",
		"/v1/claimz/../../etc":       "other",
		"/":                          "other",
	}
	for in, want := range tests {
		if got := normalizePath(in); got != want {
			t.Fatalf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHTTPMiddlewareCountsRequests(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/claims/c-1", nil))

	got := testutil.ToFloat64(m.requestTotal.WithLabelValues("api", http.MethodGet, "/v1/claims/{claim_id}", "404"))
	if got != 1 {
		t.Fatalf("expected 1 request, got %v", got)
	}
}

func TestPipelineCollectors(t *testing.T) {
	m := NewWorkerMetrics("worker")
	m.ClaimRouted(domain.QueueFastTrack, time.Second)
	m.ClaimRouted(domain.QueueFastTrack, time.Second)
	m.PipelineFailed(domain.ReasonExtractionTimeout, 90*time.Second)
	m.PipelineFailed("", time.Second)

	if got := testutil.ToFloat64(m.claimsRouted.WithLabelValues("worker", "fast-track")); got != 2 {
		t.Fatalf("expected 2 routed claims, got %v", got)
	}
	if got := testutil.ToFloat64(m.pipelineFailures.WithLabelValues("worker", "internal")); got != 1 {
		t.Fatalf("expected empty reason to count as internal, got %v", got)
	}

	m.StartSubmission()
	m.FinishSubmission(time.Second, errors.New("boom"))
	if got := testutil.ToFloat64(m.processTotal.WithLabelValues("worker", "error")); got != 1 {
		t.Fatalf("expected 1 failed submission, got %v", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "triage_pipeline_claims_routed_total") {
		t.Fatalf("expected pipeline metrics in exposition")
	}
}
