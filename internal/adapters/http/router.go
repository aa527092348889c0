package httpadapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/kirillkom/claims-triage/internal/config"
	"github.com/kirillkom/claims-triage/internal/core/domain"
	"github.com/kirillkom/claims-triage/internal/core/ports"
)

const (
	documentFormField = "document"
	submittedByHeader = "X-User-Id"

	// multipartOverhead leaves room for boundaries and part headers on top of
	// the document ceiling.
	multipartOverhead = 1 << 20
	maxJSONBodyBytes  = 64 << 10

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Services groups the inbound ports served over HTTP.
type Services struct {
	Processor   ports.ClaimProcessor
	Intake      ports.SubmissionIntake
	Submissions ports.SubmissionReader
	Claims      ports.ClaimManager
	Exporter    ports.ClaimExportService
}

// Metrics is the HTTP instrumentation the router mounts when present.
type Metrics interface {
	Handler() http.Handler
	Middleware(next http.Handler) http.Handler
	RecordRejected(reason string)
}

type Router struct {
	cfg      config.Config
	services Services
	metrics  Metrics
}

func NewRouter(cfg config.Config, services Services, metrics Metrics) *Router {
	return &Router{
		cfg:      cfg,
		services: services,
		metrics:  metrics,
	}
}

func (rt *Router) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("POST /v1/claims/process", rt.processClaim)
	api.HandleFunc("POST /v1/submissions", rt.createSubmission)
	api.HandleFunc("GET /v1/submissions/{id}", rt.getSubmission)
	api.HandleFunc("GET /v1/claims", rt.listClaims)
	api.HandleFunc("GET /v1/claims/{id}", rt.getClaim)
	api.HandleFunc("PATCH /v1/claims/{id}", rt.updateClaim)
	api.HandleFunc("DELETE /v1/claims/{id}", rt.deleteClaim)
	api.HandleFunc("POST /v1/claims/{id}/reroute", rt.rerouteClaim)
	api.HandleFunc("GET /v1/exports/claims.xlsx", rt.exportClaims)

	var onReject func(string)
	if rt.metrics != nil {
		onReject = rt.metrics.RecordRejected
	}
	var limited http.Handler = api
	limited = backpressureMiddleware(limited, rt.cfg.APIMaxInFlight, rt.cfg.APIBackpressureWaitTime, onReject)
	limited = rateLimitMiddleware(limited, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst, onReject)
	limited = bearerAuthMiddleware(limited, rt.cfg.APIAuthToken)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.Handle("/v1/", limited)

	var handler http.Handler = mux
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
		handler = rt.metrics.Middleware(handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) processClaim(w http.ResponseWriter, r *http.Request) {
	rt.withDocument(w, r, func(req ports.IntakeRequest) {
		result, err := rt.services.Processor.Process(r.Context(), req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, result)
	})
}

func (rt *Router) createSubmission(w http.ResponseWriter, r *http.Request) {
	rt.withDocument(w, r, func(req ports.IntakeRequest) {
		submission, err := rt.services.Intake.Upload(r.Context(), req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusAccepted, submission)
	})
}

// withDocument streams the first "document" part of a multipart upload into fn.
func (rt *Router) withDocument(w http.ResponseWriter, r *http.Request, fn func(ports.IntakeRequest)) {
	limit := rt.cfg.MaxUploadBytes
	if limit <= 0 {
		limit = 10 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)

	part, err := documentPart(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer part.Close()

	fn(ports.IntakeRequest{
		Filename:    part.FileName(),
		MediaType:   part.Header.Get("Content-Type"),
		Body:        part,
		SubmittedBy: strings.TrimSpace(r.Header.Get(submittedByHeader)),
	})
}

func documentPart(r *http.Request) (*multipart.Part, error) {
	reader, err := r.MultipartReader()
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "read upload", err)
	}
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, domain.WrapError(domain.ErrInvalidInput, "read upload", fmt.Errorf("multipart field %q is required", documentFormField))
		}
		if err != nil {
			var maxBytes *http.MaxBytesError
			if errors.As(err, &maxBytes) {
				return nil, domain.WrapError(domain.ErrPayloadTooLarge, "read upload", err)
			}
			return nil, domain.WrapError(domain.ErrInvalidInput, "read upload", err)
		}
		if part.FormName() == documentFormField {
			return part, nil
		}
		_ = part.Close()
	}
}

func (rt *Router) getSubmission(w http.ResponseWriter, r *http.Request) {
	submission, err := rt.services.Submissions.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, submission)
}

func (rt *Router) listClaims(w http.ResponseWriter, r *http.Request) {
	filter, err := claimFilterFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	claims, err := rt.services.Claims.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if claims == nil {
		claims = []domain.Claim{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"claims": claims,
		"count":  len(claims),
	})
}

func (rt *Router) getClaim(w http.ResponseWriter, r *http.Request) {
	claim, err := rt.services.Claims.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, claim)
}

func (rt *Router) updateClaim(w http.ResponseWriter, r *http.Request) {
	var update domain.ClaimUpdate
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&update); err != nil {
		writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "decode claim update", err))
		return
	}

	claim, err := rt.services.Claims.Update(r.Context(), r.PathValue("id"), update)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, claim)
}

func (rt *Router) deleteClaim(w http.ResponseWriter, r *http.Request) {
	if err := rt.services.Claims.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) rerouteClaim(w http.ResponseWriter, r *http.Request) {
	claim, err := rt.services.Claims.Reroute(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, claim)
}

func (rt *Router) exportClaims(w http.ResponseWriter, r *http.Request) {
	filter, err := claimFilterFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Buffered so a failed export still gets a JSON error response.
	var buf bytes.Buffer
	count, err := rt.services.Exporter.Export(r.Context(), filter, &buf)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="claims.xlsx"`)
	w.Header().Set("X-Claim-Count", strconv.Itoa(count))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func claimFilterFromQuery(r *http.Request) (domain.ClaimFilter, error) {
	q := r.URL.Query()
	filter := domain.ClaimFilter{
		Status: domain.ClaimStatus(strings.TrimSpace(q.Get("status"))),
		Queue:  domain.Queue(strings.TrimSpace(q.Get("queue"))),
		Search: q.Get("search"),
	}
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return domain.ClaimFilter{}, domain.WrapError(domain.ErrInvalidInput, "parse claim filter", fmt.Errorf("limit %q must be a non-negative integer", raw))
		}
		filter.Limit = limit
	}
	return filter, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
