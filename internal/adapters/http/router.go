package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/resume-rag/internal/config"
	"github.com/kirillkom/resume-rag/internal/core/domain"
	"github.com/kirillkom/resume-rag/internal/core/ports"
	"github.com/kirillkom/resume-rag/internal/observability/metrics"
)

const (
	serviceName      = "resume-api"
	maxRequestBytes  = 64 << 10
	backpressureWait = 250 * time.Millisecond
)

// Dependencies are the collaborators behind the HTTP surface. Ready and
// Metrics are optional.
type Dependencies struct {
	Query   ports.ResumeQueryService
	Routing ports.SectionRouterService
	Ready   func(ctx context.Context) error
	Metrics *metrics.HTTPServerMetrics
}

type Router struct {
	cfg  config.Config
	deps Dependencies
}

func NewRouter(cfg config.Config, deps Dependencies) *Router {
	return &Router{cfg: cfg, deps: deps}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("GET /readyz", rt.readyz)
	mux.Handle("POST /v1/query", rt.protected(http.HandlerFunc(rt.query)))
	mux.Handle("POST /v1/route", rt.protected(http.HandlerFunc(rt.route)))
	if rt.deps.Metrics != nil {
		mux.Handle("GET /metrics", rt.deps.Metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.deps.Metrics != nil {
		handler = rt.deps.Metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

// protected applies auth, rate limiting and backpressure to model-backed
// endpoints. Health and metrics stay reachable under load.
func (rt *Router) protected(next http.Handler) http.Handler {
	handler := backpressureMiddleware(next, rt.cfg.APIMaxInFlight, backpressureWait)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	handler = rt.rejectionMetrics(handler)
	return bearerAuthMiddleware(handler, rt.cfg.APIKey)
}

func (rt *Router) rejectionMetrics(next http.Handler) http.Handler {
	if rt.deps.Metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(recorder, r)
		switch recorder.Header().Get(rejectionHeader) {
		case rejectionRateLimited:
			rt.deps.Metrics.RecordRejected(serviceName, "rate_limited")
		case rejectionOverloaded:
			rt.deps.Metrics.RecordRejected(serviceName, "overloaded")
		}
	})
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) readyz(w http.ResponseWriter, r *http.Request) {
	if rt.deps.Ready != nil {
		if err := rt.deps.Ready(r.Context()); err != nil {
			writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type questionRequest struct {
	Question string `json:"question"`
}

type sourceResponse struct {
	ID        string  `json:"id"`
	SourceID  string  `json:"source_id"`
	Section   string  `json:"section"`
	Candidate string  `json:"candidate"`
	Score     float64 `json:"score"`
	Method    string  `json:"method,omitempty"`
	Text      string  `json:"text"`
}

type queryResponse struct {
	Answer    string           `json:"answer"`
	NoContext bool             `json:"no_context"`
	Sections  []string         `json:"sections"`
	Sources   []sourceResponse `json:"sources"`
}

type routeResponse struct {
	Sections   []string `json:"sections"`
	Routed     bool     `json:"routed"`
	Confidence string   `json:"confidence,omitempty"`
	Reason     string   `json:"reason,omitempty"`
}

func (rt *Router) query(w http.ResponseWriter, r *http.Request) {
	question, ok := decodeQuestion(w, r)
	if !ok {
		return
	}

	start := time.Now()
	answer, err := rt.deps.Query.Answer(r.Context(), question)
	if err != nil {
		status := writeError(w, r, err)
		if rt.deps.Metrics != nil {
			rt.deps.Metrics.RecordAnswerError(serviceName, "query", status)
		}
		return
	}
	if rt.deps.Metrics != nil {
		rt.deps.Metrics.RecordAnswer(serviceName, "query", len(answer.Sources), answer.NoContext, time.Since(start))
	}

	resp := queryResponse{
		Answer:    answer.Text,
		NoContext: answer.NoContext,
		Sections:  sectionNames(answer.Sections),
		Sources:   make([]sourceResponse, 0, len(answer.Sources)),
	}
	for _, src := range answer.Sources {
		resp.Sources = append(resp.Sources, sourceResponse{
			ID:        src.ID,
			SourceID:  src.SourceID,
			Section:   string(src.Section),
			Candidate: src.Identity(),
			Score:     src.Score,
			Method:    string(src.Method),
			Text:      src.Text,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) route(w http.ResponseWriter, r *http.Request) {
	question, ok := decodeQuestion(w, r)
	if !ok {
		return
	}
	route := rt.deps.Routing.Route(r.Context(), question)
	writeJSON(w, http.StatusOK, routeResponse{
		Sections:   sectionNames(route.Sections),
		Routed:     route.Routed,
		Confidence: route.Confidence,
		Reason:     route.Reason,
	})
}

func decodeQuestion(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req questionRequest
	body := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "request body too large"})
			return "", false
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return "", false
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return "", false
	}
	return question, true
}

func sectionNames(sections []domain.Section) []string {
	out := make([]string, 0, len(sections))
	for _, s := range sections {
		out = append(out, string(s))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
