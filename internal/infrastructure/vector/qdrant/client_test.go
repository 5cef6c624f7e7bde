package qdrant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kirillkom/resume-rag/internal/core/domain"
	"github.com/kirillkom/resume-rag/internal/infrastructure/resilience"
)

type recordedRequest struct {
	method string
	path   string
	body   map[string]any
}

type qdrantRecorder struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (r *qdrantRecorder) record(req *http.Request) map[string]any {
	var body map[string]any
	_ = json.NewDecoder(req.Body).Decode(&body)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, recordedRequest{method: req.Method, path: req.URL.Path, body: body})
	return body
}

func TestResetRecreatesCollection(t *testing.T) {
	rec := &qdrantRecorder{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		if r.Method == http.MethodDelete {
			http.Error(w, `{"status":{"error":"Not found"}}`, http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"result":true}`))
	}))
	defer server.Close()

	if err := New(server.URL, "resumes").Reset(context.Background(), 768); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if len(rec.requests) != 2 {
		t.Fatalf("expected delete+create, got %d requests", len(rec.requests))
	}
	if rec.requests[0].method != http.MethodDelete || rec.requests[1].method != http.MethodPut {
		t.Fatalf("unexpected request order: %+v", rec.requests)
	}
	vectors, _ := rec.requests[1].body["vectors"].(map[string]any)
	if vectors["size"] != float64(768) || vectors["distance"] != "Cosine" {
		t.Fatalf("unexpected collection config: %+v", vectors)
	}
}

func TestIndexChunksBatchesUpserts(t *testing.T) {
	rec := &qdrantRecorder{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	chunks := make([]domain.Chunk, 130)
	vectors := make([][]float32, 130)
	for i := range chunks {
		chunks[i] = domain.Chunk{ID: fmt.Sprintf("id-%d", i), SourceID: "jane.md", Section: domain.SectionSkills, IdentityKey: "jane@x.io", Text: "go"}
		vectors[i] = []float32{0.1, 0.2}
	}

	if err := New(server.URL, "resumes").IndexChunks(context.Background(), chunks, vectors); err != nil {
		t.Fatalf("IndexChunks() error = %v", err)
	}
	if len(rec.requests) != 2 {
		t.Fatalf("expected 2 upsert batches, got %d", len(rec.requests))
	}
	points, _ := rec.requests[0].body["points"].([]any)
	if len(points) != upsertBatchSize {
		t.Fatalf("expected first batch of %d, got %d", upsertBatchSize, len(points))
	}
	payload := points[0].(map[string]any)["payload"].(map[string]any)
	if payload["section"] != "skills" || payload["identity_key"] != "jane@x.io" || payload["source_id"] != "jane.md" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestIndexChunksRejectsMismatch(t *testing.T) {
	err := New("http://unused", "resumes").IndexChunks(context.Background(), []domain.Chunk{{ID: "a"}}, nil)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSearchBuildsSectionFilter(t *testing.T) {
	cases := []struct {
		name     string
		sections []domain.Section
		check    func(t *testing.T, filter map[string]any)
	}{
		{"none", nil, func(t *testing.T, filter map[string]any) {
			if filter != nil {
				t.Fatalf("expected no filter, got %+v", filter)
			}
		}},
		{"one", []domain.Section{domain.SectionSkills}, func(t *testing.T, filter map[string]any) {
			must, _ := filter["must"].([]any)
			if len(must) != 1 || filter["should"] != nil {
				t.Fatalf("expected single must condition, got %+v", filter)
			}
		}},
		{"many", []domain.Section{domain.SectionSkills, domain.SectionProjects}, func(t *testing.T, filter map[string]any) {
			should, _ := filter["should"].([]any)
			if len(should) != 2 || filter["must"] != nil {
				t.Fatalf("expected OR of two conditions, got %+v", filter)
			}
			first := should[0].(map[string]any)["match"].(map[string]any)
			if first["value"] != "skills" {
				t.Fatalf("unexpected first condition: %+v", first)
			}
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &qdrantRecorder{}
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				rec.record(r)
				_, _ = w.Write([]byte(`{"result":[]}`))
			}))
			defer server.Close()

			if _, err := New(server.URL, "resumes").Search(context.Background(), []float32{0.1}, 10, tc.sections); err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			filter, _ := rec.requests[0].body["filter"].(map[string]any)
			tc.check(t, filter)
			if rec.requests[0].body["limit"] != float64(10) {
				t.Fatalf("expected limit 10, got %v", rec.requests[0].body["limit"])
			}
		})
	}
}

func TestSearchMapsPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":[
			{"id":"p1","score":0.93,"payload":{"source_id":"jane.md","section":"skills","identity_key":"jane@x.io","text":"Go"}},
			{"id":7,"score":0.81,"payload":{"source_id":"anon.txt","section":"general","text":"Rust"}}
		]}`))
	}))
	defer server.Close()

	hits, err := New(server.URL, "resumes").Search(context.Background(), []float32{0.1}, 10, nil)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].ID != "p1" || hits[0].Section != domain.SectionSkills || hits[0].IdentityKey != "jane@x.io" || hits[0].Score != 0.93 {
		t.Fatalf("unexpected first hit: %+v", hits[0])
	}
	if hits[1].ID != "7" || hits[1].IdentityKey != "" || hits[1].Method != domain.MethodSemantic {
		t.Fatalf("unexpected second hit: %+v", hits[1])
	}
}

func TestSearchMissingCollectionIsConfigurationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status":{"error":"Collection resumes not found"}}`, http.StatusNotFound)
	}))
	defer server.Close()

	exec := resilience.NewExecutor(resilience.Config{RetryMaxAttempts: 1, RetryInitialBackoff: time.Millisecond, BreakerEnabled: false})
	_, err := New(server.URL, "resumes", WithExecutor(exec)).Search(context.Background(), []float32{0.1}, 10, nil)
	if !domain.IsKind(err, domain.ErrIndexMissing) {
		t.Fatalf("expected ErrIndexMissing, got %v", err)
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected response body in error, got %v", err)
	}
}

func TestSearchRetriesUnavailableIndex(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"result":[]}`))
	}))
	defer server.Close()

	exec := resilience.NewExecutor(resilience.Config{RetryMaxAttempts: 2, RetryInitialBackoff: time.Millisecond, BreakerEnabled: false})
	if _, err := New(server.URL, "resumes", WithExecutor(exec)).Search(context.Background(), []float32{0.1}, 10, nil); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}
