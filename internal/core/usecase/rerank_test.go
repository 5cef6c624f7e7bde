package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kirillkom/resume-rag/internal/core/domain"
)

func TestRerankEmptyInputSkipsModel(t *testing.T) {
	scorer := &scorerFake{}
	out, err := NewReranker(scorer, 1).Rerank(context.Background(), "q", nil)
	if err != nil {
		t.Fatalf("Rerank() error = %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty output, got %d", len(out))
	}
	if scorer.calls != 0 {
		t.Fatalf("expected scorer not to be called, got %d calls", scorer.calls)
	}
}

func TestRerankSortsDescendingAndKeepsTopFive(t *testing.T) {
	texts := []string{"t0", "t1", "t2", "t3", "t4", "t5", "t6"}
	scores := map[string]float64{"t0": 0.1, "t1": 0.9, "t2": 0.5, "t3": 0.7, "t4": 0.2, "t5": 0.8, "t6": 0.3}
	candidates := make([]domain.RetrievedChunk, 0, len(texts))
	for _, text := range texts {
		candidates = append(candidates, hit(chunk(text, "", domain.SectionSkills, text), 0, domain.MethodLexical))
	}

	out, err := NewReranker(&scorerFake{byText: scores}, 1).Rerank(context.Background(), "q", candidates)
	if err != nil {
		t.Fatalf("Rerank() error = %v", err)
	}
	want := []string{"t1", "t5", "t3", "t2", "t6"}
	if len(out) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(out))
	}
	for i, id := range want {
		if out[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, out[i].ID)
		}
		if out[i].Score != scores[id] {
			t.Fatalf("expected rerank score on %s, got %f", id, out[i].Score)
		}
	}
}

func TestRerankTiesKeepInputOrder(t *testing.T) {
	candidates := []domain.RetrievedChunk{
		hit(chunk("first", "", domain.SectionSkills, "a"), 0, domain.MethodLexical),
		hit(chunk("second", "", domain.SectionSkills, "b"), 0, domain.MethodLexical),
		hit(chunk("third", "", domain.SectionSkills, "c"), 0, domain.MethodLexical),
	}
	scorer := &scorerFake{byText: map[string]float64{"a": 0.5, "b": 0.5, "c": 0.9}}

	out, err := NewReranker(scorer, 1).Rerank(context.Background(), "q", candidates)
	if err != nil {
		t.Fatalf("Rerank() error = %v", err)
	}
	if out[0].ID != "third" || out[1].ID != "first" || out[2].ID != "second" {
		t.Fatalf("unexpected order: %s,%s,%s", out[0].ID, out[1].ID, out[2].ID)
	}
}

func TestRerankPropagatesScorerFailures(t *testing.T) {
	candidates := []domain.RetrievedChunk{hit(chunk("a", "", domain.SectionSkills, "a"), 0, domain.MethodLexical)}

	if _, err := NewReranker(&scorerFake{err: errors.New("model down")}, 1).Rerank(context.Background(), "q", candidates); err == nil {
		t.Fatalf("expected scorer error")
	}
	_, err := NewReranker(&scorerFake{short: true}, 1).Rerank(context.Background(), "q", candidates)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for score count mismatch, got %v", err)
	}
}

func TestRerankSerializesModelCalls(t *testing.T) {
	scorer := &scorerFake{byText: map[string]float64{}, hold: 5 * time.Millisecond}
	reranker := NewReranker(scorer, 1)
	candidates := []domain.RetrievedChunk{hit(chunk("a", "", domain.SectionSkills, "a"), 0, domain.MethodLexical)}

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := reranker.Rerank(context.Background(), "q", candidates); err != nil {
				t.Errorf("Rerank() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if scorer.maxSeen != 1 {
		t.Fatalf("expected at most one concurrent model call, saw %d", scorer.maxSeen)
	}
	if scorer.calls != 6 {
		t.Fatalf("expected 6 model calls, got %d", scorer.calls)
	}
}

func TestRerankHonorsCanceledContextWhileWaiting(t *testing.T) {
	scorer := &scorerFake{byText: map[string]float64{}, hold: 50 * time.Millisecond}
	reranker := NewReranker(scorer, 1)
	candidates := []domain.RetrievedChunk{hit(chunk("a", "", domain.SectionSkills, "a"), 0, domain.MethodLexical)}

	go func() { _, _ = reranker.Rerank(context.Background(), "q", candidates) }()
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	if _, err := reranker.Rerank(ctx, "q", candidates); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded while waiting for slot, got %v", err)
	}
}
