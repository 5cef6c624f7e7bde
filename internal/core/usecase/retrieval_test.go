package usecase

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/kirillkom/resume-rag/internal/core/domain"
)

func TestSemanticRetrieverAppliesSimilarityFloorInIndexOrder(t *testing.T) {
	index := &vectorIndexFake{hits: []domain.RetrievedChunk{
		hit(chunk("a", "", domain.SectionSkills, "a"), 0.90, ""),
		hit(chunk("b", "", domain.SectionSkills, "b"), 0.75, ""),
		hit(chunk("c", "", domain.SectionSkills, "c"), 0.80, ""),
		hit(chunk("d", "", domain.SectionSkills, "d"), math.NaN(), ""),
		hit(chunk("e", "", domain.SectionSkills, "e"), 0.80, ""),
		hit(chunk("f", "", domain.SectionSkills, "f"), 0.10, ""),
	}}
	sections := []domain.Section{domain.SectionSkills, domain.SectionProjects}

	got, err := NewSemanticRetriever(&embedderFake{}, index).Retrieve(context.Background(), "q", sections)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}

	ids := make([]string, 0, len(got))
	for _, c := range got {
		ids = append(ids, c.ID)
		if c.Method != domain.MethodSemantic {
			t.Fatalf("expected semantic method on %s", c.ID)
		}
	}
	if !reflect.DeepEqual(ids, []string{"a", "c", "e"}) {
		t.Fatalf("unexpected filtered ids: %v", ids)
	}
	if index.gotLimit != semanticTopK {
		t.Fatalf("expected limit %d, got %d", semanticTopK, index.gotLimit)
	}
	if !reflect.DeepEqual(index.gotSections, sections) {
		t.Fatalf("expected section filter %v, got %v", sections, index.gotSections)
	}
}

func TestSemanticRetrieverPropagatesErrors(t *testing.T) {
	_, err := NewSemanticRetriever(&embedderFake{err: errors.New("embed down")}, &vectorIndexFake{}).Retrieve(context.Background(), "q", nil)
	if err == nil {
		t.Fatalf("expected embed error")
	}

	missing := domain.WrapError(domain.ErrIndexMissing, "search", errors.New("404"))
	_, err = NewSemanticRetriever(&embedderFake{}, &vectorIndexFake{err: missing}).Retrieve(context.Background(), "q", nil)
	if !domain.IsKind(err, domain.ErrIndexMissing) {
		t.Fatalf("expected ErrIndexMissing, got %v", err)
	}
}

func TestLexicalRetrieverLoadsCorpusOnce(t *testing.T) {
	store := &corpusStoreFake{chunks: []domain.Chunk{
		chunk("a", "", domain.SectionSkills, "golang"),
		chunk("b", "", domain.SectionSkills, "java"),
	}}
	retriever := NewLexicalRetriever(store, buildLexicalFake)

	for i := 0; i < 3; i++ {
		got, err := retriever.Retrieve(context.Background(), "golang")
		if err != nil {
			t.Fatalf("Retrieve() error = %v", err)
		}
		if len(got) != 1 || got[0].ID != "a" {
			t.Fatalf("unexpected lexical result: %+v", got)
		}
	}
	if store.loads != 1 {
		t.Fatalf("expected corpus loaded once, got %d", store.loads)
	}
}

func TestLexicalRetrieverMissingCorpusIsRecoverable(t *testing.T) {
	store := &corpusStoreFake{err: domain.WrapError(domain.ErrCorpusMissing, "load corpus", errors.New("no snapshot"))}
	retriever := NewLexicalRetriever(store, buildLexicalFake)

	if err := retriever.Warm(context.Background()); !domain.IsKind(err, domain.ErrCorpusMissing) {
		t.Fatalf("expected ErrCorpusMissing, got %v", err)
	}

	store.err = nil
	store.chunks = []domain.Chunk{chunk("a", "", domain.SectionSkills, "golang")}
	got, err := retriever.Retrieve(context.Background(), "golang")
	if err != nil {
		t.Fatalf("expected retry to succeed after ingestion, got %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one result, got %d", len(got))
	}
}
