package usecase

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/kirillkom/resume-rag/internal/core/domain"
	"github.com/kirillkom/resume-rag/internal/core/ports"
)

const (
	semanticTopK    = 10
	lexicalTopK     = 10
	similarityFloor = 0.75
)

// SemanticRetriever searches the vector index and keeps hits above the
// similarity floor in the index's order.
type SemanticRetriever struct {
	embedder ports.Embedder
	index    ports.VectorIndex
}

func NewSemanticRetriever(embedder ports.Embedder, index ports.VectorIndex) *SemanticRetriever {
	return &SemanticRetriever{embedder: embedder, index: index}
}

func (r *SemanticRetriever) Retrieve(ctx context.Context, question string, sections []domain.Section) ([]domain.RetrievedChunk, error) {
	queryVector, err := r.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := r.index.Search(ctx, queryVector, semanticTopK, sections)
	if err != nil {
		return nil, fmt.Errorf("search vector index: %w", err)
	}
	return filterBySimilarity(hits, similarityFloor), nil
}

func filterBySimilarity(hits []domain.RetrievedChunk, floor float64) []domain.RetrievedChunk {
	out := make([]domain.RetrievedChunk, 0, len(hits))
	for _, hit := range hits {
		if math.IsNaN(hit.Score) || hit.Score <= floor {
			continue
		}
		hit.Method = domain.MethodSemantic
		out = append(out, hit)
	}
	return out
}

// LexicalRetriever ranks the corpus snapshot with a term-statistics index.
// The snapshot is loaded on first use and kept for the process lifetime;
// a failed load is retried on the next call.
type LexicalRetriever struct {
	store ports.CorpusStore
	build ports.LexicalIndexBuilder

	mu    sync.Mutex
	index ports.LexicalIndex
}

func NewLexicalRetriever(store ports.CorpusStore, build ports.LexicalIndexBuilder) *LexicalRetriever {
	return &LexicalRetriever{store: store, build: build}
}

// Warm loads the corpus snapshot ahead of the first query.
func (r *LexicalRetriever) Warm(ctx context.Context) error {
	_, err := r.loadIndex(ctx)
	return err
}

func (r *LexicalRetriever) Retrieve(ctx context.Context, question string) ([]domain.RetrievedChunk, error) {
	index, err := r.loadIndex(ctx)
	if err != nil {
		return nil, err
	}
	return index.Search(question, lexicalTopK), nil
}

func (r *LexicalRetriever) loadIndex(ctx context.Context) (ports.LexicalIndex, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.index != nil {
		return r.index, nil
	}
	chunks, err := r.store.LoadChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load lexical corpus: %w", err)
	}
	r.index = r.build(chunks)
	return r.index, nil
}
