package usecase

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/semaphore"

	"github.com/kirillkom/resume-rag/internal/core/domain"
	"github.com/kirillkom/resume-rag/internal/core/ports"
)

const rerankTopN = 5

// Reranker rescores fused candidates with a pairwise relevance model. Model
// calls are bounded by a weighted semaphore.
type Reranker struct {
	scorer ports.RelevanceScorer
	sem    *semaphore.Weighted
}

func NewReranker(scorer ports.RelevanceScorer, parallelism int) *Reranker {
	if parallelism <= 0 {
		parallelism = 1
	}
	return &Reranker{
		scorer: scorer,
		sem:    semaphore.NewWeighted(int64(parallelism)),
	}
}

// Rerank returns at most rerankTopN candidates, best first. Equal scores keep
// their input order. Empty input never reaches the model.
func (r *Reranker) Rerank(ctx context.Context, question string, candidates []domain.RetrievedChunk) ([]domain.RetrievedChunk, error) {
	if len(candidates) == 0 {
		return []domain.RetrievedChunk{}, nil
	}

	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire rerank slot: %w", err)
	}
	defer r.sem.Release(1)

	passages := make([]string, len(candidates))
	for i, c := range candidates {
		passages[i] = c.Text
	}
	scores, err := r.scorer.Score(ctx, question, passages)
	if err != nil {
		return nil, fmt.Errorf("score candidates: %w", err)
	}
	if len(scores) != len(candidates) {
		return nil, domain.WrapError(
			domain.ErrInvalidInput,
			"score candidates",
			fmt.Errorf("scores/candidates mismatch: %d/%d", len(scores), len(candidates)),
		)
	}
	return rankByScores(candidates, scores, rerankTopN), nil
}

func rankByScores(candidates []domain.RetrievedChunk, scores []float64, topN int) []domain.RetrievedChunk {
	ranked := make([]domain.RetrievedChunk, len(candidates))
	copy(ranked, candidates)
	for i := range ranked {
		ranked[i].Score = scores[i]
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return trimCandidates(ranked, topN)
}
