package ports

import (
	"context"

	"github.com/kirillkom/resume-rag/internal/core/domain"
)

// ResumeQueryService is the inbound contract for answering questions over the resume corpus.
type ResumeQueryService interface {
	Answer(ctx context.Context, question string) (*domain.Answer, error)
}

// SectionRouterService resolves which resume sections a question is about.
type SectionRouterService interface {
	Route(ctx context.Context, question string) domain.SectionRoute
}

// CorpusIngestor is the inbound contract for offline ingestion of the data directory.
type CorpusIngestor interface {
	IngestAll(ctx context.Context) (*domain.IngestReport, error)
}
