package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/resume-rag/internal/core/domain"
)

// ObjectStorage lists and opens source resume files.
type ObjectStorage interface {
	List(ctx context.Context) ([]string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// TextExtractor extracts plain text from a stored resume file.
type TextExtractor interface {
	Supports(filename string) bool
	Extract(ctx context.Context, filename string, body io.Reader) (string, error)
}

// Embedder builds vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Chunker splits section text into retrievable pieces.
type Chunker interface {
	Split(text string) []string
}

// VectorIndex stores chunk embeddings and performs similarity search.
// An empty sections list means no filter; several sections are OR-ed.
type VectorIndex interface {
	Reset(ctx context.Context, vectorSize int) error
	IndexChunks(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error
	Search(ctx context.Context, queryVector []float32, limit int, sections []domain.Section) ([]domain.RetrievedChunk, error)
}

// CorpusStore persists the lexical corpus snapshot written by ingestion.
type CorpusStore interface {
	LoadChunks(ctx context.Context) ([]domain.Chunk, error)
	ReplaceChunks(ctx context.Context, chunks []domain.Chunk) error
}

// LexicalIndex ranks chunks against a query by term statistics.
type LexicalIndex interface {
	Search(query string, limit int) []domain.RetrievedChunk
}

// LexicalIndexBuilder builds a LexicalIndex over a corpus snapshot.
type LexicalIndexBuilder func(chunks []domain.Chunk) LexicalIndex

// ProfileStore reads and writes structured identity records.
type ProfileStore interface {
	GetProfileByIdentity(ctx context.Context, identityKey string) (*domain.ProfileRecord, error)
	UpsertProfile(ctx context.Context, profile domain.ProfileRecord) error
}

// SectionClassifier maps a question to relevant sections.
type SectionClassifier interface {
	ClassifySections(ctx context.Context, question string) (domain.SectionRoute, error)
}

// RelevanceScorer scores query/passage pairs; higher is more relevant.
type RelevanceScorer interface {
	Score(ctx context.Context, query string, passages []string) ([]float64, error)
}

// AnswerGenerator produces the final answer from assembled context.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question, contextText string) (string, error)
}

// QueryObserver receives pipeline telemetry.
type QueryObserver interface {
	ObserveStage(stage string, duration time.Duration, err error)
	ObserveCandidates(stage string, count int)
	ObserveDegraded(stage string)
	ObserveNoContext()
}

type NopQueryObserver struct{}

func (NopQueryObserver) ObserveStage(string, time.Duration, error) {}
func (NopQueryObserver) ObserveCandidates(string, int)             {}
func (NopQueryObserver) ObserveDegraded(string)                    {}
func (NopQueryObserver) ObserveNoContext()                         {}
