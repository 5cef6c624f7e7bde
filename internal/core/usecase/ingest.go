package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/resume-rag/internal/core/domain"
	"github.com/kirillkom/resume-rag/internal/core/ports"
	"github.com/kirillkom/resume-rag/internal/core/sections"
)

const (
	defaultEmbedBatchSize = 32
	extractParallelism    = 4
)

var chunkNamespace = uuid.MustParse("6f1c8f0e-4b1d-4d8e-9a53-3c1f0a8e2b7d")

// IngestUseCase rebuilds every retrieval store from the data directory. It
// must not run while a query process holds the same storage.
type IngestUseCase struct {
	storage    ports.ObjectStorage
	extractors []ports.TextExtractor
	classifier *sections.Classifier
	chunker    ports.Chunker
	embedder   ports.Embedder
	index      ports.VectorIndex
	corpus     ports.CorpusStore
	profiles   ports.ProfileStore
	batchSize  int
	opts       options
}

func NewIngestUseCase(
	storage ports.ObjectStorage,
	extractors []ports.TextExtractor,
	classifier *sections.Classifier,
	chunker ports.Chunker,
	embedder ports.Embedder,
	index ports.VectorIndex,
	corpus ports.CorpusStore,
	profiles ports.ProfileStore,
	batchSize int,
	opts ...Option,
) *IngestUseCase {
	if batchSize <= 0 {
		batchSize = defaultEmbedBatchSize
	}
	return &IngestUseCase{
		storage:    storage,
		extractors: extractors,
		classifier: classifier,
		chunker:    chunker,
		embedder:   embedder,
		index:      index,
		corpus:     corpus,
		profiles:   profiles,
		batchSize:  batchSize,
		opts:       newOptions(opts),
	}
}

func (uc *IngestUseCase) IngestAll(ctx context.Context) (*domain.IngestReport, error) {
	started := time.Now()

	docs, skipped, err := uc.loadDocuments(ctx)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ingest corpus", errors.New("no readable resumes in data directory"))
	}

	chunks, profiles := uc.buildChunks(docs)
	if len(chunks) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ingest corpus", errors.New("resumes produced zero chunks"))
	}

	vectors, err := uc.embed(ctx, chunks)
	if err != nil {
		return nil, err
	}
	if err := uc.indexChunks(ctx, chunks, vectors); err != nil {
		return nil, err
	}
	if err := uc.corpus.ReplaceChunks(ctx, chunks); err != nil {
		return nil, fmt.Errorf("save lexical corpus: %w", err)
	}
	if err := uc.saveProfiles(ctx, profiles); err != nil {
		return nil, err
	}

	report := &domain.IngestReport{
		Documents: len(docs),
		Chunks:    len(chunks),
		Profiles:  len(profiles),
		Skipped:   skipped,
	}
	uc.opts.logger.Info("ingest_completed",
		"documents", report.Documents,
		"chunks", report.Chunks,
		"profiles", report.Profiles,
		"skipped", len(report.Skipped),
		"duration_ms", float64(time.Since(started).Microseconds())/1000.0,
	)
	return report, nil
}

func (uc *IngestUseCase) loadDocuments(ctx context.Context) ([]domain.SourceDocument, []string, error) {
	keys, err := uc.storage.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list data directory: %w", err)
	}
	sort.Strings(keys)

	results := make([]*domain.SourceDocument, len(keys))
	failures := make([]string, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(extractParallelism)
	for i, key := range keys {
		g.Go(func() error {
			doc, err := uc.extractDocument(gctx, key)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				uc.opts.logger.Warn("ingest_skip_document", "file", key, "error", err)
				failures[i] = key
				return nil
			}
			results[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	docs := make([]domain.SourceDocument, 0, len(keys))
	var skipped []string
	for i := range keys {
		switch {
		case results[i] != nil:
			docs = append(docs, *results[i])
		case failures[i] != "":
			skipped = append(skipped, failures[i])
		}
	}
	return docs, skipped, nil
}

func (uc *IngestUseCase) extractDocument(ctx context.Context, key string) (*domain.SourceDocument, error) {
	extractor := uc.extractorFor(key)
	if extractor == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "extract text", fmt.Errorf("unsupported file type: %s", filepath.Ext(key)))
	}

	body, err := uc.storage.Open(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("open source document: %w", err)
	}
	defer body.Close()

	text, err := extractor.Extract(ctx, key, body)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("empty extracted text"))
	}
	return &domain.SourceDocument{ID: key, Filename: filepath.Base(key), Text: text}, nil
}

func (uc *IngestUseCase) extractorFor(filename string) ports.TextExtractor {
	for _, e := range uc.extractors {
		if e.Supports(filename) {
			return e
		}
	}
	return nil
}

func (uc *IngestUseCase) buildChunks(docs []domain.SourceDocument) ([]domain.Chunk, []domain.ProfileRecord) {
	var chunks []domain.Chunk
	var profiles []domain.ProfileRecord
	seenProfiles := make(map[string]int)

	for _, doc := range docs {
		secs := uc.classifier.Extract(doc.Text)

		identityKey := ""
		if profile, ok := extractProfile(doc, secs); ok {
			identityKey = profile.IdentityKey
			profile.UpdatedAt = time.Now().UTC()
			if i, dup := seenProfiles[identityKey]; dup {
				profiles[i] = profile
			} else {
				seenProfiles[identityKey] = len(profiles)
				profiles = append(profiles, profile)
			}
		}

		for _, section := range secs.Names() {
			body, _ := secs.Get(section)
			if strings.TrimSpace(body) == "" {
				continue
			}
			for i, piece := range uc.chunker.Split(body) {
				chunks = append(chunks, domain.Chunk{
					ID:          chunkID(doc.ID, section, i),
					SourceID:    doc.Filename,
					Section:     section,
					IdentityKey: identityKey,
					Text:        piece,
				})
			}
		}
	}
	return chunks, profiles
}

// chunkID is deterministic so re-ingesting the same files yields the same points.
func chunkID(sourceID string, section domain.Section, index int) string {
	return uuid.NewSHA1(chunkNamespace, []byte(fmt.Sprintf("%s|%s|%d", sourceID, section, index))).String()
}

func (uc *IngestUseCase) embed(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += uc.batchSize {
		end := min(start+uc.batchSize, len(chunks))
		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Text)
		}

		batch, err := uc.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks: %w", err)
		}
		if len(batch) != len(texts) {
			return nil, domain.WrapError(
				domain.ErrInvalidInput,
				"embed chunks",
				fmt.Errorf("vectors/chunks mismatch: %d/%d", len(batch), len(texts)),
			)
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

func (uc *IngestUseCase) indexChunks(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if err := uc.index.Reset(ctx, len(vectors[0])); err != nil {
		return fmt.Errorf("reset vector index: %w", err)
	}
	if err := uc.index.IndexChunks(ctx, chunks, vectors); err != nil {
		return fmt.Errorf("index chunks in vector db: %w", err)
	}
	return nil
}

func (uc *IngestUseCase) saveProfiles(ctx context.Context, profiles []domain.ProfileRecord) error {
	for _, p := range profiles {
		if err := uc.profiles.UpsertProfile(ctx, p); err != nil {
			return fmt.Errorf("save profile %s: %w", p.IdentityKey, err)
		}
	}
	return nil
}
