package usecase

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/resume-rag/internal/core/domain"
	"github.com/kirillkom/resume-rag/internal/core/ports"
)

type embedderFake struct {
	mu      sync.Mutex
	err     error
	queries []string
	batches [][]string
}

func (f *embedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.batches = append(f.batches, texts)
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

func (f *embedderFake) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, text)
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type vectorIndexFake struct {
	mu          sync.Mutex
	hits        []domain.RetrievedChunk
	err         error
	gotLimit    int
	gotSections []domain.Section
	resetSize   int
	indexed     []domain.Chunk
	vectors     [][]float32
}

func (f *vectorIndexFake) Reset(_ context.Context, vectorSize int) error {
	f.resetSize = vectorSize
	return nil
}

func (f *vectorIndexFake) IndexChunks(_ context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	f.indexed = append(f.indexed, chunks...)
	f.vectors = append(f.vectors, vectors...)
	return nil
}

func (f *vectorIndexFake) Search(_ context.Context, _ []float32, limit int, sections []domain.Section) ([]domain.RetrievedChunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotLimit = limit
	f.gotSections = sections
	if f.err != nil {
		return nil, f.err
	}
	return f.hits, nil
}

type corpusStoreFake struct {
	mu       sync.Mutex
	chunks   []domain.Chunk
	err      error
	loads    int
	replaced []domain.Chunk
}

func (f *corpusStoreFake) LoadChunks(context.Context) ([]domain.Chunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if f.err != nil {
		return nil, f.err
	}
	return f.chunks, nil
}

func (f *corpusStoreFake) ReplaceChunks(_ context.Context, chunks []domain.Chunk) error {
	f.replaced = chunks
	return nil
}

// lexicalIndexFake returns every corpus chunk whose text contains a query word.
type lexicalIndexFake struct {
	chunks []domain.Chunk
}

func buildLexicalFake(chunks []domain.Chunk) ports.LexicalIndex {
	return &lexicalIndexFake{chunks: chunks}
}

func (f *lexicalIndexFake) Search(query string, limit int) []domain.RetrievedChunk {
	var out []domain.RetrievedChunk
	for _, c := range f.chunks {
		for _, word := range strings.Fields(strings.ToLower(query)) {
			word = strings.Trim(word, "?.,!")
			if word != "" && strings.Contains(strings.ToLower(c.Text), word) {
				out = append(out, domain.RetrievedChunk{Chunk: c, Score: 1, Method: domain.MethodLexical})
				break
			}
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

type profileStoreFake struct {
	mu       sync.Mutex
	records  map[string]domain.ProfileRecord
	err      error
	delay    map[string]time.Duration
	lookups  []string
	upserted []domain.ProfileRecord
}

func (f *profileStoreFake) GetProfileByIdentity(ctx context.Context, identityKey string) (*domain.ProfileRecord, error) {
	if d := f.delay[identityKey]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups = append(f.lookups, identityKey)
	if f.err != nil {
		return nil, f.err
	}
	record, ok := f.records[identityKey]
	if !ok {
		return nil, domain.WrapError(domain.ErrProfileNotFound, "get profile", errors.New(identityKey))
	}
	return &record, nil
}

func (f *profileStoreFake) UpsertProfile(_ context.Context, profile domain.ProfileRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.upserted = append(f.upserted, profile)
	return nil
}

type sectionClassifierFake struct {
	route domain.SectionRoute
	err   error
	calls int
}

func (f *sectionClassifierFake) ClassifySections(context.Context, string) (domain.SectionRoute, error) {
	f.calls++
	if f.err != nil {
		return domain.SectionRoute{}, f.err
	}
	return f.route, nil
}

// scorerFake scores a passage by its position in byText, or 0 when absent.
type scorerFake struct {
	mu       sync.Mutex
	byText   map[string]float64
	err      error
	short    bool
	calls    int
	inFlight int
	maxSeen  int
	hold     time.Duration
}

func (f *scorerFake) Score(_ context.Context, _ string, passages []string) ([]float64, error) {
	f.mu.Lock()
	f.calls++
	f.inFlight++
	if f.inFlight > f.maxSeen {
		f.maxSeen = f.inFlight
	}
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.hold > 0 {
		time.Sleep(f.hold)
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make([]float64, len(passages))
	for i, p := range passages {
		out[i] = f.byText[p]
	}
	if f.short {
		out = out[:len(out)-1]
	}
	return out, nil
}

type generatorFake struct {
	text        string
	err         error
	calls       int
	gotQuestion string
	gotContext  string
}

func (f *generatorFake) GenerateAnswer(_ context.Context, question, contextText string) (string, error) {
	f.calls++
	f.gotQuestion = question
	f.gotContext = contextText
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type storageFake struct {
	files map[string]string
}

func (f *storageFake) List(context.Context) ([]string, error) {
	keys := make([]string, 0, len(f.files))
	for k := range f.files {
		keys = append(keys, k)
	}
	return keys, nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	body, ok := f.files[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

type textExtractorFake struct{}

func (textExtractorFake) Supports(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".md" || ext == ".txt"
}

func (textExtractorFake) Extract(_ context.Context, _ string, body io.Reader) (string, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

type wholeChunker struct{}

func (wholeChunker) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return []string{text}
}

type observerFake struct {
	mu        sync.Mutex
	degraded  []string
	noContext int
}

func (f *observerFake) ObserveStage(string, time.Duration, error) {}
func (f *observerFake) ObserveCandidates(string, int)             {}
func (f *observerFake) ObserveDegraded(stage string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.degraded = append(f.degraded, stage)
}
func (f *observerFake) ObserveNoContext() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.noContext++
}

func chunk(id, identity string, section domain.Section, text string) domain.Chunk {
	return domain.Chunk{ID: id, SourceID: id + ".md", Section: section, IdentityKey: identity, Text: text}
}

func hit(c domain.Chunk, score float64, method domain.RetrievalMethod) domain.RetrievedChunk {
	return domain.RetrievedChunk{Chunk: c, Score: score, Method: method}
}
