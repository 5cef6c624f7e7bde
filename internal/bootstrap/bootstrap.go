package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/resume-rag/internal/config"
	"github.com/kirillkom/resume-rag/internal/core/ports"
	"github.com/kirillkom/resume-rag/internal/core/sections"
	"github.com/kirillkom/resume-rag/internal/core/usecase"
	"github.com/kirillkom/resume-rag/internal/infrastructure/chunking"
	"github.com/kirillkom/resume-rag/internal/infrastructure/corpus/badgerstore"
	htmlextractor "github.com/kirillkom/resume-rag/internal/infrastructure/extractor/html"
	pdfextractor "github.com/kirillkom/resume-rag/internal/infrastructure/extractor/pdf"
	"github.com/kirillkom/resume-rag/internal/infrastructure/extractor/plaintext"
	"github.com/kirillkom/resume-rag/internal/infrastructure/lexical/bm25"
	"github.com/kirillkom/resume-rag/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/resume-rag/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/resume-rag/internal/infrastructure/repository/sqlite"
	"github.com/kirillkom/resume-rag/internal/infrastructure/rerank/crossencoder"
	"github.com/kirillkom/resume-rag/internal/infrastructure/rerank/overlap"
	"github.com/kirillkom/resume-rag/internal/infrastructure/resilience"
	"github.com/kirillkom/resume-rag/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/resume-rag/internal/infrastructure/vector/qdrant"
	"github.com/kirillkom/resume-rag/internal/observability/metrics"
)

// App holds the query side: everything needed to answer questions over an
// already ingested corpus.
type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Registry *prometheus.Registry

	QueryUC  ports.ResumeQueryService
	RouterUC ports.SectionRouterService
	Lexical  *usecase.LexicalRetriever
	Sections *sections.Classifier

	closers []func() error
}

// Ingestor holds the offline ingestion side. It opens the corpus snapshot for
// writing, so it cannot share storage with a running App.
type Ingestor struct {
	Config   config.Config
	IngestUC ports.CorpusIngestor

	closers []func() error
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	app := &App{Config: cfg, Logger: logger, Registry: prometheus.NewRegistry()}

	classifier, err := LoadSectionClassifier(cfg)
	if err != nil {
		return nil, err
	}
	app.Sections = classifier

	executor := newExecutor(cfg)
	client := newOllamaClient(cfg, executor)

	profiles, closeProfiles, err := openProfileStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, closeProfiles)

	corpus := badgerstore.New(cfg.CorpusPath(), badgerstore.WithReadOnly(), badgerstore.WithLogger(logger))
	app.closers = append(app.closers, corpus.Close)

	router, err := ollama.NewSectionClassifier(client)
	if err != nil {
		app.Close()
		return nil, err
	}
	generator, err := newGenerator(cfg, client)
	if err != nil {
		app.Close()
		return nil, err
	}

	opts := []usecase.Option{
		usecase.WithLogger(logger),
		usecase.WithCallTimeout(cfg.CallTimeout()),
		usecase.WithObserver(metrics.NewPipelineMetrics("resume-api", app.Registry)),
	}

	assembler, err := usecase.NewContextAssembler(
		resilience.NewProfileStore(profiles, executor),
		cfg.ProfileLookupWorkers,
		opts...,
	)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("init context assembler: %w", err)
	}
	app.closers = append(app.closers, func() error {
		assembler.Close()
		return nil
	})

	sectionRouter := usecase.NewSectionRouter(router, opts...)
	app.Lexical = usecase.NewLexicalRetriever(corpus, bm25.Builder)
	app.RouterUC = sectionRouter
	app.QueryUC = usecase.NewQueryUseCase(
		sectionRouter,
		usecase.NewSemanticRetriever(
			ollama.NewEmbedder(client),
			qdrant.New(cfg.QdrantURL, cfg.QdrantCollection, qdrant.WithExecutor(executor)),
		),
		app.Lexical,
		usecase.NewReranker(newScorer(cfg, executor, logger), cfg.RerankParallelism),
		assembler,
		generator,
		opts...,
	)
	return app, nil
}

func (a *App) Close() {
	closeAll(a.Logger, a.closers)
	a.closers = nil
}

func NewIngestor(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Ingestor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	ing := &Ingestor{Config: cfg}

	classifier, err := LoadSectionClassifier(cfg)
	if err != nil {
		return nil, err
	}
	storage, err := localfs.New(cfg.DataPath)
	if err != nil {
		return nil, fmt.Errorf("init data storage: %w", err)
	}

	executor := newExecutor(cfg)
	client := newOllamaClient(cfg, executor)

	profiles, closeProfiles, err := openProfileStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	ing.closers = append(ing.closers, closeProfiles)

	corpus := badgerstore.New(cfg.CorpusPath(), badgerstore.WithLogger(logger))
	ing.closers = append(ing.closers, corpus.Close)

	ing.IngestUC = usecase.NewIngestUseCase(
		storage,
		Extractors(),
		classifier,
		chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap),
		ollama.NewEmbedder(client),
		qdrant.New(cfg.QdrantURL, cfg.QdrantCollection, qdrant.WithExecutor(executor)),
		corpus,
		resilience.NewProfileStore(profiles, executor),
		cfg.EmbedBatchSize,
		usecase.WithLogger(logger),
		usecase.WithCallTimeout(cfg.CallTimeout()),
	)
	return ing, nil
}

func (i *Ingestor) Close() {
	closeAll(slog.Default(), i.closers)
	i.closers = nil
}

// NewSectionRouter builds only the query router, for tools that inspect
// routing without opening any store.
func NewSectionRouter(cfg config.Config, logger *slog.Logger) (*usecase.SectionRouter, error) {
	client := newOllamaClient(cfg, newExecutor(cfg))
	classifier, err := ollama.NewSectionClassifier(client)
	if err != nil {
		return nil, err
	}
	return usecase.NewSectionRouter(classifier,
		usecase.WithLogger(logger),
		usecase.WithCallTimeout(cfg.CallTimeout()),
	), nil
}

// Extractors lists the supported resume formats in lookup order.
func Extractors() []ports.TextExtractor {
	return []ports.TextExtractor{
		plaintext.NewExtractor(),
		pdfextractor.NewExtractor(),
		htmlextractor.NewExtractor(),
	}
}

// LoadSectionClassifier builds the heading classifier from the built-in table
// plus the optional override file.
func LoadSectionClassifier(cfg config.Config) (*sections.Classifier, error) {
	categories, err := sections.LoadPatterns(cfg.SectionPatternsFile)
	if err != nil {
		return nil, fmt.Errorf("load section patterns: %w", err)
	}
	classifier, err := sections.NewClassifier(categories)
	if err != nil {
		return nil, fmt.Errorf("init section classifier: %w", err)
	}
	return classifier, nil
}

func newExecutor(cfg config.Config) *resilience.Executor {
	policy := resilience.DefaultConfig()
	policy.AttemptTimeout = cfg.CallTimeout()
	return resilience.NewExecutor(policy)
}

func newOllamaClient(cfg config.Config, executor *resilience.Executor) *ollama.Client {
	return ollama.New(
		cfg.OllamaURL,
		cfg.OllamaGenModel,
		cfg.OllamaEmbedModel,
		ollama.WithExecutor(executor),
		ollama.WithRouterModel(cfg.OllamaRouterModel),
	)
}

func newGenerator(cfg config.Config, client *ollama.Client) (*ollama.Generator, error) {
	template := ""
	if cfg.AnswerTemplateFile != "" {
		raw, err := os.ReadFile(cfg.AnswerTemplateFile)
		if err != nil {
			return nil, fmt.Errorf("read answer template: %w", err)
		}
		template = string(raw)
	}
	return ollama.NewGenerator(client, template)
}

// newScorer prefers the cross-encoder service; without one, candidates are
// ordered by query term overlap.
func newScorer(cfg config.Config, executor *resilience.Executor, logger *slog.Logger) ports.RelevanceScorer {
	if cfg.RerankURL == "" {
		logger.Warn("rerank_fallback_overlap", "reason", "rerank_url not set", "model", cfg.RerankModel)
		return overlap.New()
	}
	return crossencoder.New(cfg.RerankURL, cfg.RerankModel, crossencoder.WithExecutor(executor))
}

func openProfileStore(ctx context.Context, cfg config.Config) (ports.ProfileStore, func() error, error) {
	switch cfg.ProfileStoreDriver {
	case "postgres":
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		repo := postgres.NewProfileRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		return repo, db.Close, nil
	default:
		repo, err := sqlite.Open(ctx, cfg.SQLitePath())
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		return repo, repo.Close, nil
	}
}

func closeAll(logger *slog.Logger, closers []func() error) {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		logger.Warn("shutdown_close_failed", "error", err)
	}
}
