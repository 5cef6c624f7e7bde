package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/resume-rag/internal/core/domain"
	"github.com/kirillkom/resume-rag/internal/core/ports"
)

// NoRelevantDocumentsMessage is returned when retrieval finds nothing.
const NoRelevantDocumentsMessage = "No relevant documents found."

type QueryUseCase struct {
	router    *SectionRouter
	semantic  *SemanticRetriever
	lexical   *LexicalRetriever
	reranker  *Reranker
	assembler *ContextAssembler
	generator ports.AnswerGenerator
	opts      options
}

func NewQueryUseCase(
	router *SectionRouter,
	semantic *SemanticRetriever,
	lexical *LexicalRetriever,
	reranker *Reranker,
	assembler *ContextAssembler,
	generator ports.AnswerGenerator,
	opts ...Option,
) *QueryUseCase {
	return &QueryUseCase{
		router:    router,
		semantic:  semantic,
		lexical:   lexical,
		reranker:  reranker,
		assembler: assembler,
		generator: generator,
		opts:      newOptions(opts),
	}
}

func (uc *QueryUseCase) Answer(ctx context.Context, question string) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "answer question", errors.New("question is empty"))
	}
	started := time.Now()

	route := uc.router.Route(ctx, question)
	uc.opts.logger.Debug("section_route",
		"sections", route.Sections,
		"routed", route.Routed,
		"confidence", route.Confidence,
	)

	lexical, semantic, err := uc.retrieve(ctx, question, route.Sections)
	if err != nil {
		return nil, err
	}

	fused := fuseCandidates(lexical, semantic)
	uc.opts.observer.ObserveCandidates("fused", len(fused))
	if len(fused) == 0 {
		uc.opts.observer.ObserveNoContext()
		uc.opts.logger.Info("no_relevant_documents", "routed", route.Routed, "sections", route.Sections)
		return &domain.Answer{
			Text:      NoRelevantDocumentsMessage,
			Sources:   []domain.RetrievedChunk{},
			Sections:  route.Sections,
			NoContext: true,
		}, nil
	}

	ranked := uc.rerank(ctx, question, fused)
	contextText := uc.assembler.Assemble(ctx, ranked)

	text, err := uc.generate(ctx, question, contextText)
	if err != nil {
		return nil, err
	}

	uc.opts.logger.Info("query_answered",
		"lexical", len(lexical),
		"semantic", len(semantic),
		"fused", len(fused),
		"sources", len(ranked),
		"duration_ms", float64(time.Since(started).Microseconds())/1000.0,
	)
	return &domain.Answer{
		Text:     text,
		Sources:  ranked,
		Sections: route.Sections,
	}, nil
}

// retrieve runs both retrievers concurrently. A failing side degrades to an
// empty list unless storage has not been ingested yet.
func (uc *QueryUseCase) retrieve(ctx context.Context, question string, sections []domain.Section) ([]domain.RetrievedChunk, []domain.RetrievedChunk, error) {
	var lexical, semantic []domain.RetrievedChunk

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hits, err := uc.runRetriever(gctx, "lexical", func(callCtx context.Context) ([]domain.RetrievedChunk, error) {
			return uc.lexical.Retrieve(callCtx, question)
		})
		lexical = hits
		return err
	})
	g.Go(func() error {
		hits, err := uc.runRetriever(gctx, "semantic", func(callCtx context.Context) ([]domain.RetrievedChunk, error) {
			return uc.semantic.Retrieve(callCtx, question, sections)
		})
		semantic = hits
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return lexical, semantic, nil
}

func (uc *QueryUseCase) runRetriever(
	ctx context.Context,
	stage string,
	fn func(context.Context) ([]domain.RetrievedChunk, error),
) ([]domain.RetrievedChunk, error) {
	callCtx, cancel := uc.opts.callContext(ctx)
	defer cancel()

	start := time.Now()
	hits, err := fn(callCtx)
	uc.opts.observer.ObserveStage(stage, time.Since(start), err)
	if err != nil {
		if domain.IsConfigurationError(err) {
			return nil, fmt.Errorf("%s retrieval: %w", stage, err)
		}
		uc.opts.logger.Warn("retrieval_degraded", "retriever", stage, "error", err)
		uc.opts.observer.ObserveDegraded(stage)
		return nil, nil
	}
	uc.opts.observer.ObserveCandidates(stage, len(hits))
	return hits, nil
}

func (uc *QueryUseCase) rerank(ctx context.Context, question string, fused []domain.RetrievedChunk) []domain.RetrievedChunk {
	callCtx, cancel := uc.opts.callContext(ctx)
	defer cancel()

	start := time.Now()
	ranked, err := uc.reranker.Rerank(callCtx, question, fused)
	uc.opts.observer.ObserveStage("rerank", time.Since(start), err)
	if err != nil {
		uc.opts.logger.Warn("rerank_degraded", "error", err)
		uc.opts.observer.ObserveDegraded("rerank")
		return trimCandidates(fused, rerankTopN)
	}
	uc.opts.observer.ObserveCandidates("rerank", len(ranked))
	return ranked
}

func (uc *QueryUseCase) generate(ctx context.Context, question, contextText string) (string, error) {
	callCtx, cancel := uc.opts.callContext(ctx)
	defer cancel()

	start := time.Now()
	text, err := uc.generator.GenerateAnswer(callCtx, question, contextText)
	uc.opts.observer.ObserveStage("generate", time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	return text, nil
}
