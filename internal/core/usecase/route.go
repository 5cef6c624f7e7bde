package usecase

import (
	"context"
	"time"

	"github.com/kirillkom/resume-rag/internal/core/domain"
	"github.com/kirillkom/resume-rag/internal/core/ports"
)

// SectionRouter narrows retrieval to the sections a question is about. It
// never fails: any classifier problem yields an unrouted search.
type SectionRouter struct {
	classifier ports.SectionClassifier
	opts       options
}

func NewSectionRouter(classifier ports.SectionClassifier, opts ...Option) *SectionRouter {
	return &SectionRouter{
		classifier: classifier,
		opts:       newOptions(opts),
	}
}

func (r *SectionRouter) Route(ctx context.Context, question string) domain.SectionRoute {
	if r.classifier == nil {
		return domain.UnroutedSection("no section classifier configured")
	}

	callCtx, cancel := r.opts.callContext(ctx)
	defer cancel()

	start := time.Now()
	route, err := r.classifier.ClassifySections(callCtx, question)
	r.opts.observer.ObserveStage("route", time.Since(start), err)
	if err != nil {
		r.opts.logger.Warn("section_routing_failed", "error", err)
		r.opts.observer.ObserveDegraded("route")
		return domain.UnroutedSection("section classifier unavailable")
	}
	return normalizeRoute(route)
}

func normalizeRoute(route domain.SectionRoute) domain.SectionRoute {
	if !route.Routed {
		return domain.SectionRoute{Confidence: route.Confidence, Reason: route.Reason}
	}

	seen := make(map[domain.Section]struct{}, len(route.Sections))
	valid := make([]domain.Section, 0, len(route.Sections))
	for _, raw := range route.Sections {
		section, ok := domain.ParseSection(string(raw))
		if !ok {
			continue
		}
		if _, dup := seen[section]; dup {
			continue
		}
		seen[section] = struct{}{}
		valid = append(valid, section)
	}
	if len(valid) == 0 {
		return domain.SectionRoute{Confidence: route.Confidence, Reason: route.Reason}
	}
	return domain.SectionRoute{
		Sections:   valid,
		Confidence: route.Confidence,
		Reason:     route.Reason,
		Routed:     true,
	}
}
