package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/kirillkom/resume-rag/internal/core/domain"
	"github.com/kirillkom/resume-rag/internal/core/ports"
)

const contextBlockSeparator = "\n\n---\n\n"

type identityGroup struct {
	key    string
	chunks []domain.RetrievedChunk
}

// ContextAssembler renders ranked chunks as one block per candidate, looking
// up each candidate's profile on a bounded worker pool.
type ContextAssembler struct {
	profiles ports.ProfileStore
	pool     *ants.Pool
	opts     options
}

func NewContextAssembler(profiles ports.ProfileStore, workers int, opts ...Option) (*ContextAssembler, error) {
	if workers <= 0 {
		workers = 4
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create profile lookup pool: %w", err)
	}
	return &ContextAssembler{
		profiles: profiles,
		pool:     pool,
		opts:     newOptions(opts),
	}, nil
}

func (a *ContextAssembler) Close() {
	a.pool.Release()
}

// Assemble groups chunks by identity in first-seen order and renders the
// groups joined by a separator line.
func (a *ContextAssembler) Assemble(ctx context.Context, chunks []domain.RetrievedChunk) string {
	groups := groupByIdentity(chunks)
	if len(groups) == 0 {
		return ""
	}

	start := time.Now()
	records := make([]*domain.ProfileRecord, len(groups))
	var wg sync.WaitGroup
	for i, g := range groups {
		if g.key == domain.UnknownIdentity {
			continue
		}
		wg.Add(1)
		task := func() {
			defer wg.Done()
			records[i] = a.lookup(ctx, g.key)
		}
		if err := a.pool.Submit(task); err != nil {
			a.opts.logger.Warn("profile_lookup_pool_rejected", "identity", g.key, "error", err)
			task()
		}
	}
	wg.Wait()
	a.opts.observer.ObserveStage("profile_lookup", time.Since(start), nil)

	blocks := make([]string, 0, len(groups))
	for i, g := range groups {
		blocks = append(blocks, renderGroup(g, records[i]))
	}
	return strings.Join(blocks, contextBlockSeparator)
}

// lookup treats store failures like a missing record; the group is still rendered.
func (a *ContextAssembler) lookup(ctx context.Context, identityKey string) *domain.ProfileRecord {
	if a.profiles == nil {
		return nil
	}
	callCtx, cancel := a.opts.callContext(ctx)
	defer cancel()

	record, err := a.profiles.GetProfileByIdentity(callCtx, identityKey)
	switch {
	case err == nil:
		return record
	case errors.Is(err, domain.ErrProfileNotFound):
		a.opts.logger.Info("profile_not_found", "identity", identityKey)
	default:
		a.opts.logger.Warn("profile_lookup_failed", "identity", identityKey, "error", err)
		a.opts.observer.ObserveDegraded("profile_lookup")
	}
	return nil
}

func groupByIdentity(chunks []domain.RetrievedChunk) []identityGroup {
	index := make(map[string]int)
	var groups []identityGroup
	for _, c := range chunks {
		key := c.Identity()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, identityGroup{key: key})
		}
		groups[i].chunks = append(groups[i].chunks, c)
	}
	return groups
}

func renderGroup(g identityGroup, record *domain.ProfileRecord) string {
	var sb strings.Builder
	if record != nil {
		name := strings.TrimSpace(record.Name)
		if name == "" {
			name = g.key
		}
		fmt.Fprintf(&sb, "This is the cv of %s\n# Personal information\nName: %s\nEmail: %s\n", name, name, record.Email)
	} else {
		fmt.Fprintf(&sb, "This is the cv of an unidentified candidate (%s)\n", g.key)
	}
	for _, c := range g.chunks {
		fmt.Fprintf(&sb, "\n# %s\n\n%s\n", c.Section, c.Text)
	}
	return strings.TrimRight(sb.String(), "\n")
}
