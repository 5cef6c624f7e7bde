package resilience

import (
	"context"
	"errors"

	"github.com/kirillkom/resume-rag/internal/core/domain"
	"github.com/kirillkom/resume-rag/internal/core/ports"
)

// ProfileStore runs record-store calls through an Executor. A miss is an
// answer, not a failure: it is neither retried nor counted by the breaker.
type ProfileStore struct {
	next     ports.ProfileStore
	executor *Executor
}

func NewProfileStore(next ports.ProfileStore, executor *Executor) *ProfileStore {
	return &ProfileStore{next: next, executor: executor}
}

func (s *ProfileStore) GetProfileByIdentity(ctx context.Context, identityKey string) (*domain.ProfileRecord, error) {
	return Do(ctx, s.executor, "profiles.get", func(callCtx context.Context) (*domain.ProfileRecord, error) {
		return s.next.GetProfileByIdentity(callCtx, identityKey)
	}, classifyStoreError)
}

func (s *ProfileStore) UpsertProfile(ctx context.Context, profile domain.ProfileRecord) error {
	return s.executor.Execute(ctx, "profiles.upsert", func(callCtx context.Context) error {
		return s.next.UpsertProfile(callCtx, profile)
	}, classifyStoreError)
}

func classifyStoreError(err error) ErrorClassification {
	switch {
	case err == nil:
		return ErrorClassification{}
	case domain.IsKind(err, domain.ErrProfileNotFound), domain.IsKind(err, domain.ErrInvalidInput):
		return ErrorClassification{Retryable: false, RecordFailure: false}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrorClassification{Retryable: false, RecordFailure: false}
	default:
		return ErrorClassification{Retryable: true, RecordFailure: true}
	}
}
