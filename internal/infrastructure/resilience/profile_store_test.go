package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kirillkom/resume-rag/internal/core/domain"
)

type flakyProfiles struct {
	failures int
	calls    int
	miss     bool
}

func (f *flakyProfiles) GetProfileByIdentity(_ context.Context, key string) (*domain.ProfileRecord, error) {
	f.calls++
	if f.miss {
		return nil, domain.WrapError(domain.ErrProfileNotFound, "get profile", errors.New(key))
	}
	if f.calls <= f.failures {
		return nil, errors.New("database is locked")
	}
	return &domain.ProfileRecord{IdentityKey: key, Name: "Jane"}, nil
}

func (f *flakyProfiles) UpsertProfile(context.Context, domain.ProfileRecord) error {
	f.calls++
	return nil
}

func fastExecutor() *Executor {
	return NewExecutor(Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
	})
}

func TestProfileStoreRetriesTransientErrors(t *testing.T) {
	next := &flakyProfiles{failures: 2}
	store := NewProfileStore(next, fastExecutor())

	record, err := store.GetProfileByIdentity(context.Background(), "jane@x.io")
	if err != nil {
		t.Fatalf("GetProfileByIdentity() error = %v", err)
	}
	if record.Name != "Jane" || next.calls != 3 {
		t.Fatalf("expected success on third call, got %+v after %d calls", record, next.calls)
	}
}

func TestProfileStoreDoesNotRetryMiss(t *testing.T) {
	next := &flakyProfiles{miss: true}
	store := NewProfileStore(next, fastExecutor())

	_, err := store.GetProfileByIdentity(context.Background(), "ghost@x.io")
	if !domain.IsKind(err, domain.ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
	if next.calls != 1 {
		t.Fatalf("expected a single call for a miss, got %d", next.calls)
	}
}
