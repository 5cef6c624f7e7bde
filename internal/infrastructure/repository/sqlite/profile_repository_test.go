package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/kirillkom/resume-rag/internal/core/domain"
)

func openTestRepo(t *testing.T) *ProfileRepository {
	t.Helper()
	repo, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "profiles.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestGetProfileByIdentityMiss(t *testing.T) {
	repo := openTestRepo(t)

	_, err := repo.GetProfileByIdentity(context.Background(), "nobody@x.io")
	if !domain.IsKind(err, domain.ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestUpsertThenGetProfile(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	updated := time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)

	if err := repo.UpsertProfile(ctx, domain.ProfileRecord{
		IdentityKey: "jane@x.io",
		Name:        "Jane",
		Email:       "jane@x.io",
		SourceID:    "old.md",
		UpdatedAt:   updated,
	}); err != nil {
		t.Fatalf("UpsertProfile() error = %v", err)
	}
	if err := repo.UpsertProfile(ctx, domain.ProfileRecord{
		IdentityKey: "jane@x.io",
		Name:        "Jane Doe",
		Email:       "jane@x.io",
		Phone:       "+44 20 7946 0958",
		SourceID:    "jane.md",
		UpdatedAt:   updated.Add(time.Hour),
	}); err != nil {
		t.Fatalf("UpsertProfile() second call error = %v", err)
	}

	got, err := repo.GetProfileByIdentity(ctx, "jane@x.io")
	if err != nil {
		t.Fatalf("GetProfileByIdentity() error = %v", err)
	}
	if got.Name != "Jane Doe" || got.Phone != "+44 20 7946 0958" || got.SourceID != "jane.md" {
		t.Fatalf("expected upserted values, got %+v", got)
	}
	if !got.UpdatedAt.Equal(updated.Add(time.Hour)) {
		t.Fatalf("unexpected updated_at %v", got.UpdatedAt)
	}
}

func TestUpsertProfileRequiresIdentity(t *testing.T) {
	repo := openTestRepo(t)
	err := repo.UpsertProfile(context.Background(), domain.ProfileRecord{Name: "x"})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
