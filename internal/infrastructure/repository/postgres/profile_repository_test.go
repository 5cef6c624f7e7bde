package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/resume-rag/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*ProfileRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &ProfileRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestGetProfileByIdentityReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT identity_key, name, email, phone, source_id, updated_at").
		WithArgs("missing@x.io").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetProfileByIdentity(context.Background(), "missing@x.io")
	if !domain.IsKind(err, domain.ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetProfileByIdentityScansRow(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	updated := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"identity_key", "name", "email", "phone", "source_id", "updated_at"}).
		AddRow("jane@x.io", "Jane Doe", "jane@x.io", "+1 555 0100 200", "jane.md", updated)
	mock.ExpectQuery("SELECT identity_key").WithArgs("jane@x.io").WillReturnRows(rows)

	profile, err := repo.GetProfileByIdentity(context.Background(), "jane@x.io")
	if err != nil {
		t.Fatalf("GetProfileByIdentity() error = %v", err)
	}
	if profile.Name != "Jane Doe" || profile.SourceID != "jane.md" || !profile.UpdatedAt.Equal(updated) {
		t.Fatalf("unexpected profile %+v", profile)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetProfileByIdentityPassesThroughDriverErrors(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT identity_key").WithArgs("a").WillReturnError(errors.New("connection reset"))

	_, err := repo.GetProfileByIdentity(context.Background(), "a")
	if err == nil || domain.IsKind(err, domain.ErrProfileNotFound) {
		t.Fatalf("expected driver error, got %v", err)
	}
}

func TestUpsertProfile(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO profiles").
		WithArgs("jane@x.io", "Jane", "jane@x.io", "", "jane.md", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpsertProfile(context.Background(), domain.ProfileRecord{
		IdentityKey: "jane@x.io",
		Name:        "Jane",
		Email:       "jane@x.io",
		SourceID:    "jane.md",
	})
	if err != nil {
		t.Fatalf("UpsertProfile() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpsertProfileRequiresIdentity(t *testing.T) {
	repo, _, done := newRepoWithMock(t)
	defer done()

	err := repo.UpsertProfile(context.Background(), domain.ProfileRecord{Name: "Nobody"})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestEnsureSchemaTakesAdvisoryLock(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS profiles").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
