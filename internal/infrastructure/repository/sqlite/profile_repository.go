// Package sqlite is the default single-file profile store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/kirillkom/resume-rag/internal/core/domain"
)

type ProfileRepository struct {
	db   *sql.DB
	path string
}

// Open opens (and creates when missing) the profile database at path.
func Open(ctx context.Context, path string) (*ProfileRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create profile db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open profile db: %w", err)
	}

	repo := &ProfileRepository{db: db, path: path}
	if err := repo.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *ProfileRepository) ensureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS profiles (
			identity_key TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			source_id TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create profiles table: %w", err)
	}
	return nil
}

func (r *ProfileRepository) Close() error {
	return r.db.Close()
}

func (r *ProfileRepository) Path() string {
	return r.path
}

func (r *ProfileRepository) GetProfileByIdentity(ctx context.Context, identityKey string) (*domain.ProfileRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT identity_key, name, email, phone, source_id, updated_at
		FROM profiles
		WHERE identity_key = ?
	`, identityKey)

	var profile domain.ProfileRecord
	var updatedAt string
	err := row.Scan(&profile.IdentityKey, &profile.Name, &profile.Email, &profile.Phone, &profile.SourceID, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrProfileNotFound, "get profile", fmt.Errorf("identity %q", identityKey))
		}
		return nil, fmt.Errorf("select profile: %w", err)
	}
	if profile.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parse profile updated_at: %w", err)
	}
	return &profile, nil
}

func (r *ProfileRepository) UpsertProfile(ctx context.Context, profile domain.ProfileRecord) error {
	if profile.IdentityKey == "" {
		return domain.WrapError(domain.ErrInvalidInput, "upsert profile", errors.New("identity key is required"))
	}
	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (identity_key, name, email, phone, source_id, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(identity_key) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			phone = excluded.phone,
			source_id = excluded.source_id,
			updated_at = excluded.updated_at
	`,
		profile.IdentityKey, profile.Name, profile.Email, profile.Phone, profile.SourceID,
		profile.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
