package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/resume-rag/internal/core/domain"
)

type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *ProfileRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/cli startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026101901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS profiles (
	identity_key TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	source_id TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *ProfileRepository) GetProfileByIdentity(ctx context.Context, identityKey string) (*domain.ProfileRecord, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT identity_key, name, email, phone, source_id, updated_at
FROM profiles
WHERE identity_key = $1
`, identityKey)

	var profile domain.ProfileRecord
	err := row.Scan(&profile.IdentityKey, &profile.Name, &profile.Email, &profile.Phone, &profile.SourceID, &profile.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrProfileNotFound, "get profile", fmt.Errorf("identity %q", identityKey))
		}
		return nil, fmt.Errorf("select profile: %w", err)
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
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (identity_key) DO UPDATE SET
	name = EXCLUDED.name,
	email = EXCLUDED.email,
	phone = EXCLUDED.phone,
	source_id = EXCLUDED.source_id,
	updated_at = EXCLUDED.updated_at
`,
		profile.IdentityKey, profile.Name, profile.Email, profile.Phone, profile.SourceID, profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
