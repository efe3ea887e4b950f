package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shortloop-dev/shortloop/internal/infrastructure/db"
	"github.com/shortloop-dev/shortloop/internal/shortlink"
)

// uniqueViolation is the SQLSTATE pgx reports when the code collides.
const uniqueViolation = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS links (
    code          TEXT PRIMARY KEY,
    original_url  TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL,
    expires_at    TIMESTAMPTZ NOT NULL,
    clicks        BIGINT NOT NULL DEFAULT 0,
    password_hash TEXT,
    user_id       TEXT
);
CREATE INDEX IF NOT EXISTS links_created_at_idx ON links (created_at DESC);
`

// LinksRepository is the PostgreSQL shortlink.LinkStore, selected with
// STORE_BACKEND=postgres. The primary key on code makes Insert conditional;
// clicks are incremented in SQL rather than read-modify-write.
type LinksRepository struct {
	pg *db.Postgres
}

func NewLinksRepository(ctx context.Context, pg *db.Postgres) (*LinksRepository, error) {
	if pg == nil || pg.Pool == nil {
		return nil, errors.New("postgres pool is nil")
	}
	if _, err := pg.Pool.Exec(ctx, schema); err != nil {
		return nil, err
	}
	return &LinksRepository{pg: pg}, nil
}

func (r *LinksRepository) Insert(ctx context.Context, link *shortlink.Link) error {
	_, err := r.pg.Pool.Exec(ctx,
		`INSERT INTO links (code, original_url, created_at, expires_at, clicks, password_hash, user_id)
		 VALUES ($1, $2, $3, $4, 0, NULLIF($5, ''), NULLIF($6, ''))`,
		link.Code,
		link.OriginalURL,
		link.CreatedAt.UTC(),
		link.ExpiresAt.UTC(),
		link.PasswordHash,
		link.UserID,
	)
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return shortlink.ErrCodeTaken
	}

	return err
}

func (r *LinksRepository) FindByCode(ctx context.Context, code string) (*shortlink.Link, error) {
	var (
		link         shortlink.Link
		createdAt    time.Time
		expiresAt    time.Time
		passwordHash *string
		userID       *string
	)

	err := r.pg.Pool.QueryRow(ctx,
		`SELECT code, original_url, created_at, expires_at, clicks, password_hash, user_id
		 FROM links WHERE code = $1`,
		code,
	).Scan(&link.Code, &link.OriginalURL, &createdAt, &expiresAt, &link.Clicks, &passwordHash, &userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shortlink.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	link.CreatedAt = createdAt.UTC()
	link.ExpiresAt = expiresAt.UTC()
	if passwordHash != nil {
		link.PasswordHash = *passwordHash
	}
	if userID != nil {
		link.UserID = *userID
	}

	return &link, nil
}

func (r *LinksRepository) IncrementClicks(ctx context.Context, code string, delta int64) error {
	tag, err := r.pg.Pool.Exec(ctx,
		`UPDATE links SET clicks = clicks + $2 WHERE code = $1`,
		code, delta,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shortlink.ErrNotFound
	}
	return nil
}
