package shortlink

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound         = errors.New("link not found")
	ErrExpired          = errors.New("link expired")
	ErrInvalidURL       = errors.New("invalid url")
	ErrPasswordRequired = errors.New("password required")
	ErrWrongPassword    = errors.New("wrong password")
	ErrCodeTaken        = errors.New("code taken")
	ErrCodeExhausted    = errors.New("code generation attempts exhausted")
	ErrInvalidRange     = errors.New("invalid date range")
)

// LinkStore is the persistent code -> Link mapping. Insert must be a
// conditional write returning ErrCodeTaken on an existing code, and
// IncrementClicks must be atomic so concurrent resolves never lose updates.
type LinkStore interface {
	Insert(ctx context.Context, link *Link) error
	FindByCode(ctx context.Context, code string) (*Link, error)
	IncrementClicks(ctx context.Context, code string, delta int64) error
}

// ClickStatsStore keeps per-day click aggregates, fed by the click event
// pipeline rather than the resolve path.
type ClickStatsStore interface {
	IncDaily(ctx context.Context, code string, at time.Time) error
	GetDaily(ctx context.Context, code string, from, to time.Time) ([]DailyCount, error)
}

// ClickPublisher emits a click event after a successful resolve. Best-effort:
// failures are logged by callers, never surfaced to the visitor.
type ClickPublisher interface {
	PublishClick(ctx context.Context, code string, at time.Time) error
}

type CodeGenerator interface {
	Generate(length int) (string, error)
}

type PasswordHasher interface {
	Hash(plaintext string) string
}
