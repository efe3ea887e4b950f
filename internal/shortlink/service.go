package shortlink

import (
	"context"
	"net/url"
	"strings"
	"time"
)

// DefaultTTL is applied when a create request carries no TTL: seven days.
const DefaultTTL = 7 * 24 * time.Hour

// maxCodeAttempts bounds regeneration on code collisions before giving up
// with ErrCodeExhausted.
const maxCodeAttempts = 5

type Service struct {
	store      LinkStore
	stats      ClickStatsStore
	codegen    CodeGenerator
	hasher     PasswordHasher
	codeLength int
	defaultTTL time.Duration
	now        func() time.Time
}

func NewService(store LinkStore, stats ClickStatsStore, codegen CodeGenerator, hasher PasswordHasher, codeLength int) *Service {
	if codeLength <= 0 {
		codeLength = 6
	}

	return &Service{
		store:      store,
		stats:      stats,
		codegen:    codegen,
		hasher:     hasher,
		codeLength: codeLength,
		defaultTTL: DefaultTTL,
		now:        time.Now,
	}
}

// WithDefaultTTL overrides the fallback lifetime used when a create request
// carries no TTL of its own.
func (s *Service) WithDefaultTTL(d time.Duration) *Service {
	if d > 0 {
		s.defaultTTL = d
	}
	return s
}

// Create validates the destination, hashes the optional password and inserts
// a fresh record under a generated code. A collision with an existing code
// triggers regeneration, bounded by maxCodeAttempts.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Link, error) {
	normalizedURL, err := validateAndNormalizeURL(in.URL)
	if err != nil {
		return nil, ErrInvalidURL
	}

	ttl := in.TTL
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	now := s.now().UTC()
	link := &Link{
		OriginalURL: normalizedURL,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
		UserID:      strings.TrimSpace(in.UserID),
	}
	if in.Password != "" {
		link.PasswordHash = s.hasher.Hash(in.Password)
	}

	for range maxCodeAttempts {
		code, err := s.codegen.Generate(s.codeLength)
		if err != nil {
			return nil, err
		}
		link.Code = code

		if err := s.store.Insert(ctx, link); err != nil {
			if err == ErrCodeTaken {
				continue
			}
			return nil, err
		}

		return link, nil
	}

	return nil, ErrCodeExhausted
}

// Resolve decides the outcome for a visit: ErrNotFound for unknown codes,
// ErrExpired past the expiry instant, ErrPasswordRequired/ErrWrongPassword
// for protected links, otherwise the link itself after atomically recording
// the click. Terminal outcomes have no side effect.
func (s *Service) Resolve(ctx context.Context, code, suppliedPassword string) (*Link, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrNotFound
	}

	link, err := s.store.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if !s.now().UTC().Before(link.ExpiresAt.UTC()) {
		return nil, ErrExpired
	}

	if link.Protected() {
		if suppliedPassword == "" {
			return nil, ErrPasswordRequired
		}
		if !digestsEqual(s.hasher.Hash(suppliedPassword), link.PasswordHash) {
			return nil, ErrWrongPassword
		}
	}

	if err := s.store.IncrementClicks(ctx, code, 1); err != nil {
		return nil, err
	}
	link.Clicks++

	return link, nil
}

// Info returns link metadata without touching the click counter and without
// demanding a credential. Expired links are still served.
func (s *Service) Info(ctx context.Context, code string) (*LinkInfo, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrNotFound
	}

	link, err := s.store.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	return &LinkInfo{
		Code:              link.Code,
		OriginalURL:       link.OriginalURL,
		Clicks:            link.Clicks,
		CreatedAt:         link.CreatedAt.UTC().Unix(),
		ExpiryTime:        link.ExpiresAt.UTC().Unix(),
		PasswordProtected: link.Protected(),
	}, nil
}

// DailyStats returns zero-filled per-day click counts for the range.
func (s *Service) DailyStats(ctx context.Context, code string, from, to time.Time) ([]DailyCount, error) {
	if _, err := s.Info(ctx, code); err != nil {
		return nil, err
	}

	from = from.UTC()
	to = to.UTC()
	if to.Before(from) {
		return nil, ErrInvalidRange
	}

	counts, err := s.stats.GetDaily(ctx, code, from, to)
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]int64, len(counts))
	for _, c := range counts {
		byDate[c.Date] = c.Count
	}

	out := make([]DailyCount, 0, int(to.Sub(from).Hours()/24)+1)
	for day := dateOnly(from); !day.After(dateOnly(to)); day = day.AddDate(0, 0, 1) {
		ds := day.Format(time.DateOnly)
		out = append(out, DailyCount{Date: ds, Count: byDate[ds]})
	}

	return out, nil
}

func validateAndNormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidURL
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrInvalidURL
	}
	if strings.TrimSpace(u.Host) == "" {
		return "", ErrInvalidURL
	}

	u.Fragment = ""
	return u.String(), nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
