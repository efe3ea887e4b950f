package shortlink

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// --- Hand-written mocks ---

type mockStore struct {
	insertFn func(ctx context.Context, link *Link) error
	findFn   func(ctx context.Context, code string) (*Link, error)
	incFn    func(ctx context.Context, code string, delta int64) error
}

func (m *mockStore) Insert(ctx context.Context, link *Link) error {
	return m.insertFn(ctx, link)
}
func (m *mockStore) FindByCode(ctx context.Context, code string) (*Link, error) {
	return m.findFn(ctx, code)
}
func (m *mockStore) IncrementClicks(ctx context.Context, code string, delta int64) error {
	if m.incFn == nil {
		return nil
	}
	return m.incFn(ctx, code, delta)
}

type mockStats struct {
	getDailyFn func(ctx context.Context, code string, from, to time.Time) ([]DailyCount, error)
}

func (m *mockStats) IncDaily(context.Context, string, time.Time) error { return nil }
func (m *mockStats) GetDaily(ctx context.Context, code string, from, to time.Time) ([]DailyCount, error) {
	return m.getDailyFn(ctx, code, from, to)
}

type mockCodegen struct {
	codes []string
	idx   int
}

func (m *mockCodegen) Generate(int) (string, error) {
	if m.idx >= len(m.codes) {
		return "", errors.New("no more codes")
	}
	c := m.codes[m.idx]
	m.idx++
	return c, nil
}

// memStore is a real in-memory LinkStore with the same atomicity guarantees
// the persistent backends provide, used for end-to-end and concurrency tests.
type memStore struct {
	mu    sync.Mutex
	links map[string]*Link
}

func newMemStore() *memStore {
	return &memStore{links: make(map[string]*Link)}
}

func (s *memStore) Insert(_ context.Context, link *Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.links[link.Code]; exists {
		return ErrCodeTaken
	}
	cp := *link
	s.links[link.Code] = &cp
	return nil
}

func (s *memStore) FindByCode(_ context.Context, code string) (*Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	link, ok := s.links[code]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *link
	return &cp, nil
}

func (s *memStore) IncrementClicks(_ context.Context, code string, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	link, ok := s.links[code]
	if !ok {
		return ErrNotFound
	}
	link.Clicks += delta
	return nil
}

var testNow = time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

func newTestService(store LinkStore, stats ClickStatsStore, gen CodeGenerator) *Service {
	svc := NewService(store, stats, gen, NewSHA256Hasher(), 6)
	svc.now = func() time.Time { return testNow }
	return svc
}

// --- Create ---

func TestCreate_HappyPath(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &mockStats{}, &mockCodegen{codes: []string{"Ab3dE9"}})

	link, err := svc.Create(context.Background(), CreateInput{URL: "https://example.com"})
	if err != nil {
		t.Fatal(err)
	}
	if link.Code != "Ab3dE9" {
		t.Errorf("got code %q, want %q", link.Code, "Ab3dE9")
	}
	if link.OriginalURL != "https://example.com" {
		t.Errorf("got URL %q", link.OriginalURL)
	}
	if !link.CreatedAt.Equal(testNow) {
		t.Errorf("got createdAt %v, want %v", link.CreatedAt, testNow)
	}
	if want := testNow.Add(DefaultTTL); !link.ExpiresAt.Equal(want) {
		t.Errorf("got expiresAt %v, want %v", link.ExpiresAt, want)
	}
	if link.PasswordHash != "" {
		t.Error("unprotected link must have no password hash")
	}
}

func TestCreate_CustomTTL(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &mockStats{}, &mockCodegen{codes: []string{"abc123"}})

	link, err := svc.Create(context.Background(), CreateInput{URL: "https://example.com", TTL: time.Hour})
	if err != nil {
		t.Fatal(err)
	}
	if want := testNow.Add(time.Hour); !link.ExpiresAt.Equal(want) {
		t.Errorf("got expiresAt %v, want %v", link.ExpiresAt, want)
	}
}

func TestCreate_PasswordStoredAsDigest(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &mockStats{}, &mockCodegen{codes: []string{"abc123"}})

	link, err := svc.Create(context.Background(), CreateInput{URL: "https://example.com", Password: "secret123"})
	if err != nil {
		t.Fatal(err)
	}
	if link.PasswordHash == "" || link.PasswordHash == "secret123" {
		t.Errorf("password must be stored as digest, got %q", link.PasswordHash)
	}
	if link.PasswordHash != NewSHA256Hasher().Hash("secret123") {
		t.Error("stored digest does not match the hasher output")
	}
}

func TestCreate_InvalidURL(t *testing.T) {
	tests := []string{"", "not-a-url", "ftp://example.com", "https://"}
	for _, raw := range tests {
		svc := newTestService(newMemStore(), &mockStats{}, &mockCodegen{})
		if _, err := svc.Create(context.Background(), CreateInput{URL: raw}); !errors.Is(err, ErrInvalidURL) {
			t.Errorf("URL %q: expected ErrInvalidURL, got %v", raw, err)
		}
	}
}

func TestCreate_CollisionRetries(t *testing.T) {
	attempts := 0
	store := &mockStore{
		insertFn: func(_ context.Context, _ *Link) error {
			attempts++
			if attempts <= 2 {
				return ErrCodeTaken
			}
			return nil
		},
	}
	svc := newTestService(store, &mockStats{}, &mockCodegen{codes: []string{"c1", "c2", "c3"}})

	link, err := svc.Create(context.Background(), CreateInput{URL: "https://example.com"})
	if err != nil {
		t.Fatal(err)
	}
	if link.Code != "c3" {
		t.Errorf("got code %q, want %q", link.Code, "c3")
	}
	if attempts != 3 {
		t.Errorf("expected 3 insert attempts, got %d", attempts)
	}
}

func TestCreate_RetriesExhausted(t *testing.T) {
	store := &mockStore{
		insertFn: func(_ context.Context, _ *Link) error { return ErrCodeTaken },
	}
	codes := make([]string, maxCodeAttempts)
	for i := range codes {
		codes[i] = "dup"
	}
	svc := newTestService(store, &mockStats{}, &mockCodegen{codes: codes})

	_, err := svc.Create(context.Background(), CreateInput{URL: "https://example.com"})
	if !errors.Is(err, ErrCodeExhausted) {
		t.Fatalf("expected ErrCodeExhausted, got: %v", err)
	}
}

func TestCreate_StorageErrorNotRetried(t *testing.T) {
	boom := errors.New("connection reset")
	attempts := 0
	store := &mockStore{
		insertFn: func(_ context.Context, _ *Link) error {
			attempts++
			return boom
		},
	}
	svc := newTestService(store, &mockStats{}, &mockCodegen{codes: []string{"c1", "c2"}})

	_, err := svc.Create(context.Background(), CreateInput{URL: "https://example.com"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected storage error propagated unchanged, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("storage errors must not be retried, got %d attempts", attempts)
	}
}

// --- Resolve ---

func createTestLink(t *testing.T, svc *Service, password string) *Link {
	t.Helper()
	link, err := svc.Create(context.Background(), CreateInput{URL: "https://example.com", Password: password})
	if err != nil {
		t.Fatal(err)
	}
	return link
}

func TestResolve_UnknownCode(t *testing.T) {
	svc := newTestService(newMemStore(), &mockStats{}, &mockCodegen{})

	_, err := svc.Resolve(context.Background(), "missing", "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestResolve_EmptyCode(t *testing.T) {
	svc := newTestService(newMemStore(), &mockStats{}, &mockCodegen{})

	_, err := svc.Resolve(context.Background(), "  ", "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestResolve_UnprotectedIncrementsOnce(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &mockStats{}, &mockCodegen{codes: []string{"abc123"}})
	link := createTestLink(t, svc, "")

	got, err := svc.Resolve(context.Background(), link.Code, "")
	if err != nil {
		t.Fatal(err)
	}
	if got.OriginalURL != "https://example.com" {
		t.Errorf("got URL %q", got.OriginalURL)
	}

	info, err := svc.Info(context.Background(), link.Code)
	if err != nil {
		t.Fatal(err)
	}
	if info.Clicks != 1 {
		t.Errorf("got %d clicks, want 1", info.Clicks)
	}
}

func TestResolve_ProtectedStateMachine(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &mockStats{}, &mockCodegen{codes: []string{"abc123"}})
	link := createTestLink(t, svc, "hunter2")

	t.Run("no password demands credential", func(t *testing.T) {
		_, err := svc.Resolve(context.Background(), link.Code, "")
		if !errors.Is(err, ErrPasswordRequired) {
			t.Fatalf("expected ErrPasswordRequired, got: %v", err)
		}
	})

	t.Run("wrong password is forbidden, clicks unchanged", func(t *testing.T) {
		_, err := svc.Resolve(context.Background(), link.Code, "nope")
		if !errors.Is(err, ErrWrongPassword) {
			t.Fatalf("expected ErrWrongPassword, got: %v", err)
		}
		info, err := svc.Info(context.Background(), link.Code)
		if err != nil {
			t.Fatal(err)
		}
		if info.Clicks != 0 {
			t.Errorf("terminal outcomes must not record clicks, got %d", info.Clicks)
		}
	})

	t.Run("correct password redirects and increments", func(t *testing.T) {
		got, err := svc.Resolve(context.Background(), link.Code, "hunter2")
		if err != nil {
			t.Fatal(err)
		}
		if got.OriginalURL != "https://example.com" {
			t.Errorf("got URL %q", got.OriginalURL)
		}
		info, err := svc.Info(context.Background(), link.Code)
		if err != nil {
			t.Fatal(err)
		}
		if info.Clicks != 1 {
			t.Errorf("got %d clicks, want 1", info.Clicks)
		}
	})
}

func TestResolve_Expired(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &mockStats{}, &mockCodegen{codes: []string{"abc123"}})
	link, err := svc.Create(context.Background(), CreateInput{URL: "https://example.com", TTL: time.Minute})
	if err != nil {
		t.Fatal(err)
	}

	svc.now = func() time.Time { return testNow.Add(time.Minute) }

	_, err = svc.Resolve(context.Background(), link.Code, "")
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired at the expiry instant, got: %v", err)
	}

	// Metadata stays readable after logical expiry.
	info, err := svc.Info(context.Background(), link.Code)
	if err != nil {
		t.Fatal(err)
	}
	if info.Clicks != 0 {
		t.Errorf("expired resolve must not record clicks, got %d", info.Clicks)
	}
}

func TestResolve_ConcurrentClicksNotLost(t *testing.T) {
	const n = 100

	store := newMemStore()
	svc := newTestService(store, &mockStats{}, &mockCodegen{codes: []string{"abc123"}})
	link := createTestLink(t, svc, "")

	var wg sync.WaitGroup
	errCh := make(chan error, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Resolve(context.Background(), link.Code, ""); err != nil {
				errCh <- err
			}
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatal(err)
	}

	info, err := svc.Info(context.Background(), link.Code)
	if err != nil {
		t.Fatal(err)
	}
	if info.Clicks != n {
		t.Errorf("got %d clicks, want %d (lost updates)", info.Clicks, n)
	}
}

// --- Info ---

func TestInfo_RoundTripAfterCreate(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &mockStats{}, &mockCodegen{codes: []string{"Ab3dE9"}})
	createTestLink(t, svc, "secret123")

	info, err := svc.Info(context.Background(), "Ab3dE9")
	if err != nil {
		t.Fatal(err)
	}
	if info.Code != "Ab3dE9" {
		t.Errorf("got code %q", info.Code)
	}
	if info.OriginalURL != "https://example.com" {
		t.Errorf("got URL %q", info.OriginalURL)
	}
	if info.Clicks != 0 {
		t.Errorf("fresh link must have 0 clicks, got %d", info.Clicks)
	}
	if !info.PasswordProtected {
		t.Error("expected passwordProtected true")
	}
	if info.CreatedAt != testNow.Unix() {
		t.Errorf("got createdAt %d, want %d", info.CreatedAt, testNow.Unix())
	}
	if info.ExpiryTime != testNow.Add(DefaultTTL).Unix() {
		t.Errorf("got expiryTime %d", info.ExpiryTime)
	}
}

func TestInfo_UnknownCode(t *testing.T) {
	svc := newTestService(newMemStore(), &mockStats{}, &mockCodegen{})

	_, err := svc.Info(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

// --- DailyStats ---

func TestDailyStats_InvalidRange(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &mockStats{}, &mockCodegen{codes: []string{"abc123"}})
	link := createTestLink(t, svc, "")

	from := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)

	_, err := svc.DailyStats(context.Background(), link.Code, from, to)
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got: %v", err)
	}
}

func TestDailyStats_GapFilling(t *testing.T) {
	store := newMemStore()
	stats := &mockStats{
		getDailyFn: func(_ context.Context, _ string, _, _ time.Time) ([]DailyCount, error) {
			return []DailyCount{
				{Date: "2025-01-01", Count: 5},
				{Date: "2025-01-03", Count: 3},
			}, nil
		},
	}
	svc := newTestService(store, stats, &mockCodegen{codes: []string{"abc123"}})
	link := createTestLink(t, svc, "")

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)

	counts, err := svc.DailyStats(context.Background(), link.Code, from, to)
	if err != nil {
		t.Fatal(err)
	}
	if len(counts) != 3 {
		t.Fatalf("expected 3 days, got %d", len(counts))
	}
	if counts[0].Count != 5 || counts[1].Count != 0 || counts[2].Count != 3 {
		t.Errorf("got %+v", counts)
	}
	if counts[1].Date != "2025-01-02" {
		t.Errorf("gap day: got %q", counts[1].Date)
	}
}

// --- validateAndNormalizeURL ---

func TestValidateAndNormalizeURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"valid https", "https://example.com/path", "https://example.com/path", false},
		{"valid http", "http://example.com", "http://example.com", false},
		{"strips fragment", "https://example.com/page#section", "https://example.com/page", false},
		{"empty string", "", "", true},
		{"bad scheme ftp", "ftp://example.com", "", true},
		{"no scheme", "example.com", "", true},
		{"missing host", "https://", "", true},
		{"whitespace trimmed", "  https://example.com  ", "https://example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := validateAndNormalizeURL(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
