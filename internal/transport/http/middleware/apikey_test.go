package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAPIKeyMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("open when no keys configured", func(t *testing.T) {
		handler := APIKeyMiddleware(nil)(next)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/links", nil))

		if rec.Code != http.StatusNoContent {
			t.Errorf("got status %d, want 204", rec.Code)
		}
	})

	t.Run("rejects missing key", func(t *testing.T) {
		handler := APIKeyMiddleware([]string{"k1"})(next)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/links", nil))

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("got status %d, want 401", rec.Code)
		}
	})

	t.Run("rejects unknown key", func(t *testing.T) {
		handler := APIKeyMiddleware([]string{"k1"})(next)

		req := httptest.NewRequest(http.MethodPost, "/api/links", nil)
		req.Header.Set(APIKeyHeader, "nope")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("got status %d, want 401", rec.Code)
		}
	})

	t.Run("accepts configured key", func(t *testing.T) {
		handler := APIKeyMiddleware([]string{"k1", "k2"})(next)

		req := httptest.NewRequest(http.MethodPost, "/api/links", nil)
		req.Header.Set(APIKeyHeader, "k2")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Errorf("got status %d, want 204", rec.Code)
		}
	})

	t.Run("ignores blank configured keys", func(t *testing.T) {
		handler := APIKeyMiddleware([]string{" ", ""})(next)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/links", nil))

		if rec.Code != http.StatusNoContent {
			t.Errorf("got status %d, want 204 (open)", rec.Code)
		}
	})
}
