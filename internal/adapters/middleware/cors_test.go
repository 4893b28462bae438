package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORSMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("allowed_origin_gets_headers", func(t *testing.T) {
		handler := CORSMiddleware([]string{"https://lab.example.com"})(next)

		req := httptest.NewRequest(http.MethodGet, "/studies/1", nil)
		req.Header.Set("Origin", "https://lab.example.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://lab.example.com" {
			t.Errorf("Allow-Origin = %q, want the request origin", got)
		}
	})

	t.Run("unknown_origin_gets_no_headers", func(t *testing.T) {
		handler := CORSMiddleware([]string{"https://lab.example.com"})(next)

		req := httptest.NewRequest(http.MethodGet, "/studies/1", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Allow-Origin = %q, want empty", got)
		}
	})

	t.Run("preflight_short_circuits", func(t *testing.T) {
		handler := CORSMiddleware([]string{"*"})(next)

		req := httptest.NewRequest(http.MethodOptions, "/studies/1", nil)
		req.Header.Set("Origin", "https://lab.example.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
		}
		if got := rec.Header().Get("Access-Control-Allow-Methods"); got == "" {
			t.Error("preflight response missing Allow-Methods")
		}
	})
}
