package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestRequestIDKeepsValidHeader(t *testing.T) {
	handler := RequestID(nil)(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(requestIDHeader, "req-42.a_b")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get(requestIDHeader); got != "req-42.a_b" {
		t.Fatalf("expected header echoed, got %q", got)
	}
}

func TestRequestIDReplacesUnsafeValues(t *testing.T) {
	for _, bad := range []string{"", "with space", "line\nbreak", strings.Repeat("a", maxRequestIDLen+1)} {
		handler := RequestID(nil)(okHandler())
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set(requestIDHeader, bad)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if _, err := uuid.Parse(rec.Header().Get(requestIDHeader)); err != nil {
			t.Fatalf("expected generated uuid for %q, got %q", bad, rec.Header().Get(requestIDHeader))
		}
	}
}
