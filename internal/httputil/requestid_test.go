package httputil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/search", nil))
	got := w.Header().Get("X-Request-ID")
	if !strings.HasPrefix(got, "req_") || len(got) != len("req_")+36 {
		t.Errorf("unexpected generated request id %q", got)
	}
	if seen != got {
		t.Errorf("context id %q does not match header %q", seen, got)
	}

	req := httptest.NewRequest(http.MethodPost, "/search", nil)
	req.Header.Set("X-Request-ID", "req_from_client")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "req_from_client" {
		t.Errorf("expected caller id to be kept, got %q", got)
	}
}
