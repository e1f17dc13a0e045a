package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequireAdminToken(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		provided   string
		wantStatus int
	}{
		{name: "valid", configured: "secret", provided: "secret", wantStatus: http.StatusNoContent},
		{name: "surrounding spaces", configured: " secret ", provided: "secret ", wantStatus: http.StatusNoContent},
		{name: "missing", configured: "secret", provided: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong", configured: "secret", provided: "secreT", wantStatus: http.StatusUnauthorized},
		{name: "not configured", configured: "", provided: "secret", wantStatus: http.StatusServiceUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			handler := RequireAdminToken(tc.configured, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				called = true
				w.WriteHeader(http.StatusNoContent)
			}))

			req := httptest.NewRequest(http.MethodPost, "/v1/session/reset", nil)
			if tc.provided != "" {
				req.Header.Set(headerAdminToken, tc.provided)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, rec.Code)
			}
			if called != (tc.wantStatus == http.StatusNoContent) {
				t.Fatalf("unexpected next handler call state: %v", called)
			}
		})
	}
}

func TestRequireActingUser_StoresActor(t *testing.T) {
	var got string
	handler := RequireActingUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = actorFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/session/reset", nil)
	req.Header.Set(headerActingUser, "  officer-1 ")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}
	if got != "officer-1" {
		t.Fatalf("expected trimmed actor, got %q", got)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/session/reset", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 without actor, got %d", rec.Code)
	}
}

func TestRequestID_ReplacesMalformedHeader(t *testing.T) {
	var seen string
	handler := RequestID(fixedIDs{}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(headerRequestID, "not-a-uuid")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen != fixedRequestID || rec.Header().Get(headerRequestID) != fixedRequestID {
		t.Fatalf("expected generated id, got context=%q header=%q", seen, rec.Header().Get(headerRequestID))
	}
}

func TestNormalizeIP(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "", want: ""},
		{raw: "203.0.113.9", want: "203.0.113.9"},
		{raw: "203.0.113.9:51234", want: "203.0.113.9"},
		{raw: "198.51.100.2, 10.0.0.1", want: "198.51.100.2"},
		{raw: "[2001:db8::1]:443", want: "2001:db8::1"},
		{raw: "unknown", want: ""},
	}

	for _, tc := range tests {
		if got := normalizeIP(tc.raw); got != tc.want {
			t.Fatalf("normalizeIP(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestResolveClientIP_PrefersForwardedHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "10.1.1.1:4000"
	req.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.2")

	if got := resolveClientIP(req); got != "198.51.100.7" {
		t.Fatalf("expected forwarded client ip, got %q", got)
	}
}
