package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func captureSession(t *testing.T, opts SessionOptions, req *http.Request) (string, *httptest.ResponseRecorder) {
	t.Helper()
	var seen string
	handler := Session(opts, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionIDFromContext(r.Context())
	}))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return seen, resp
}

func TestSessionIssuesNewID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	id, resp := captureSession(t, SessionOptions{TTL: time.Hour}, req)

	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("expected uuid session id, got %q", id)
	}
	if got := resp.Header().Get(SessionHeader); got != id {
		t.Fatalf("expected header %q got %q", id, got)
	}
	cookies := resp.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != defaultSessionCookie || c.Value != id || !c.HttpOnly || c.MaxAge != 3600 {
		t.Fatalf("unexpected cookie %+v", c)
	}
}

func TestSessionPrefersHeaderOverCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set(SessionHeader, "from-header")
	req.AddCookie(&http.Cookie{Name: "cart", Value: "from-cookie"})

	id, _ := captureSession(t, SessionOptions{CookieName: "cart"}, req)
	if id != "from-header" {
		t.Fatalf("expected header session, got %q", id)
	}
}

func TestSessionReadsCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.AddCookie(&http.Cookie{Name: "cart", Value: "from-cookie"})

	id, resp := captureSession(t, SessionOptions{CookieName: "cart", Secure: true}, req)
	if id != "from-cookie" {
		t.Fatalf("expected cookie session, got %q", id)
	}
	if c := resp.Result().Cookies()[0]; !c.Secure {
		t.Fatalf("expected secure cookie")
	}
}

func TestSessionReplacesInvalidID(t *testing.T) {
	for _, bad := range []string{"has space", "semi;colon", strings.Repeat("a", maxSessionIDLength+1)} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
		req.Header.Set(SessionHeader, bad)

		id, _ := captureSession(t, SessionOptions{}, req)
		if id == bad {
			t.Fatalf("invalid session id %q accepted", bad)
		}
		if _, err := uuid.Parse(id); err != nil {
			t.Fatalf("expected generated uuid, got %q", id)
		}
	}
}
