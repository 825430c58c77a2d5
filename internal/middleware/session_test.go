package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeSessions struct {
	tokens map[string]string
}

func (f *fakeSessions) SetSession(ctx context.Context, token, userID string, ttl time.Duration) error {
	f.tokens[token] = userID
	return nil
}

func (f *fakeSessions) GetSession(ctx context.Context, token string) (string, error) {
	return f.tokens[token], nil
}

func (f *fakeSessions) DeleteSession(ctx context.Context, token string) error {
	delete(f.tokens, token)
	return nil
}

func (f *fakeSessions) Close() error { return nil }

func echoUserID(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(GetUserID(r.Context())))
}

func TestSessionAuthRequiresToken(t *testing.T) {
	store := &fakeSessions{tokens: map[string]string{"tok-1": "u1"}}
	h := SessionAuth(store)(http.HandlerFunc(echoUserID))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/inbox", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest("GET", "/api/inbox", nil)
	req.Header.Set("X-Session-Token", "tok-unknown")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unknown token: status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest("GET", "/api/inbox", nil)
	req.Header.Set("X-Session-Token", "tok-1")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "u1" {
		t.Fatalf("valid token: status = %d body = %q", rec.Code, rec.Body.String())
	}
}

func TestSessionAuthAcceptsCookie(t *testing.T) {
	store := &fakeSessions{tokens: map[string]string{"tok-1": "u1"}}
	h := SessionAuth(store)(http.HandlerFunc(echoUserID))

	req := httptest.NewRequest("GET", "/api/inbox", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: "tok-1"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "u1" {
		t.Fatalf("cookie token: status = %d body = %q", rec.Code, rec.Body.String())
	}
}

func TestOptionalSessionAllowsAnonymous(t *testing.T) {
	store := &fakeSessions{tokens: map[string]string{"tok-1": "u1"}}
	h := OptionalSession(store)(http.HandlerFunc(echoUserID))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/riders", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "" {
		t.Fatalf("anonymous: status = %d body = %q", rec.Code, rec.Body.String())
	}

	req := httptest.NewRequest("GET", "/api/riders", nil)
	req.Header.Set("X-Session-Token", "tok-1")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Body.String() != "u1" {
		t.Fatalf("known token should resolve the user, got %q", rec.Body.String())
	}
}

func TestRecoverJSON(t *testing.T) {
	h := RecoverJSON(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Fatalf("content type = %q", ct)
	}
}
