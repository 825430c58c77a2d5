package middleware

import (
	"context"
	"net/http"

	"github.com/ridermarket/internal/storage"
)

const sessionHeader = "X-Session-Token"

func resolveUserID(r *http.Request, store storage.SessionStore) string {
	token := r.Header.Get(sessionHeader)
	if token == "" {
		if c, err := r.Cookie("session_token"); err == nil {
			token = c.Value
		}
	}
	if token == "" {
		return ""
	}
	userID, err := store.GetSession(r.Context(), token)
	if err != nil {
		return ""
	}
	return userID
}

// SessionAuth requires a valid session token and puts the user id into the
// request context. Missing, unknown, or expired tokens get a JSON 401.
func SessionAuth(store storage.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := resolveUserID(r, store)
			if userID == "" {
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalSession resolves the session token when present but lets
// anonymous requests through. Read endpoints that personalize for known
// users sit behind this.
func OptionalSession(store storage.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID := resolveUserID(r, store); userID != "" {
				r = r.WithContext(context.WithValue(r.Context(), UserIDKey, userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}
