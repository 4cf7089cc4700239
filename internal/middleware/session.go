package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// SessionCookieName is part of the client compatibility contract.
const SessionCookieName = "userId"

type contextKey string

const userIDKey contextKey = "userID"

// SessionResolver maps a session token to a user id, Anonymous (uuid.Nil)
// when there is none.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) uuid.UUID
}

// Session resolves the session cookie on every request and stores the
// caller id in the context. A missing or invalid session is an ordinary
// anonymous request, never rejected here.
func Session(sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := sessions.Resolve(r.Context(), SessionToken(r))
			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionToken extracts the raw session token from the request cookie.
func SessionToken(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// UserID returns the caller id resolved by Session, Anonymous if none.
func UserID(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(userIDKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}
