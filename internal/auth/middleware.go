package auth

import (
	"context"
	"net/http"
	"strings"
)

// contextKey is an unexported type for context keys in this package, so
// no other package can read or shadow the values stored under them.
type contextKey string

const usernameKey contextKey = "username"

const sessionCookie = "session"

// RequireSession enforces a valid, unrevoked session token on protected
// routes. The token is read from the "session" HttpOnly cookie, or from
// an Authorization: Bearer header for non-browser clients. On success
// the username is stored in the request context; otherwise the chain
// stops with 401.
func RequireSession(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, err := extractUsername(r, tokens)
			if err != nil {
				http.Error(w, `{"error":"unauthorized","message":"valid session required"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), usernameKey, username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UsernameFromContext retrieves the authenticated username set by
// RequireSession. Returns ("", false) for anonymous requests.
func UsernameFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(usernameKey).(string)
	return username, ok
}

// SessionToken returns the raw session token carried by the request,
// cookie first, then bearer header. ("", false) when absent.
func SessionToken(r *http.Request) (string, bool) {
	if cookie, err := r.Cookie(sessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer "), true
	}
	return "", false
}

func extractUsername(r *http.Request, tokens *TokenService) (string, error) {
	tokenStr, ok := SessionToken(r)
	if !ok {
		return "", http.ErrNoCookie
	}
	return tokens.Validate(tokenStr)
}
