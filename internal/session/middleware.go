package session

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

type Resolver interface {
	Resolve(ctx context.Context, token string) (uint, bool, error)
}

type ctxKey int

const (
	userIDKey ctxKey = iota
	tokenKey
)

// WithUserID returns a copy of ctx carrying the authenticated user.
func WithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID returns the authenticated user stored by Middleware, if any.
func UserID(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(userIDKey).(uint)
	return id, ok && id != 0
}

// Token returns the raw session token presented with the request.
func Token(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey).(string)
	return t
}

// TokenFromRequest reads the session cookie, falling back to a bearer token.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

// Middleware resolves the session for every request. It never rejects a
// request: handlers decide whether an anonymous caller is acceptable.
func Middleware(resolver Resolver, cookieName string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r, cookieName)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), tokenKey, token)

			userID, ok, err := resolver.Resolve(ctx, token)
			if err != nil {
				// the session store is a side store; treat the caller as anonymous
				logger.Warn("session lookup failed", zap.Error(err))
			}
			if ok {
				ctx = WithUserID(ctx, userID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
