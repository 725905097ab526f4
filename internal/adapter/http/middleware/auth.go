package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/iho/payflow/internal/infrastructure/auth"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// AccountContextKey is the context key for the authenticated account
	AccountContextKey ContextKey = "account"
)

// AuthenticatedAccount is the caller identity extracted from a verified token.
type AuthenticatedAccount struct {
	ID       string
	Username string
}

// AuthMiddleware creates an authentication middleware
func AuthMiddleware(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "invalid authorization header format", http.StatusUnauthorized)
				return
			}

			claims, err := jwtManager.Verify(parts[1])
			if err != nil {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			account := &AuthenticatedAccount{
				ID:       claims.AccountID,
				Username: claims.Username,
			}

			ctx := context.WithValue(r.Context(), AccountContextKey, account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAccountFromContext extracts the authenticated account from context
func GetAccountFromContext(ctx context.Context) (*AuthenticatedAccount, bool) {
	account, ok := ctx.Value(AccountContextKey).(*AuthenticatedAccount)
	return account, ok
}
