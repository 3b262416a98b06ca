// ABOUTME: HTTP middleware for JWT authentication on API endpoints
// ABOUTME: Extracts JWT from Authorization header and adds principal to context

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/larpforge/larpd/internal/store"
)

// UserLookup resolves a verified user ID to the full user record
type UserLookup interface {
	GetUser(ctx context.Context, id string) (*store.User, error)
}

// extractBearerToken extracts a bearer token from the Authorization header.
// Returns the token and an error message (empty if successful).
func extractBearerToken(authHeader string) (string, string) {
	if authHeader == "" {
		return "", "missing authorization header"
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", "invalid authorization header format"
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", "empty token"
	}
	return token, ""
}

// HTTPAuthMiddleware creates an HTTP middleware that extracts and validates
// JWT tokens, looks up the user, and attaches a Principal to the request
// context via WithPrincipal/FromContext.
func HTTPAuthMiddleware(users UserLookup, verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, errMsg := extractBearerToken(r.Header.Get("Authorization"))
			if errMsg != "" {
				http.Error(w, `{"error":"`+errMsg+`"}`, http.StatusUnauthorized)
				return
			}

			userID, err := verifier.Verify(token)
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			user, err := users.GetUser(r.Context(), userID)
			if err != nil {
				http.Error(w, `{"error":"unknown user"}`, http.StatusUnauthorized)
				return
			}

			principal := &Principal{UserID: user.ID, Email: user.Email}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// OptionalAuthMiddleware attaches a Principal when a valid bearer token is
// present but lets anonymous requests through. Public endpoints (game
// listings) use this so the rule set can still answer reads.
func OptionalAuthMiddleware(users UserLookup, verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, errMsg := extractBearerToken(r.Header.Get("Authorization"))
			if errMsg != "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := verifier.Verify(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.GetUser(r.Context(), userID)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			principal := &Principal{UserID: user.ID, Email: user.Email}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}
