// ABOUTME: Principal context for tracking identity through request handlers
// ABOUTME: Provides WithPrincipal/FromContext for propagating identity via context

package auth

import (
	"context"
)

// Principal holds the authenticated identity extracted from a request.
// It is populated by the HTTP middleware and retrieved from context in
// service operations; there is no ambient current-user state anywhere else.
type Principal struct {
	UserID string // UUID of the authenticated user
	Email  string
}

// principalKey is the key type for storing Principal in context.Context.
type principalKey struct{}

// WithPrincipal returns a new context with the Principal attached.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext retrieves the Principal from the context, returning nil if not present.
func FromContext(ctx context.Context) *Principal {
	val := ctx.Value(principalKey{})
	if val == nil {
		return nil
	}
	p, ok := val.(*Principal)
	if !ok {
		return nil
	}
	return p
}

// MustFromContext retrieves the Principal from the context, panicking if not present.
func MustFromContext(ctx context.Context) *Principal {
	p := FromContext(ctx)
	if p == nil {
		panic("auth: Principal not found in context")
	}
	return p
}
