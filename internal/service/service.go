// ABOUTME: Service wiring: operations glue validation, authorization, and the store
// ABOUTME: Every operation takes the caller as an explicit principal from context

package service

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/larpforge/larpd/internal/auth"
	"github.com/larpforge/larpd/internal/rules"
	"github.com/larpforge/larpd/internal/store"
	"github.com/larpforge/larpd/internal/views"
)

// emailRegex is a pragmatic format check; real validation is the
// confirmation mail's job, which is out of scope here
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Service implements larpd's operations over a Store, an Authorizer, and a
// token verifier.
type Service struct {
	store    store.Store
	rules    *rules.Authorizer
	verifier *auth.JWTVerifier
	views    *views.Builder
	tokenTTL time.Duration
	logger   *slog.Logger

	now   func() time.Time
	newID func() string
}

// New creates a Service. tokenTTL bounds the lifetime of minted login tokens.
func New(s store.Store, authorizer *rules.Authorizer, verifier *auth.JWTVerifier, tokenTTL time.Duration) *Service {
	return &Service{
		store:    s,
		rules:    authorizer,
		verifier: verifier,
		views:    views.NewBuilder(s),
		tokenTTL: tokenTTL,
		logger:   slog.Default().With("component", "service"),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// principal pulls the caller's identity off the context; nil means anonymous
func principal(ctx context.Context) *auth.Principal {
	return auth.FromContext(ctx)
}

// requirePrincipal rejects anonymous callers
func requirePrincipal(ctx context.Context) (*auth.Principal, error) {
	p := auth.FromContext(ctx)
	if p == nil {
		return nil, &UnauthenticatedError{}
	}
	return p, nil
}

// enforce converts a rule decision into an error for denied operations
func enforce(d rules.Decision, err error) error {
	if err != nil {
		if errors.Is(err, rules.ErrPlotSpansGames) {
			return &InconsistencyError{Detail: "plot links span multiple games"}
		}
		return err
	}
	if !d.Allowed {
		if d.Reason == rules.ReasonNotAuthenticated {
			return &UnauthenticatedError{}
		}
		return &PermissionDeniedError{Reason: d.Reason}
	}
	return nil
}
