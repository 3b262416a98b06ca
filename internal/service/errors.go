// ABOUTME: Typed error kinds surfaced at the service boundary
// ABOUTME: Store sentinels and rule decisions are mapped into these five kinds

package service

import (
	"errors"
	"fmt"

	"github.com/larpforge/larpd/internal/rules"
	"github.com/larpforge/larpd/internal/store"
)

// ValidationError reports malformed or missing input. Deterministic, never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConflictError reports a uniqueness violation
type ConflictError struct {
	Resource string
	Detail   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: %s", e.Resource, e.Detail)
}

// NotFoundError reports a missing entity or dangling reference
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// PermissionDeniedError reports an authorization refusal with its reason
// code. Denials are never downgraded to NotFoundError: entity IDs are
// unguessable UUIDs, so existence leakage is an accepted tradeoff.
type PermissionDeniedError struct {
	Reason rules.Reason
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("permission denied: %s", e.Reason)
}

// InconsistencyError reports a violated invariant spanning multiple
// entities, e.g. a plot whose links belong to different games
type InconsistencyError struct {
	Detail string
}

func (e *InconsistencyError) Error() string {
	return "inconsistency: " + e.Detail
}

// UnauthenticatedError reports a missing principal on an operation that
// requires one
type UnauthenticatedError struct{}

func (e *UnauthenticatedError) Error() string {
	return "authentication required"
}

// mapStoreErr converts store sentinels into service error kinds. The
// resource name and ID give NotFoundError its context.
func mapStoreErr(err error, resource, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return &NotFoundError{Resource: resource, ID: id}
	case errors.Is(err, store.ErrDuplicateEmail):
		return &ConflictError{Resource: "user", Detail: "email already registered"}
	case errors.Is(err, store.ErrDuplicatePlayer):
		return &ConflictError{Resource: "player", Detail: "user already joined this game"}
	case errors.Is(err, store.ErrDuplicateGM):
		return &ConflictError{Resource: "gm", Detail: "user is already a GM of this game"}
	case errors.Is(err, store.ErrGameMismatch):
		return &InconsistencyError{Detail: "entities belong to different games"}
	case errors.Is(err, store.ErrPlotGameSpan):
		return &InconsistencyError{Detail: "plot would span multiple games"}
	default:
		return err
	}
}
