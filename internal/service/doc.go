// ABOUTME: Package doc for the service layer
// ABOUTME: Describes the validate-authorize-store operation pipeline

// Package service implements larpd's operations.
//
// Every operation follows the same pipeline: pull the principal off the
// context, validate input, ask the rules package for a decision, then hit
// the store. Errors cross the service boundary as one of six typed kinds
// (ValidationError, ConflictError, NotFoundError, PermissionDeniedError,
// InconsistencyError, UnauthenticatedError) so transports can map them to
// status codes without inspecting store internals.
//
// The service owns ID generation and timestamps. Clock and ID source are
// injectable fields so tests can pin them.
package service
