// ABOUTME: Package doc for the HTTP API
// ABOUTME: Describes routes, auth, pagination, and error mapping

// Package api exposes the service over HTTP with JSON bodies.
//
// # Authentication
//
// Requests carry "Authorization: Bearer <token>" with a token minted by
// POST /auth/login. The middleware is optional on every route: anonymous
// requests pass through without a principal and the service decides what
// they may do (public game reads work, everything else is refused).
//
// # Pagination
//
// List endpoints accept ?page, ?size (default 20, max 100), ?order_by,
// and ?order=desc. Responses wrap items with page metadata:
//
//	{"items": [...], "page": {"page": 1, "size": 20, "total_items": 42,
//	 "total_pages": 3, "has_next": true, "has_previous": false}}
//
// # Errors
//
// Error responses are {"error": "...", "kind": "..."} with status codes:
// 400 validation, 401 unauthenticated, 403 permission_denied,
// 404 not_found, 409 conflict or inconsistency, 500 internal.
package api
