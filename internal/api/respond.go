// ABOUTME: JSON response and request helpers for the HTTP API
// ABOUTME: Maps service error kinds onto HTTP status codes

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/larpforge/larpd/internal/service"
)

// errorBody is the JSON shape of every error response
type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// listBody wraps paginated list responses
type listBody struct {
	Items any               `json:"items"`
	Page  *service.PageInfo `json:"page"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("encoding response", "error", err)
	}
}

// writeError converts a service error into a status code and JSON body.
// Unknown errors become 500 and are logged; their detail stays server-side.
func writeError(w http.ResponseWriter, err error) {
	var (
		verr *service.ValidationError
		cerr *service.ConflictError
		nerr *service.NotFoundError
		perr *service.PermissionDeniedError
		ierr *service.InconsistencyError
		uerr *service.UnauthenticatedError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: verr.Error(), Kind: "validation"})
	case errors.As(err, &uerr):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: uerr.Error(), Kind: "unauthenticated"})
	case errors.As(err, &perr):
		writeJSON(w, http.StatusForbidden, errorBody{Error: perr.Error(), Kind: "permission_denied"})
	case errors.As(err, &nerr):
		writeJSON(w, http.StatusNotFound, errorBody{Error: nerr.Error(), Kind: "not_found"})
	case errors.As(err, &cerr):
		writeJSON(w, http.StatusConflict, errorBody{Error: cerr.Error(), Kind: "conflict"})
	case errors.As(err, &ierr):
		writeJSON(w, http.StatusConflict, errorBody{Error: ierr.Error(), Kind: "inconsistency"})
	default:
		slog.Default().Error("internal error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error", Kind: "internal"})
	}
}

// decodeJSON reads a request body into v, rejecting unknown fields
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &service.ValidationError{Field: "body", Reason: err.Error()}
	}
	return nil
}

// parsePage reads pagination and ordering query parameters
func parsePage(r *http.Request) service.Page {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("size"))
	return service.Page{
		Number:     page,
		Size:       size,
		OrderBy:    q.Get("order_by"),
		Descending: q.Get("order") == "desc",
	}
}
