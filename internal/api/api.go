// ABOUTME: HTTP API server: route table and middleware wiring
// ABOUTME: All routes speak JSON; auth is a bearer token header

package api

import (
	"log/slog"
	"net/http"

	"github.com/larpforge/larpd/internal/auth"
	"github.com/larpforge/larpd/internal/service"
)

// Server exposes the service over HTTP
type Server struct {
	svc      *service.Service
	users    auth.UserLookup
	verifier auth.TokenVerifier
	logger   *slog.Logger
}

// NewServer creates the HTTP API server
func NewServer(svc *service.Service, users auth.UserLookup, verifier auth.TokenVerifier) *Server {
	return &Server{
		svc:      svc,
		users:    users,
		verifier: verifier,
		logger:   slog.Default().With("component", "api"),
	}
}

// Handler builds the route table. Every route passes through the optional
// auth middleware: a valid bearer token attaches a principal, no token
// leaves the request anonymous, and the service decides what anonymous
// callers may do.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)

	mux.HandleFunc("GET /users", s.handleUsersList)
	mux.HandleFunc("GET /users/{id}", s.handleUserGet)
	mux.HandleFunc("PATCH /users/{id}", s.handleUserUpdate)
	mux.HandleFunc("DELETE /users/{id}", s.handleUserDelete)
	mux.HandleFunc("POST /users/{id}/password", s.handleUserChangePassword)

	mux.HandleFunc("POST /games", s.handleGameCreate)
	mux.HandleFunc("GET /games", s.handleGamesList)
	mux.HandleFunc("GET /games/{id}", s.handleGameGet)
	mux.HandleFunc("GET /games/{id}/detail", s.handleGameDetail)
	mux.HandleFunc("PATCH /games/{id}", s.handleGameUpdate)
	mux.HandleFunc("DELETE /games/{id}", s.handleGameDelete)

	mux.HandleFunc("POST /gms", s.handleGMGrant)
	mux.HandleFunc("GET /gms", s.handleGMsList)
	mux.HandleFunc("DELETE /gms/{id}", s.handleGMRevoke)

	mux.HandleFunc("POST /players", s.handlePlayerCreate)
	mux.HandleFunc("GET /players", s.handlePlayersList)
	mux.HandleFunc("GET /players/{id}", s.handlePlayerGet)
	mux.HandleFunc("GET /players/{id}/detail", s.handlePlayerDetail)
	mux.HandleFunc("PATCH /players/{id}", s.handlePlayerUpdate)
	mux.HandleFunc("DELETE /players/{id}", s.handlePlayerDelete)

	mux.HandleFunc("POST /characters", s.handleCharacterCreate)
	mux.HandleFunc("GET /characters", s.handleCharactersList)
	mux.HandleFunc("GET /characters/{id}", s.handleCharacterGet)
	mux.HandleFunc("GET /characters/{id}/detail", s.handleCharacterDetail)
	mux.HandleFunc("PATCH /characters/{id}", s.handleCharacterUpdate)
	mux.HandleFunc("DELETE /characters/{id}", s.handleCharacterDelete)

	mux.HandleFunc("POST /groups", s.handleGroupCreate)
	mux.HandleFunc("GET /groups", s.handleGroupsList)
	mux.HandleFunc("GET /groups/{id}", s.handleGroupGet)
	mux.HandleFunc("GET /groups/{id}/detail", s.handleGroupDetail)
	mux.HandleFunc("PATCH /groups/{id}", s.handleGroupUpdate)
	mux.HandleFunc("DELETE /groups/{id}", s.handleGroupDelete)
	mux.HandleFunc("PUT /groups/{id}/members/{characterID}", s.handleGroupMemberAdd)
	mux.HandleFunc("DELETE /groups/{id}/members/{characterID}", s.handleGroupMemberRemove)

	mux.HandleFunc("POST /plots", s.handlePlotCreate)
	mux.HandleFunc("GET /plots", s.handlePlotsList)
	mux.HandleFunc("GET /plots/{id}", s.handlePlotGet)
	mux.HandleFunc("GET /plots/{id}/detail", s.handlePlotDetail)
	mux.HandleFunc("PATCH /plots/{id}", s.handlePlotUpdate)
	mux.HandleFunc("DELETE /plots/{id}", s.handlePlotDelete)
	mux.HandleFunc("PUT /plots/{id}/characters/{characterID}", s.handlePlotCharacterLink)
	mux.HandleFunc("DELETE /plots/{id}/characters/{characterID}", s.handlePlotCharacterUnlink)
	mux.HandleFunc("PUT /plots/{id}/groups/{groupID}", s.handlePlotGroupLink)
	mux.HandleFunc("DELETE /plots/{id}/groups/{groupID}", s.handlePlotGroupUnlink)

	optional := auth.OptionalAuthMiddleware(s.users, s.verifier)
	return optional(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
