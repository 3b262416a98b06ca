// ABOUTME: HTTP handlers for registration, login, and user management
// ABOUTME: Login responses carry the bearer token alongside the user

package api

import (
	"net/http"

	"github.com/larpforge/larpd/internal/service"
	"github.com/larpforge/larpd/internal/store"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
		Phone    string `json:"phone"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	u, err := s.svc.Register(r.Context(), service.RegisterInput{
		Email: req.Email, Password: req.Password, Name: req.Name, Phone: req.Phone,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUser(u))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	token, u, err := s.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Token string       `json:"token"`
		User  userResponse `json:"user"`
	}{Token: token, User: toUser(u)})
}

func (s *Server) handleUserGet(w http.ResponseWriter, r *http.Request) {
	u, err := s.svc.GetUser(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUser(u))
}

func (s *Server) handleUsersList(w http.ResponseWriter, r *http.Request) {
	var filter store.UserFilter
	if email := r.URL.Query().Get("email"); email != "" {
		filter.Email = &email
	}

	users, page, err := s.svc.ListUsers(r.Context(), filter, parsePage(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listBody{Items: toUsers(users), Page: page})
}

func (s *Server) handleUserUpdate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email *string `json:"email"`
		Name  *string `json:"name"`
		Phone *string `json:"phone"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	u, err := s.svc.UpdateUser(r.Context(), r.PathValue("id"), service.UpdateUserInput{
		Email: req.Email, Name: req.Name, Phone: req.Phone,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUser(u))
}

func (s *Server) handleUserChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := s.svc.ChangePassword(r.Context(), r.PathValue("id"), req.OldPassword, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUserDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteUser(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
