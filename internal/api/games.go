// ABOUTME: HTTP handlers for games and GM role management
// ABOUTME: Game metadata reads are public; writes require a GM role

package api

import (
	"net/http"
	"time"

	"github.com/larpforge/larpd/internal/service"
	"github.com/larpforge/larpd/internal/store"
)

func (s *Server) handleGameCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string         `json:"name"`
		Description string         `json:"description"`
		StartDate   time.Time      `json:"start_date"`
		EndDate     time.Time      `json:"end_date"`
		FieldSchema map[string]any `json:"field_schema"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	g, err := s.svc.CreateGame(r.Context(), service.CreateGameInput{
		Name: req.Name, Description: req.Description,
		StartDate: req.StartDate, EndDate: req.EndDate,
		FieldSchema: req.FieldSchema,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGame(g))
}

func (s *Server) handleGameGet(w http.ResponseWriter, r *http.Request) {
	g, err := s.svc.GetGame(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGame(g))
}

func (s *Server) handleGameDetail(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.GameDetail(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleGamesList(w http.ResponseWriter, r *http.Request) {
	games, page, err := s.svc.ListGames(r.Context(), parsePage(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listBody{Items: toGames(games), Page: page})
}

func (s *Server) handleGameUpdate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        *string        `json:"name"`
		Description *string        `json:"description"`
		StartDate   *time.Time     `json:"start_date"`
		EndDate     *time.Time     `json:"end_date"`
		FieldSchema map[string]any `json:"field_schema"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	g, err := s.svc.UpdateGame(r.Context(), r.PathValue("id"), service.UpdateGameInput{
		Name: req.Name, Description: req.Description,
		StartDate: req.StartDate, EndDate: req.EndDate,
		FieldSchema: req.FieldSchema,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGame(g))
}

func (s *Server) handleGameDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteGame(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGMGrant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
		GameID string `json:"game_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	gm, err := s.svc.GrantGM(r.Context(), req.UserID, req.GameID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGM(gm))
}

func (s *Server) handleGMsList(w http.ResponseWriter, r *http.Request) {
	var filter store.GMFilter
	q := r.URL.Query()
	if gameID := q.Get("game_id"); gameID != "" {
		filter.GameID = &gameID
	}
	if userID := q.Get("user_id"); userID != "" {
		filter.UserID = &userID
	}

	gms, page, err := s.svc.ListGMs(r.Context(), filter, parsePage(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listBody{Items: toGMs(gms), Page: page})
}

func (s *Server) handleGMRevoke(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.RevokeGM(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
