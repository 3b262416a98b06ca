// ABOUTME: HTTP handlers for characters
// ABOUTME: The detail route serves the full aggregation view

package api

import (
	"net/http"

	"github.com/larpforge/larpd/internal/service"
	"github.com/larpforge/larpd/internal/store"
)

func (s *Server) handleCharacterCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GameID      string `json:"game_id"`
		PlayerID    string `json:"player_id"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	c, err := s.svc.CreateCharacter(r.Context(), service.CreateCharacterInput{
		GameID: req.GameID, PlayerID: req.PlayerID,
		Name: req.Name, Description: req.Description,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCharacter(c))
}

func (s *Server) handleCharacterGet(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.GetCharacter(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCharacter(c))
}

func (s *Server) handleCharacterDetail(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.CharacterDetail(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleCharactersList(w http.ResponseWriter, r *http.Request) {
	var filter store.CharacterFilter
	q := r.URL.Query()
	if gameID := q.Get("game_id"); gameID != "" {
		filter.GameID = &gameID
	}
	if playerID := q.Get("player_id"); playerID != "" {
		filter.PlayerID = &playerID
	}

	chars, page, err := s.svc.ListCharacters(r.Context(), filter, parsePage(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listBody{Items: toCharacters(chars), Page: page})
}

func (s *Server) handleCharacterUpdate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID    *string `json:"player_id"`
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	c, err := s.svc.UpdateCharacter(r.Context(), r.PathValue("id"), service.UpdateCharacterInput{
		PlayerID: req.PlayerID, Name: req.Name, Description: req.Description,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCharacter(c))
}

func (s *Server) handleCharacterDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteCharacter(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
