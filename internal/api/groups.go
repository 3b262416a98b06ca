// ABOUTME: HTTP handlers for character groups and their membership
// ABOUTME: Membership add/remove are idempotent PUT and DELETE

package api

import (
	"net/http"

	"github.com/larpforge/larpd/internal/service"
	"github.com/larpforge/larpd/internal/store"
)

func (s *Server) handleGroupCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GameID        string `json:"game_id"`
		Name          string `json:"name"`
		Description   string `json:"description"`
		MinCharacters *int   `json:"min_characters"`
		MaxCharacters *int   `json:"max_characters"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	g, err := s.svc.CreateGroup(r.Context(), service.CreateGroupInput{
		GameID: req.GameID, Name: req.Name, Description: req.Description,
		MinCharacters: req.MinCharacters, MaxCharacters: req.MaxCharacters,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGroup(g))
}

func (s *Server) handleGroupGet(w http.ResponseWriter, r *http.Request) {
	g, err := s.svc.GetGroup(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroup(g))
}

func (s *Server) handleGroupDetail(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.GroupDetail(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleGroupsList(w http.ResponseWriter, r *http.Request) {
	var filter store.GroupFilter
	if gameID := r.URL.Query().Get("game_id"); gameID != "" {
		filter.GameID = &gameID
	}

	groups, page, err := s.svc.ListGroups(r.Context(), filter, parsePage(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listBody{Items: toGroups(groups), Page: page})
}

func (s *Server) handleGroupUpdate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          *string `json:"name"`
		Description   *string `json:"description"`
		MinCharacters *int    `json:"min_characters"`
		MaxCharacters *int    `json:"max_characters"`
		ClearMin      bool    `json:"clear_min"`
		ClearMax      bool    `json:"clear_max"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	g, err := s.svc.UpdateGroup(r.Context(), r.PathValue("id"), service.UpdateGroupInput{
		Name: req.Name, Description: req.Description,
		MinCharacters: req.MinCharacters, MaxCharacters: req.MaxCharacters,
		ClearMin: req.ClearMin, ClearMax: req.ClearMax,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroup(g))
}

func (s *Server) handleGroupDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteGroup(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGroupMemberAdd(w http.ResponseWriter, r *http.Request) {
	err := s.svc.AddGroupMember(r.Context(), r.PathValue("id"), r.PathValue("characterID"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGroupMemberRemove(w http.ResponseWriter, r *http.Request) {
	err := s.svc.RemoveGroupMember(r.Context(), r.PathValue("id"), r.PathValue("characterID"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
