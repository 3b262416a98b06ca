// ABOUTME: HTTP handlers for player memberships
// ABOUTME: Covers enrollment, payment updates, and the player detail view

package api

import (
	"net/http"

	"github.com/larpforge/larpd/internal/service"
	"github.com/larpforge/larpd/internal/store"
)

func (s *Server) handlePlayerCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID          string         `json:"user_id"`
		GameID          string         `json:"game_id"`
		PaymentStatus   string         `json:"payment_status"`
		PaidAmountCents int64          `json:"paid_amount_cents"`
		Details         map[string]any `json:"details"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	p, err := s.svc.CreatePlayer(r.Context(), service.CreatePlayerInput{
		UserID: req.UserID, GameID: req.GameID,
		PaymentStatus: req.PaymentStatus, PaidAmountCents: req.PaidAmountCents,
		Details: req.Details,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPlayer(p))
}

func (s *Server) handlePlayerGet(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.GetPlayer(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlayer(p))
}

func (s *Server) handlePlayerDetail(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.PlayerDetail(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handlePlayersList(w http.ResponseWriter, r *http.Request) {
	var filter store.PlayerFilter
	q := r.URL.Query()
	if gameID := q.Get("game_id"); gameID != "" {
		filter.GameID = &gameID
	}
	if userID := q.Get("user_id"); userID != "" {
		filter.UserID = &userID
	}

	players, page, err := s.svc.ListPlayers(r.Context(), filter, parsePage(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listBody{Items: toPlayers(players), Page: page})
}

func (s *Server) handlePlayerUpdate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PaymentStatus   *string        `json:"payment_status"`
		PaidAmountCents *int64         `json:"paid_amount_cents"`
		Details         map[string]any `json:"details"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	p, err := s.svc.UpdatePlayer(r.Context(), r.PathValue("id"), service.UpdatePlayerInput{
		PaymentStatus: req.PaymentStatus, PaidAmountCents: req.PaidAmountCents,
		Details: req.Details,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlayer(p))
}

func (s *Server) handlePlayerDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeletePlayer(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
