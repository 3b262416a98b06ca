// ABOUTME: HTTP handlers for plots and their character and group links
// ABOUTME: Link add/remove are idempotent PUT and DELETE

package api

import (
	"net/http"

	"github.com/larpforge/larpd/internal/service"
)

func (s *Server) handlePlotCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	p, err := s.svc.CreatePlot(r.Context(), service.CreatePlotInput{
		Name: req.Name, Description: req.Description,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPlot(p))
}

func (s *Server) handlePlotGet(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.GetPlot(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlot(p))
}

func (s *Server) handlePlotDetail(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.PlotDetail(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handlePlotsList(w http.ResponseWriter, r *http.Request) {
	plots, page, err := s.svc.ListPlots(r.Context(), parsePage(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listBody{Items: toPlots(plots), Page: page})
}

func (s *Server) handlePlotUpdate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	p, err := s.svc.UpdatePlot(r.Context(), r.PathValue("id"), service.UpdatePlotInput{
		Name: req.Name, Description: req.Description,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlot(p))
}

func (s *Server) handlePlotDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeletePlot(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePlotCharacterLink(w http.ResponseWriter, r *http.Request) {
	err := s.svc.LinkPlotCharacter(r.Context(), r.PathValue("id"), r.PathValue("characterID"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePlotCharacterUnlink(w http.ResponseWriter, r *http.Request) {
	err := s.svc.UnlinkPlotCharacter(r.Context(), r.PathValue("id"), r.PathValue("characterID"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePlotGroupLink(w http.ResponseWriter, r *http.Request) {
	err := s.svc.LinkPlotGroup(r.Context(), r.PathValue("id"), r.PathValue("groupID"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePlotGroupUnlink(w http.ResponseWriter, r *http.Request) {
	err := s.svc.UnlinkPlotGroup(r.Context(), r.PathValue("id"), r.PathValue("groupID"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
