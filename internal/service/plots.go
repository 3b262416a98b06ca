// ABOUTME: Plot operations: CRUD plus linking to characters and groups
// ABOUTME: A plot's game is derived from its links and must stay singular

package service

import (
	"context"

	"github.com/larpforge/larpd/internal/rules"
	"github.com/larpforge/larpd/internal/store"
)

// CreatePlotInput carries the fields for a new plot
type CreatePlotInput struct {
	Name        string
	Description string
}

// CreatePlot creates an unlinked plot. Principals holding a GM role on any
// game may create; the plot anchors to a game once it is linked.
func (s *Service) CreatePlot(ctx context.Context, in CreatePlotInput) (*store.Plot, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := enforce(s.rules.CanCreatePlot(ctx, p)); err != nil {
		return nil, err
	}

	if in.Name == "" {
		return nil, &ValidationError{Field: "name", Reason: "required"}
	}

	now := s.now()
	pl := &store.Plot{
		ID:          s.newID(),
		Name:        in.Name,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreatePlot(ctx, pl); err != nil {
		return nil, mapStoreErr(err, "plot", pl.ID)
	}

	s.logger.Info("created plot", "id", pl.ID, "name", pl.Name)
	return pl, nil
}

// GetPlot returns a plot. Readable by participants of its derived game.
func (s *Service) GetPlot(ctx context.Context, id string) (*store.Plot, error) {
	pl, err := s.store.GetPlot(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, "plot", id)
	}
	if err := enforce(s.rules.CanPlot(ctx, principal(ctx), rules.ActionRead, id)); err != nil {
		return nil, err
	}
	return pl, nil
}

// UpdatePlotInput carries the mutable plot fields; nil means unchanged
type UpdatePlotInput struct {
	Name        *string
	Description *string
}

// UpdatePlot updates a plot. GMs of the derived game only.
func (s *Service) UpdatePlot(ctx context.Context, id string, in UpdatePlotInput) (*store.Plot, error) {
	pl, err := s.store.GetPlot(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, "plot", id)
	}
	if err := enforce(s.rules.CanPlot(ctx, principal(ctx), rules.ActionWrite, id)); err != nil {
		return nil, err
	}

	if in.Name != nil {
		if *in.Name == "" {
			return nil, &ValidationError{Field: "name", Reason: "required"}
		}
		pl.Name = *in.Name
	}
	if in.Description != nil {
		pl.Description = *in.Description
	}
	pl.UpdatedAt = s.now()

	if err := s.store.UpdatePlot(ctx, pl); err != nil {
		return nil, mapStoreErr(err, "plot", id)
	}
	return pl, nil
}

// DeletePlot removes a plot and its links
func (s *Service) DeletePlot(ctx context.Context, id string) error {
	if _, err := s.store.GetPlot(ctx, id); err != nil {
		return mapStoreErr(err, "plot", id)
	}
	if err := enforce(s.rules.CanPlot(ctx, principal(ctx), rules.ActionWrite, id)); err != nil {
		return err
	}

	if err := s.store.DeletePlot(ctx, id); err != nil {
		return mapStoreErr(err, "plot", id)
	}

	s.logger.Info("deleted plot", "id", id)
	return nil
}

// ListPlots returns a page of plots. GM role somewhere required: plots are
// backstage material, not player-facing listings.
func (s *Service) ListPlots(ctx context.Context, page Page) ([]*store.Plot, *PageInfo, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, nil, err
	}
	isGM, err := s.store.IsGMAnywhere(ctx, p.UserID)
	if err != nil {
		return nil, nil, err
	}
	if !isGM {
		return nil, nil, &PermissionDeniedError{Reason: rules.ReasonNoRelation}
	}

	opts, info := page.options()
	plots, total, err := s.store.ListPlots(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	info.fill(total)
	return plots, info, nil
}

// LinkPlotCharacter involves a character in a plot. The caller must be able
// to write both the plot and the character's game, since the link anchors
// the plot to that game. Linking an already linked pair is a no-op.
func (s *Service) LinkPlotCharacter(ctx context.Context, plotID, characterID string) error {
	if _, err := s.store.GetPlot(ctx, plotID); err != nil {
		return mapStoreErr(err, "plot", plotID)
	}
	if err := enforce(s.rules.CanPlot(ctx, principal(ctx), rules.ActionWrite, plotID)); err != nil {
		return err
	}
	c, err := s.store.GetCharacter(ctx, characterID)
	if err != nil {
		return mapStoreErr(err, "character", characterID)
	}
	if err := enforce(s.rules.CanGame(ctx, principal(ctx), rules.ActionWrite, c.GameID)); err != nil {
		return err
	}
	if err := s.store.LinkPlotCharacter(ctx, plotID, characterID); err != nil {
		return mapStoreErr(err, "character", characterID)
	}

	s.logger.Info("linked plot character", "plot", plotID, "character", characterID)
	return nil
}

// UnlinkPlotCharacter removes a character from a plot. Unlinking a pair
// that is not linked is a no-op.
func (s *Service) UnlinkPlotCharacter(ctx context.Context, plotID, characterID string) error {
	if _, err := s.store.GetPlot(ctx, plotID); err != nil {
		return mapStoreErr(err, "plot", plotID)
	}
	if err := enforce(s.rules.CanPlot(ctx, principal(ctx), rules.ActionWrite, plotID)); err != nil {
		return err
	}
	if err := s.store.UnlinkPlotCharacter(ctx, plotID, characterID); err != nil {
		return mapStoreErr(err, "plot", plotID)
	}
	return nil
}

// LinkPlotGroup involves a whole character group in a plot. As with
// character links, the caller must hold a write role in the group's game.
func (s *Service) LinkPlotGroup(ctx context.Context, plotID, groupID string) error {
	if _, err := s.store.GetPlot(ctx, plotID); err != nil {
		return mapStoreErr(err, "plot", plotID)
	}
	if err := enforce(s.rules.CanPlot(ctx, principal(ctx), rules.ActionWrite, plotID)); err != nil {
		return err
	}
	g, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return mapStoreErr(err, "group", groupID)
	}
	if err := enforce(s.rules.CanGame(ctx, principal(ctx), rules.ActionWrite, g.GameID)); err != nil {
		return err
	}
	if err := s.store.LinkPlotGroup(ctx, plotID, groupID); err != nil {
		return mapStoreErr(err, "group", groupID)
	}

	s.logger.Info("linked plot group", "plot", plotID, "group", groupID)
	return nil
}

// UnlinkPlotGroup removes a group from a plot
func (s *Service) UnlinkPlotGroup(ctx context.Context, plotID, groupID string) error {
	if _, err := s.store.GetPlot(ctx, plotID); err != nil {
		return mapStoreErr(err, "plot", plotID)
	}
	if err := enforce(s.rules.CanPlot(ctx, principal(ctx), rules.ActionWrite, plotID)); err != nil {
		return err
	}
	if err := s.store.UnlinkPlotGroup(ctx, plotID, groupID); err != nil {
		return mapStoreErr(err, "plot", plotID)
	}
	return nil
}
