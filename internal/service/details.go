// ABOUTME: Authorized access to the aggregation detail views
// ABOUTME: Each operation authorizes against the root entity, then assembles

package service

import (
	"context"

	"github.com/larpforge/larpd/internal/rules"
	"github.com/larpforge/larpd/internal/store"
	"github.com/larpforge/larpd/internal/views"
)

// PlayerDetail returns the player detail view
func (s *Service) PlayerDetail(ctx context.Context, playerID string) (*views.PlayerDetail, error) {
	pl, err := s.store.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, mapStoreErr(err, "player", playerID)
	}
	if err := enforce(s.rules.CanPlayer(ctx, principal(ctx), rules.ActionRead, pl)); err != nil {
		return nil, err
	}

	d, err := s.views.PlayerDetail(ctx, playerID)
	if err != nil {
		return nil, mapStoreErr(err, "player detail", playerID)
	}
	return d, nil
}

// CharacterDetail returns the character detail view: the character, its
// owning player and user, the game, and its group and plot memberships
func (s *Service) CharacterDetail(ctx context.Context, characterID string) (*views.CharacterDetail, error) {
	c, err := s.store.GetCharacter(ctx, characterID)
	if err != nil {
		return nil, mapStoreErr(err, "character", characterID)
	}
	if err := enforce(s.rules.CanCharacter(ctx, principal(ctx), rules.ActionRead, c)); err != nil {
		return nil, err
	}

	d, err := s.views.CharacterDetail(ctx, characterID)
	if err != nil {
		return nil, mapStoreErr(err, "character detail", characterID)
	}
	return d, nil
}

// GameDetail returns the game detail view. The rosters expose player and
// user records, so unlike bare game metadata this view is participant-only.
func (s *Service) GameDetail(ctx context.Context, gameID string) (*views.GameDetail, error) {
	if _, err := s.store.GetGame(ctx, gameID); err != nil {
		return nil, mapStoreErr(err, "game", gameID)
	}
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	probe := &store.Player{GameID: gameID}
	if err := enforce(s.rules.CanPlayer(ctx, p, rules.ActionRead, probe)); err != nil {
		return nil, err
	}

	d, err := s.views.GameDetail(ctx, gameID)
	if err != nil {
		return nil, mapStoreErr(err, "game detail", gameID)
	}
	return d, nil
}

// GroupDetail returns the group detail view with its advisory bound flags
func (s *Service) GroupDetail(ctx context.Context, groupID string) (*views.GroupDetail, error) {
	g, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, mapStoreErr(err, "group", groupID)
	}
	if err := enforce(s.rules.CanGroup(ctx, principal(ctx), rules.ActionRead, g)); err != nil {
		return nil, err
	}

	d, err := s.views.GroupDetail(ctx, groupID)
	if err != nil {
		return nil, mapStoreErr(err, "group detail", groupID)
	}
	return d, nil
}

// PlotDetail returns the plot detail view
func (s *Service) PlotDetail(ctx context.Context, plotID string) (*views.PlotDetail, error) {
	if _, err := s.store.GetPlot(ctx, plotID); err != nil {
		return nil, mapStoreErr(err, "plot", plotID)
	}
	if err := enforce(s.rules.CanPlot(ctx, principal(ctx), rules.ActionRead, plotID)); err != nil {
		return nil, err
	}

	d, err := s.views.PlotDetail(ctx, plotID)
	if err != nil {
		return nil, mapStoreErr(err, "plot detail", plotID)
	}
	return d, nil
}
