// ABOUTME: Game operations: CRUD, GM roster management, listing
// ABOUTME: Game creation transactionally grants the creator a GM role

package service

import (
	"context"
	"time"

	"github.com/larpforge/larpd/internal/rules"
	"github.com/larpforge/larpd/internal/store"
)

// CreateGameInput carries the fields for a new game
type CreateGameInput struct {
	Name        string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	FieldSchema map[string]any
}

// CreateGame creates a game and grants the caller a GM role on it in the
// same transaction, so a game is never without an administrator.
func (s *Service) CreateGame(ctx context.Context, in CreateGameInput) (*store.Game, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := enforce(s.rules.CanCreateGame(p), nil); err != nil {
		return nil, err
	}

	if in.Name == "" {
		return nil, &ValidationError{Field: "name", Reason: "required"}
	}
	if !in.StartDate.IsZero() && !in.EndDate.IsZero() && in.EndDate.Before(in.StartDate) {
		return nil, &ValidationError{Field: "end_date", Reason: "must not precede start_date"}
	}

	now := s.now()
	g := &store.Game{
		ID:          s.newID(),
		Name:        in.Name,
		Description: in.Description,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		FieldSchema: in.FieldSchema,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	gm := &store.GM{
		ID:        s.newID(),
		UserID:    p.UserID,
		GameID:    g.ID,
		CreatedAt: now,
	}
	if err := s.store.CreateGameWithOwner(ctx, g, gm); err != nil {
		return nil, mapStoreErr(err, "game", g.ID)
	}

	s.logger.Info("created game", "id", g.ID, "name", g.Name, "owner", p.UserID)
	return g, nil
}

// GetGame returns a game. Game metadata is publicly readable.
func (s *Service) GetGame(ctx context.Context, id string) (*store.Game, error) {
	g, err := s.store.GetGame(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, "game", id)
	}
	if err := enforce(s.rules.CanGame(ctx, principal(ctx), rules.ActionRead, id)); err != nil {
		return nil, err
	}
	return g, nil
}

// UpdateGameInput carries the mutable game fields; nil means unchanged
type UpdateGameInput struct {
	Name        *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	FieldSchema map[string]any
}

// UpdateGame updates game metadata. GM only.
func (s *Service) UpdateGame(ctx context.Context, id string, in UpdateGameInput) (*store.Game, error) {
	if err := enforce(s.rules.CanGame(ctx, principal(ctx), rules.ActionWrite, id)); err != nil {
		return nil, err
	}

	g, err := s.store.GetGame(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, "game", id)
	}

	if in.Name != nil {
		if *in.Name == "" {
			return nil, &ValidationError{Field: "name", Reason: "required"}
		}
		g.Name = *in.Name
	}
	if in.Description != nil {
		g.Description = *in.Description
	}
	if in.StartDate != nil {
		g.StartDate = *in.StartDate
	}
	if in.EndDate != nil {
		g.EndDate = *in.EndDate
	}
	if !g.StartDate.IsZero() && !g.EndDate.IsZero() && g.EndDate.Before(g.StartDate) {
		return nil, &ValidationError{Field: "end_date", Reason: "must not precede start_date"}
	}
	if in.FieldSchema != nil {
		g.FieldSchema = in.FieldSchema
	}
	g.UpdatedAt = s.now()

	if err := s.store.UpdateGame(ctx, g); err != nil {
		return nil, mapStoreErr(err, "game", id)
	}
	return g, nil
}

// DeleteGame removes a game and everything scoped to it: players, GMs,
// characters, groups, and any plots anchored to the game through links.
func (s *Service) DeleteGame(ctx context.Context, id string) error {
	if err := enforce(s.rules.CanGame(ctx, principal(ctx), rules.ActionWrite, id)); err != nil {
		return err
	}

	if err := s.store.DeleteGame(ctx, id); err != nil {
		return mapStoreErr(err, "game", id)
	}

	s.logger.Info("deleted game", "id", id)
	return nil
}

// ListGames returns a page of games. Publicly readable.
func (s *Service) ListGames(ctx context.Context, page Page) ([]*store.Game, *PageInfo, error) {
	opts, info := page.options()
	games, total, err := s.store.ListGames(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	info.fill(total)
	return games, info, nil
}

// GrantGM grants a user a GM role on a game. Only an existing GM of the
// game may grant.
func (s *Service) GrantGM(ctx context.Context, userID, gameID string) (*store.GM, error) {
	if err := enforce(s.rules.CanGame(ctx, principal(ctx), rules.ActionWrite, gameID)); err != nil {
		return nil, err
	}

	gm := &store.GM{
		ID:        s.newID(),
		UserID:    userID,
		GameID:    gameID,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateGM(ctx, gm); err != nil {
		return nil, mapStoreErr(err, "gm", gm.ID)
	}

	s.logger.Info("granted gm", "user", userID, "game", gameID)
	return gm, nil
}

// RevokeGM removes a GM role. Only a GM of the same game may revoke.
func (s *Service) RevokeGM(ctx context.Context, id string) error {
	gm, err := s.store.GetGM(ctx, id)
	if err != nil {
		return mapStoreErr(err, "gm", id)
	}
	if err := enforce(s.rules.CanGame(ctx, principal(ctx), rules.ActionWrite, gm.GameID)); err != nil {
		return err
	}

	if err := s.store.DeleteGM(ctx, id); err != nil {
		return mapStoreErr(err, "gm", id)
	}
	return nil
}

// ListGMs returns the GM roster, optionally filtered by game or user.
// Game-scoped rosters are for participants of that game; an unscoped
// listing beyond the caller's own grants requires a GM role somewhere.
func (s *Service) ListGMs(ctx context.Context, filter store.GMFilter, page Page) ([]*store.GM, *PageInfo, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, nil, err
	}

	if filter.GameID == nil && (filter.UserID == nil || *filter.UserID != p.UserID) {
		isGM, err := s.store.IsGMAnywhere(ctx, p.UserID)
		if err != nil {
			return nil, nil, err
		}
		if !isGM {
			return nil, nil, &PermissionDeniedError{Reason: rules.ReasonNoRelation}
		}
	}
	if filter.GameID != nil {
		probe := &store.Player{GameID: *filter.GameID}
		if err := enforce(s.rules.CanPlayer(ctx, p, rules.ActionRead, probe)); err != nil {
			return nil, nil, err
		}
	}

	opts, info := page.options()
	gms, total, err := s.store.ListGMs(ctx, filter, opts)
	if err != nil {
		return nil, nil, err
	}
	info.fill(total)
	return gms, info, nil
}
