// ABOUTME: Character group operations: CRUD and membership management
// ABOUTME: Size bounds are advisory; only min greater than max is rejected

package service

import (
	"context"

	"github.com/larpforge/larpd/internal/rules"
	"github.com/larpforge/larpd/internal/store"
)

// CreateGroupInput carries the fields for a new character group
type CreateGroupInput struct {
	GameID        string
	Name          string
	Description   string
	MinCharacters *int
	MaxCharacters *int
}

func validateGroupBounds(min, max *int) error {
	if min != nil && *min < 0 {
		return &ValidationError{Field: "min_characters", Reason: "must not be negative"}
	}
	if max != nil && *max < 0 {
		return &ValidationError{Field: "max_characters", Reason: "must not be negative"}
	}
	if min != nil && max != nil && *min > *max {
		return &ValidationError{Field: "min_characters", Reason: "must not exceed max_characters"}
	}
	return nil
}

// CreateGroup creates a character group in a game. GM only.
func (s *Service) CreateGroup(ctx context.Context, in CreateGroupInput) (*store.CharacterGroup, error) {
	if err := enforce(s.rules.CanGame(ctx, principal(ctx), rules.ActionWrite, in.GameID)); err != nil {
		return nil, err
	}

	if in.Name == "" {
		return nil, &ValidationError{Field: "name", Reason: "required"}
	}
	if err := validateGroupBounds(in.MinCharacters, in.MaxCharacters); err != nil {
		return nil, err
	}

	now := s.now()
	g := &store.CharacterGroup{
		ID:            s.newID(),
		GameID:        in.GameID,
		Name:          in.Name,
		Description:   in.Description,
		MinCharacters: in.MinCharacters,
		MaxCharacters: in.MaxCharacters,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CreateGroup(ctx, g); err != nil {
		return nil, mapStoreErr(err, "group", g.ID)
	}

	s.logger.Info("created group", "id", g.ID, "game", g.GameID, "name", g.Name)
	return g, nil
}

// GetGroup returns a character group. Readable by game participants.
func (s *Service) GetGroup(ctx context.Context, id string) (*store.CharacterGroup, error) {
	g, err := s.store.GetGroup(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, "group", id)
	}
	if err := enforce(s.rules.CanGroup(ctx, principal(ctx), rules.ActionRead, g)); err != nil {
		return nil, err
	}
	return g, nil
}

// UpdateGroupInput carries the mutable group fields; nil means unchanged.
// ClearMin and ClearMax drop a bound entirely.
type UpdateGroupInput struct {
	Name          *string
	Description   *string
	MinCharacters *int
	MaxCharacters *int
	ClearMin      bool
	ClearMax      bool
}

// UpdateGroup updates a character group. GM only.
func (s *Service) UpdateGroup(ctx context.Context, id string, in UpdateGroupInput) (*store.CharacterGroup, error) {
	g, err := s.store.GetGroup(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, "group", id)
	}
	if err := enforce(s.rules.CanGroup(ctx, principal(ctx), rules.ActionWrite, g)); err != nil {
		return nil, err
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
	if in.ClearMin {
		g.MinCharacters = nil
	} else if in.MinCharacters != nil {
		g.MinCharacters = in.MinCharacters
	}
	if in.ClearMax {
		g.MaxCharacters = nil
	} else if in.MaxCharacters != nil {
		g.MaxCharacters = in.MaxCharacters
	}
	if err := validateGroupBounds(g.MinCharacters, g.MaxCharacters); err != nil {
		return nil, err
	}
	g.UpdatedAt = s.now()

	if err := s.store.UpdateGroup(ctx, g); err != nil {
		return nil, mapStoreErr(err, "group", id)
	}
	return g, nil
}

// DeleteGroup removes a group and its membership and plot links
func (s *Service) DeleteGroup(ctx context.Context, id string) error {
	g, err := s.store.GetGroup(ctx, id)
	if err != nil {
		return mapStoreErr(err, "group", id)
	}
	if err := enforce(s.rules.CanGroup(ctx, principal(ctx), rules.ActionWrite, g)); err != nil {
		return err
	}

	if err := s.store.DeleteGroup(ctx, id); err != nil {
		return mapStoreErr(err, "group", id)
	}

	s.logger.Info("deleted group", "id", id, "game", g.GameID)
	return nil
}

// ListGroups returns a page of groups in a game. Game participants only.
func (s *Service) ListGroups(ctx context.Context, filter store.GroupFilter, page Page) ([]*store.CharacterGroup, *PageInfo, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, nil, err
	}

	if filter.GameID != nil {
		probe := &store.CharacterGroup{GameID: *filter.GameID}
		if err := enforce(s.rules.CanGroup(ctx, p, rules.ActionRead, probe)); err != nil {
			return nil, nil, err
		}
	} else {
		isGM, err := s.store.IsGMAnywhere(ctx, p.UserID)
		if err != nil {
			return nil, nil, err
		}
		if !isGM {
			return nil, nil, &PermissionDeniedError{Reason: rules.ReasonNoRelation}
		}
	}

	opts, info := page.options()
	groups, total, err := s.store.ListGroups(ctx, filter, opts)
	if err != nil {
		return nil, nil, err
	}
	info.fill(total)
	return groups, info, nil
}

// AddGroupMember places a character in a group. GM only. Both sides must
// belong to the same game. Adding an existing member is a no-op.
func (s *Service) AddGroupMember(ctx context.Context, groupID, characterID string) error {
	g, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return mapStoreErr(err, "group", groupID)
	}
	if err := enforce(s.rules.CanGroup(ctx, principal(ctx), rules.ActionWrite, g)); err != nil {
		return err
	}

	if err := s.store.AddGroupMember(ctx, groupID, characterID); err != nil {
		return mapStoreErr(err, "character", characterID)
	}

	s.logger.Info("added group member", "group", groupID, "character", characterID)
	return nil
}

// RemoveGroupMember takes a character out of a group. GM only. Removing a
// non-member is a no-op.
func (s *Service) RemoveGroupMember(ctx context.Context, groupID, characterID string) error {
	g, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return mapStoreErr(err, "group", groupID)
	}
	if err := enforce(s.rules.CanGroup(ctx, principal(ctx), rules.ActionWrite, g)); err != nil {
		return err
	}

	if err := s.store.RemoveGroupMember(ctx, groupID, characterID); err != nil {
		return mapStoreErr(err, "character", characterID)
	}
	return nil
}
