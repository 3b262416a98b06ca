// ABOUTME: Character operations: CRUD scoped to a game and an owning player
// ABOUTME: Reassignment across games is rejected at the store layer

package service

import (
	"context"

	"github.com/larpforge/larpd/internal/rules"
	"github.com/larpforge/larpd/internal/store"
)

// CreateCharacterInput carries the fields for a new character
type CreateCharacterInput struct {
	GameID      string
	PlayerID    string
	Name        string
	Description string
}

// CreateCharacter creates a character in a game. The owning player's user
// may create their own characters; GMs of the game may create any.
func (s *Service) CreateCharacter(ctx context.Context, in CreateCharacterInput) (*store.Character, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if in.Name == "" {
		return nil, &ValidationError{Field: "name", Reason: "required"}
	}

	owner, err := s.store.GetPlayer(ctx, in.PlayerID)
	if err != nil {
		return nil, mapStoreErr(err, "player", in.PlayerID)
	}
	if owner.UserID != p.UserID {
		if err := enforce(s.rules.CanGame(ctx, p, rules.ActionWrite, in.GameID)); err != nil {
			return nil, err
		}
	}

	now := s.now()
	c := &store.Character{
		ID:          s.newID(),
		GameID:      in.GameID,
		PlayerID:    in.PlayerID,
		Name:        in.Name,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateCharacter(ctx, c); err != nil {
		return nil, mapStoreErr(err, "character", c.ID)
	}

	s.logger.Info("created character", "id", c.ID, "game", c.GameID, "player", c.PlayerID)
	return c, nil
}

// GetCharacter returns a character. Readable by game participants.
func (s *Service) GetCharacter(ctx context.Context, id string) (*store.Character, error) {
	c, err := s.store.GetCharacter(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, "character", id)
	}
	if err := enforce(s.rules.CanCharacter(ctx, principal(ctx), rules.ActionRead, c)); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateCharacterInput carries the mutable character fields; nil means unchanged
type UpdateCharacterInput struct {
	PlayerID    *string
	Name        *string
	Description *string
}

// UpdateCharacter updates a character. Writable by the owning player's user
// and by GMs of the game. Reassigning to a player of another game fails.
func (s *Service) UpdateCharacter(ctx context.Context, id string, in UpdateCharacterInput) (*store.Character, error) {
	c, err := s.store.GetCharacter(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, "character", id)
	}
	if err := enforce(s.rules.CanCharacter(ctx, principal(ctx), rules.ActionWrite, c)); err != nil {
		return nil, err
	}

	if in.PlayerID != nil && *in.PlayerID != c.PlayerID {
		// handing a character to another player is a GM call
		if err := enforce(s.rules.CanGame(ctx, principal(ctx), rules.ActionWrite, c.GameID)); err != nil {
			return nil, err
		}
		c.PlayerID = *in.PlayerID
	}
	if in.Name != nil {
		if *in.Name == "" {
			return nil, &ValidationError{Field: "name", Reason: "required"}
		}
		c.Name = *in.Name
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	c.UpdatedAt = s.now()

	if err := s.store.UpdateCharacter(ctx, c); err != nil {
		return nil, mapStoreErr(err, "character", id)
	}
	return c, nil
}

// DeleteCharacter removes a character and its group and plot links
func (s *Service) DeleteCharacter(ctx context.Context, id string) error {
	c, err := s.store.GetCharacter(ctx, id)
	if err != nil {
		return mapStoreErr(err, "character", id)
	}
	if err := enforce(s.rules.CanCharacter(ctx, principal(ctx), rules.ActionWrite, c)); err != nil {
		return err
	}

	if err := s.store.DeleteCharacter(ctx, id); err != nil {
		return mapStoreErr(err, "character", id)
	}

	s.logger.Info("deleted character", "id", id, "game", c.GameID)
	return nil
}

// ListCharacters returns a page of characters, filtered by game or player.
// Listing within a game requires the caller to participate in it; listing
// by player requires read access to that player record.
func (s *Service) ListCharacters(ctx context.Context, filter store.CharacterFilter, page Page) ([]*store.Character, *PageInfo, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, nil, err
	}

	if filter.GameID != nil {
		probe := &store.Player{GameID: *filter.GameID}
		if err := enforce(s.rules.CanPlayer(ctx, p, rules.ActionRead, probe)); err != nil {
			return nil, nil, err
		}
	} else if filter.PlayerID != nil {
		owner, err := s.store.GetPlayer(ctx, *filter.PlayerID)
		if err != nil {
			return nil, nil, mapStoreErr(err, "player", *filter.PlayerID)
		}
		if err := enforce(s.rules.CanPlayer(ctx, p, rules.ActionRead, owner)); err != nil {
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
	chars, total, err := s.store.ListCharacters(ctx, filter, opts)
	if err != nil {
		return nil, nil, err
	}
	info.fill(total)
	return chars, info, nil
}
