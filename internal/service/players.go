// ABOUTME: Player operations: joining games, payment tracking, details
// ABOUTME: A user may join a game themself; GMs may enroll anyone

package service

import (
	"context"

	"github.com/larpforge/larpd/internal/rules"
	"github.com/larpforge/larpd/internal/store"
)

func validPaymentStatus(s string) bool {
	switch s {
	case store.PaymentUnpaid, store.PaymentPartial, store.PaymentPaid, store.PaymentWaived:
		return true
	}
	return false
}

// CreatePlayerInput carries the fields for a new player membership
type CreatePlayerInput struct {
	UserID          string
	GameID          string
	PaymentStatus   string
	PaidAmountCents int64
	Details         map[string]any
}

// CreatePlayer enrolls a user in a game. A user may enroll themself; a GM
// of the game may enroll anyone.
func (s *Service) CreatePlayer(ctx context.Context, in CreatePlayerInput) (*store.Player, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if in.UserID != p.UserID {
		if err := enforce(s.rules.CanGame(ctx, p, rules.ActionWrite, in.GameID)); err != nil {
			return nil, err
		}
	}

	if in.PaymentStatus == "" {
		in.PaymentStatus = store.PaymentUnpaid
	}
	if !validPaymentStatus(in.PaymentStatus) {
		return nil, &ValidationError{Field: "payment_status", Reason: "unknown status " + in.PaymentStatus}
	}
	if in.PaidAmountCents < 0 {
		return nil, &ValidationError{Field: "paid_amount_cents", Reason: "must not be negative"}
	}

	now := s.now()
	pl := &store.Player{
		ID:              s.newID(),
		UserID:          in.UserID,
		GameID:          in.GameID,
		PaymentStatus:   in.PaymentStatus,
		PaidAmountCents: in.PaidAmountCents,
		Details:         in.Details,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.CreatePlayer(ctx, pl); err != nil {
		return nil, mapStoreErr(err, "player", pl.ID)
	}

	s.logger.Info("created player", "id", pl.ID, "user", pl.UserID, "game", pl.GameID)
	return pl, nil
}

// GetPlayer returns a player record. Readable by the owning user, by GMs of
// the game, and by fellow players of the same game.
func (s *Service) GetPlayer(ctx context.Context, id string) (*store.Player, error) {
	pl, err := s.store.GetPlayer(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, "player", id)
	}
	if err := enforce(s.rules.CanPlayer(ctx, principal(ctx), rules.ActionRead, pl)); err != nil {
		return nil, err
	}
	return pl, nil
}

// UpdatePlayerInput carries the mutable player fields; nil means unchanged
type UpdatePlayerInput struct {
	PaymentStatus   *string
	PaidAmountCents *int64
	Details         map[string]any
}

// UpdatePlayer updates a player record. The owning user may edit their
// details; the payment fields are GM-only so players cannot mark themselves
// paid.
func (s *Service) UpdatePlayer(ctx context.Context, id string, in UpdatePlayerInput) (*store.Player, error) {
	pl, err := s.store.GetPlayer(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, "player", id)
	}
	if err := enforce(s.rules.CanPlayer(ctx, principal(ctx), rules.ActionWrite, pl)); err != nil {
		return nil, err
	}

	if in.PaymentStatus != nil || in.PaidAmountCents != nil {
		if err := enforce(s.rules.CanGame(ctx, principal(ctx), rules.ActionWrite, pl.GameID)); err != nil {
			return nil, err
		}
	}

	if in.PaymentStatus != nil {
		if !validPaymentStatus(*in.PaymentStatus) {
			return nil, &ValidationError{Field: "payment_status", Reason: "unknown status " + *in.PaymentStatus}
		}
		pl.PaymentStatus = *in.PaymentStatus
	}
	if in.PaidAmountCents != nil {
		if *in.PaidAmountCents < 0 {
			return nil, &ValidationError{Field: "paid_amount_cents", Reason: "must not be negative"}
		}
		pl.PaidAmountCents = *in.PaidAmountCents
	}
	if in.Details != nil {
		pl.Details = in.Details
	}
	pl.UpdatedAt = s.now()

	if err := s.store.UpdatePlayer(ctx, pl); err != nil {
		return nil, mapStoreErr(err, "player", id)
	}
	return pl, nil
}

// DeletePlayer removes a player and their characters from the game
func (s *Service) DeletePlayer(ctx context.Context, id string) error {
	pl, err := s.store.GetPlayer(ctx, id)
	if err != nil {
		return mapStoreErr(err, "player", id)
	}
	if err := enforce(s.rules.CanPlayer(ctx, principal(ctx), rules.ActionWrite, pl)); err != nil {
		return err
	}

	if err := s.store.DeletePlayer(ctx, id); err != nil {
		return mapStoreErr(err, "player", id)
	}

	s.logger.Info("deleted player", "id", id, "game", pl.GameID)
	return nil
}

// ListPlayers returns a page of players. Callers must be able to read the
// game scope they filter by, so an unscoped listing requires a GM role on
// some game.
func (s *Service) ListPlayers(ctx context.Context, filter store.PlayerFilter, page Page) ([]*store.Player, *PageInfo, error) {
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
	players, total, err := s.store.ListPlayers(ctx, filter, opts)
	if err != nil {
		return nil, nil, err
	}
	info.fill(total)
	return players, info, nil
}
