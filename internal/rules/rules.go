// ABOUTME: Authorization rule set mapping principals and role memberships to allowed operations
// ABOUTME: GM-of-game outranks owning-player, which outranks public access

package rules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/larpforge/larpd/internal/auth"
	"github.com/larpforge/larpd/internal/store"
)

// ErrPlotSpansGames is returned when a plot's links resolve to more than one
// game. That state is data corruption; the rule set refuses to authorize
// anything against it.
var ErrPlotSpansGames = errors.New("plot links span multiple games")

// Action is the kind of access being requested
type Action string

const (
	ActionRead  Action = "read"
	ActionWrite Action = "write"
)

// Reason codes explain every decision, allowed or denied
type Reason string

const (
	ReasonGameMaster       Reason = "game_master"        // principal is GM of the owning game
	ReasonOwner            Reason = "owner"              // principal owns the record
	ReasonSelf             Reason = "self"               // principal is the target user
	ReasonPlayerRead       Reason = "player_read"        // principal plays in the owning game
	ReasonPublicRead       Reason = "public_read"        // operation is public
	ReasonUnanchoredGM     Reason = "unanchored_gm"      // unlinked plot, principal is GM somewhere
	ReasonNotAuthenticated Reason = "not_authenticated"  // no principal on the request
	ReasonNoRelation       Reason = "no_relation"        // principal has no tie to the owning game
)

// Decision is the outcome of an authorization check
type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow(r Reason) Decision { return Decision{Allowed: true, Reason: r} }
func deny(r Reason) Decision  { return Decision{Allowed: false, Reason: r} }

// Store is the subset of store operations the rule set needs to resolve the
// owning game and the principal's memberships
type Store interface {
	IsGM(ctx context.Context, userID, gameID string) (bool, error)
	IsGMAnywhere(ctx context.Context, userID string) (bool, error)
	GetPlayer(ctx context.Context, id string) (*store.Player, error)
	GetPlayerByUserAndGame(ctx context.Context, userID, gameID string) (*store.Player, error)
	ListPlayers(ctx context.Context, filter store.PlayerFilter, opts store.ListOptions) ([]*store.Player, int, error)
	PlotGameIDs(ctx context.Context, plotID string) ([]string, error)
}

// Authorizer evaluates the rule set against the current store state
type Authorizer struct {
	store  Store
	logger *slog.Logger
}

// NewAuthorizer creates an Authorizer backed by the given store
func NewAuthorizer(s Store) *Authorizer {
	return &Authorizer{
		store:  s,
		logger: slog.Default().With("component", "rules"),
	}
}

// CanGame decides access to a game record. Game metadata is public to read;
// writes require a GM grant on that game.
func (a *Authorizer) CanGame(ctx context.Context, p *auth.Principal, action Action, gameID string) (Decision, error) {
	if action == ActionRead {
		return allow(ReasonPublicRead), nil
	}
	if p == nil {
		return deny(ReasonNotAuthenticated), nil
	}

	isGM, err := a.store.IsGM(ctx, p.UserID, gameID)
	if err != nil {
		return Decision{}, err
	}
	if isGM {
		return allow(ReasonGameMaster), nil
	}
	return deny(ReasonNoRelation), nil
}

// CanPlayer decides access to a player record: the game's GMs have full
// access, the owning user has full access, fellow players may read.
func (a *Authorizer) CanPlayer(ctx context.Context, p *auth.Principal, action Action, player *store.Player) (Decision, error) {
	return a.gameScoped(ctx, p, action, player.GameID, player.UserID)
}

// CanCharacter decides access to a character: the game's GMs have full
// access, the owning player has full access, fellow players may read.
func (a *Authorizer) CanCharacter(ctx context.Context, p *auth.Principal, action Action, c *store.Character) (Decision, error) {
	ownerUserID := ""
	if p != nil {
		owner, err := a.store.GetPlayer(ctx, c.PlayerID)
		if err != nil {
			return Decision{}, fmt.Errorf("resolving character owner: %w", err)
		}
		ownerUserID = owner.UserID
	}
	return a.gameScoped(ctx, p, action, c.GameID, ownerUserID)
}

// CanGroup decides access to a character group: GMs write, players read.
func (a *Authorizer) CanGroup(ctx context.Context, p *auth.Principal, action Action, g *store.CharacterGroup) (Decision, error) {
	return a.gameScoped(ctx, p, action, g.GameID, "")
}

// CanPlot decides access to a plot. The plot's game is derived from its
// links. A plot resolving to more than one game fails with
// ErrPlotSpansGames. An unlinked plot is administered by principals holding
// a GM grant anywhere.
func (a *Authorizer) CanPlot(ctx context.Context, p *auth.Principal, action Action, plotID string) (Decision, error) {
	gameIDs, err := a.store.PlotGameIDs(ctx, plotID)
	if err != nil {
		return Decision{}, err
	}
	if len(gameIDs) > 1 {
		a.logger.Error("plot spans multiple games", "plot", plotID, "games", gameIDs)
		return Decision{}, ErrPlotSpansGames
	}

	if len(gameIDs) == 0 {
		if p == nil {
			return deny(ReasonNotAuthenticated), nil
		}
		anywhere, err := a.store.IsGMAnywhere(ctx, p.UserID)
		if err != nil {
			return Decision{}, err
		}
		if anywhere {
			return allow(ReasonUnanchoredGM), nil
		}
		return deny(ReasonNoRelation), nil
	}

	return a.gameScoped(ctx, p, action, gameIDs[0], "")
}

// CanUser decides access to a user record: the user themself has full
// access; GMs of a game the user plays in may read.
func (a *Authorizer) CanUser(ctx context.Context, p *auth.Principal, action Action, targetUserID string) (Decision, error) {
	if p == nil {
		return deny(ReasonNotAuthenticated), nil
	}
	if p.UserID == targetUserID {
		return allow(ReasonSelf), nil
	}
	if action == ActionWrite {
		return deny(ReasonNoRelation), nil
	}

	// A GM may read the accounts of their games' players
	memberships, _, err := a.store.ListPlayers(ctx, store.PlayerFilter{UserID: &targetUserID}, store.ListOptions{})
	if err != nil {
		return Decision{}, err
	}
	for _, m := range memberships {
		isGM, err := a.store.IsGM(ctx, p.UserID, m.GameID)
		if err != nil {
			return Decision{}, err
		}
		if isGM {
			return allow(ReasonGameMaster), nil
		}
	}
	return deny(ReasonNoRelation), nil
}

// CanCreateGame decides whether the principal may create a new game.
// Any authenticated user may; the creator receives the first GM grant.
func (a *Authorizer) CanCreateGame(p *auth.Principal) Decision {
	if p == nil {
		return deny(ReasonNotAuthenticated)
	}
	return allow(ReasonSelf)
}

// CanCreatePlot decides whether the principal may create a plot. Plots are
// narrative tooling, so creation requires a GM grant somewhere.
func (a *Authorizer) CanCreatePlot(ctx context.Context, p *auth.Principal) (Decision, error) {
	if p == nil {
		return deny(ReasonNotAuthenticated), nil
	}
	anywhere, err := a.store.IsGMAnywhere(ctx, p.UserID)
	if err != nil {
		return Decision{}, err
	}
	if anywhere {
		return allow(ReasonUnanchoredGM), nil
	}
	return deny(ReasonNoRelation), nil
}

// gameScoped applies the precedence shared by every game-owned entity:
// GM of the game, then record owner, then read-only access for the game's
// players, then nothing.
func (a *Authorizer) gameScoped(ctx context.Context, p *auth.Principal, action Action, gameID, ownerUserID string) (Decision, error) {
	if p == nil {
		return deny(ReasonNotAuthenticated), nil
	}

	isGM, err := a.store.IsGM(ctx, p.UserID, gameID)
	if err != nil {
		return Decision{}, err
	}
	if isGM {
		return allow(ReasonGameMaster), nil
	}

	if ownerUserID != "" && p.UserID == ownerUserID {
		return allow(ReasonOwner), nil
	}

	if action == ActionRead {
		_, err := a.store.GetPlayerByUserAndGame(ctx, p.UserID, gameID)
		if err == nil {
			return allow(ReasonPlayerRead), nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return Decision{}, err
		}
	}

	return deny(ReasonNoRelation), nil
}
