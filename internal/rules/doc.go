// Package rules implements larpd's authorization rule set.
//
// Every decision resolves the target's owning game first, then applies role
// precedence:
//
//  1. GM of the owning game: full read/write on the game and everything in it.
//  2. Owning player: read/write on their own player record and characters.
//  3. Player of the owning game: read access to the game's entities.
//  4. No relation: writes denied; reads denied unless the operation is
//     public (game metadata and listings).
//
// A plot's owning game is derived from its character and group links. Links
// resolving to more than one game are data corruption: the rule set returns
// ErrPlotSpansGames instead of a decision. Unlinked plots are administered
// by principals holding a GM grant on any game.
//
// Decisions carry a Reason code so callers can log and surface why access
// was granted or refused. Denials are reported as PermissionDenied by the
// service layer, never masked as not-found; entity IDs are unguessable
// UUIDs, so existence leakage is an accepted tradeoff here.
package rules
