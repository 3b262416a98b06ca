// Package store provides persistent storage for larpd using SQLite.
//
// # Architecture
//
// The Store interface covers CRUD plus list operations for the seven core
// entities (User, Game, Player, GM, Character, CharacterGroup, Plot) and the
// three many-to-many relationships (group membership, plot-character links,
// plot-group links). SQLiteStore is the single implementation.
//
// Association tables are the durable source of truth for relationships.
// Derived ID arrays (a game's player IDs, a character's group IDs) are never
// persisted; the views package computes them on read.
//
// # Invariants
//
// The store enforces the cross-entity invariants transactionally:
//
//   - Players, GMs, characters, and groups reference an existing game;
//     a dangling reference fails with a wrapped ErrNotFound and writes nothing.
//   - A character's player must belong to the character's game (ErrGameMismatch).
//   - Group members and plot links must stay inside one game
//     (ErrGameMismatch, ErrPlotGameSpan).
//   - User email is unique (ErrDuplicateEmail); (user, game) is unique for
//     players and GMs.
//
// Game deletion cascades: players, GMs, characters, groups, association rows,
// and every plot anchored to the game are removed in one transaction.
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// # Error Handling
//
// All methods accept context.Context. ErrNotFound and its sibling sentinels
// are matched with errors.Is; the service layer maps them to API error kinds.
package store
