// ABOUTME: Store interface and data types for larpd persistence
// ABOUTME: Defines the seven core entities and the Store interface for database operations

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned when creating a user with an email that is already registered
var ErrDuplicateEmail = errors.New("email already registered")

// ErrDuplicatePlayer is returned when a user already has a player record in a game
var ErrDuplicatePlayer = errors.New("player already exists for user and game")

// ErrDuplicateGM is returned when a user is already a GM of a game
var ErrDuplicateGM = errors.New("gm already exists for user and game")

// ErrGameMismatch is returned when a character's player belongs to a different game
var ErrGameMismatch = errors.New("player belongs to a different game")

// ErrPlotGameSpan is returned when a plot link would make the plot span multiple games
var ErrPlotGameSpan = errors.New("plot would span multiple games")

// User is an account holder. PasswordHash is a bcrypt hash and is never
// serialized out of the store layer.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Phone        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Game is a single LARP event. FieldSchema describes per-game extension
// fields collected from players (free-form JSON descriptor).
type Game struct {
	ID          string
	Name        string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	FieldSchema map[string]any
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PaymentStatus values for a player's payment record
const (
	PaymentUnpaid  = "unpaid"
	PaymentPartial = "partial"
	PaymentPaid    = "paid"
	PaymentWaived  = "waived"
)

// ValidPaymentStatuses lists all accepted payment status values
var ValidPaymentStatuses = []string{PaymentUnpaid, PaymentPartial, PaymentPaid, PaymentWaived}

// Player is a user's membership in one game. (UserID, GameID) is unique.
type Player struct {
	ID              string
	UserID          string
	GameID          string
	PaymentStatus   string
	PaidAmountCents int64
	Details         map[string]any
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// GM grants a user administrative rights over one game. (UserID, GameID) is unique.
type GM struct {
	ID        string
	UserID    string
	GameID    string
	CreatedAt time.Time
}

// Character is owned by a player and belongs to the same game as that player.
type Character struct {
	ID          string
	GameID      string
	PlayerID    string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CharacterGroup is a named collection of characters within a game.
// MinCharacters/MaxCharacters are advisory bounds; nil means unbounded.
type CharacterGroup struct {
	ID            string
	GameID        string
	Name          string
	Description   string
	MinCharacters *int
	MaxCharacters *int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Plot is a narrative unit linked to characters and character groups.
// It has no game column of its own; its game is derived from its links.
type Plot struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ListOptions controls pagination and ordering for list operations.
// OrderBy must be one of the columns the store whitelists per entity;
// an empty OrderBy uses the entity's default ordering.
type ListOptions struct {
	Limit      int
	Offset     int
	OrderBy    string
	Descending bool
}

// UserFilter narrows ListUsers results
type UserFilter struct {
	Email *string
}

// PlayerFilter narrows ListPlayers results
type PlayerFilter struct {
	GameID *string
	UserID *string
}

// GMFilter narrows ListGMs results
type GMFilter struct {
	GameID *string
	UserID *string
}

// CharacterFilter narrows ListCharacters results
type CharacterFilter struct {
	GameID   *string
	PlayerID *string
}

// GroupFilter narrows ListGroups results
type GroupFilter struct {
	GameID *string
}

// Store defines the interface for entity persistence.
// List methods return the matching page plus the total count across all pages.
type Store interface {
	// Users
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateUser(ctx context.Context, u *User) error
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context, filter UserFilter, opts ListOptions) ([]*User, int, error)

	// Games
	CreateGame(ctx context.Context, g *Game) error
	CreateGameWithOwner(ctx context.Context, g *Game, owner *GM) error
	GetGame(ctx context.Context, id string) (*Game, error)
	UpdateGame(ctx context.Context, g *Game) error
	DeleteGame(ctx context.Context, id string) error
	ListGames(ctx context.Context, opts ListOptions) ([]*Game, int, error)

	// Players
	CreatePlayer(ctx context.Context, p *Player) error
	GetPlayer(ctx context.Context, id string) (*Player, error)
	GetPlayerByUserAndGame(ctx context.Context, userID, gameID string) (*Player, error)
	UpdatePlayer(ctx context.Context, p *Player) error
	DeletePlayer(ctx context.Context, id string) error
	ListPlayers(ctx context.Context, filter PlayerFilter, opts ListOptions) ([]*Player, int, error)

	// GMs
	CreateGM(ctx context.Context, gm *GM) error
	GetGM(ctx context.Context, id string) (*GM, error)
	DeleteGM(ctx context.Context, id string) error
	ListGMs(ctx context.Context, filter GMFilter, opts ListOptions) ([]*GM, int, error)
	IsGM(ctx context.Context, userID, gameID string) (bool, error)
	IsGMAnywhere(ctx context.Context, userID string) (bool, error)

	// Characters
	CreateCharacter(ctx context.Context, c *Character) error
	GetCharacter(ctx context.Context, id string) (*Character, error)
	UpdateCharacter(ctx context.Context, c *Character) error
	DeleteCharacter(ctx context.Context, id string) error
	ListCharacters(ctx context.Context, filter CharacterFilter, opts ListOptions) ([]*Character, int, error)

	// Character groups
	CreateGroup(ctx context.Context, g *CharacterGroup) error
	GetGroup(ctx context.Context, id string) (*CharacterGroup, error)
	UpdateGroup(ctx context.Context, g *CharacterGroup) error
	DeleteGroup(ctx context.Context, id string) error
	ListGroups(ctx context.Context, filter GroupFilter, opts ListOptions) ([]*CharacterGroup, int, error)
	AddGroupMember(ctx context.Context, groupID, characterID string) error
	RemoveGroupMember(ctx context.Context, groupID, characterID string) error
	ListGroupMembers(ctx context.Context, groupID string) ([]*Character, error)
	ListGroupsForCharacter(ctx context.Context, characterID string) ([]*CharacterGroup, error)

	// Plots
	CreatePlot(ctx context.Context, p *Plot) error
	GetPlot(ctx context.Context, id string) (*Plot, error)
	UpdatePlot(ctx context.Context, p *Plot) error
	DeletePlot(ctx context.Context, id string) error
	ListPlots(ctx context.Context, opts ListOptions) ([]*Plot, int, error)
	LinkPlotCharacter(ctx context.Context, plotID, characterID string) error
	UnlinkPlotCharacter(ctx context.Context, plotID, characterID string) error
	LinkPlotGroup(ctx context.Context, plotID, groupID string) error
	UnlinkPlotGroup(ctx context.Context, plotID, groupID string) error
	ListPlotCharacters(ctx context.Context, plotID string) ([]*Character, error)
	ListPlotGroups(ctx context.Context, plotID string) ([]*CharacterGroup, error)
	ListPlotsForCharacter(ctx context.Context, characterID string) ([]*Plot, error)
	ListPlotsForGroup(ctx context.Context, groupID string) ([]*Plot, error)
	// PlotGameIDs returns the distinct game IDs reachable from the plot's
	// links. A healthy plot yields zero or one ID; more than one indicates
	// data corruption that callers must surface, never authorize.
	PlotGameIDs(ctx context.Context, plotID string) ([]string, error)

	Close() error
}
