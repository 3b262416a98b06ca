// ABOUTME: Wire types for the HTTP API
// ABOUTME: Store entities are converted here so password hashes never serialize

package api

import (
	"time"

	"github.com/larpforge/larpd/internal/store"
)

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toUser(u *store.User) userResponse {
	return userResponse{
		ID: u.ID, Email: u.Email, Name: u.Name, Phone: u.Phone,
		CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt,
	}
}

func toUsers(us []*store.User) []userResponse {
	out := make([]userResponse, 0, len(us))
	for _, u := range us {
		out = append(out, toUser(u))
	}
	return out
}

type gameResponse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	StartDate   time.Time      `json:"start_date,omitzero"`
	EndDate     time.Time      `json:"end_date,omitzero"`
	FieldSchema map[string]any `json:"field_schema,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func toGame(g *store.Game) gameResponse {
	return gameResponse{
		ID: g.ID, Name: g.Name, Description: g.Description,
		StartDate: g.StartDate, EndDate: g.EndDate, FieldSchema: g.FieldSchema,
		CreatedAt: g.CreatedAt, UpdatedAt: g.UpdatedAt,
	}
}

func toGames(gs []*store.Game) []gameResponse {
	out := make([]gameResponse, 0, len(gs))
	for _, g := range gs {
		out = append(out, toGame(g))
	}
	return out
}

type playerResponse struct {
	ID              string         `json:"id"`
	UserID          string         `json:"user_id"`
	GameID          string         `json:"game_id"`
	PaymentStatus   string         `json:"payment_status"`
	PaidAmountCents int64          `json:"paid_amount_cents"`
	Details         map[string]any `json:"details,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func toPlayer(p *store.Player) playerResponse {
	return playerResponse{
		ID: p.ID, UserID: p.UserID, GameID: p.GameID,
		PaymentStatus: p.PaymentStatus, PaidAmountCents: p.PaidAmountCents,
		Details: p.Details, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt,
	}
}

func toPlayers(ps []*store.Player) []playerResponse {
	out := make([]playerResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, toPlayer(p))
	}
	return out
}

type gmResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	GameID    string    `json:"game_id"`
	CreatedAt time.Time `json:"created_at"`
}

func toGM(gm *store.GM) gmResponse {
	return gmResponse{ID: gm.ID, UserID: gm.UserID, GameID: gm.GameID, CreatedAt: gm.CreatedAt}
}

func toGMs(gms []*store.GM) []gmResponse {
	out := make([]gmResponse, 0, len(gms))
	for _, gm := range gms {
		out = append(out, toGM(gm))
	}
	return out
}

type characterResponse struct {
	ID          string    `json:"id"`
	GameID      string    `json:"game_id"`
	PlayerID    string    `json:"player_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toCharacter(c *store.Character) characterResponse {
	return characterResponse{
		ID: c.ID, GameID: c.GameID, PlayerID: c.PlayerID,
		Name: c.Name, Description: c.Description,
		CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt,
	}
}

func toCharacters(cs []*store.Character) []characterResponse {
	out := make([]characterResponse, 0, len(cs))
	for _, c := range cs {
		out = append(out, toCharacter(c))
	}
	return out
}

type groupResponse struct {
	ID            string    `json:"id"`
	GameID        string    `json:"game_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	MinCharacters *int      `json:"min_characters,omitempty"`
	MaxCharacters *int      `json:"max_characters,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toGroup(g *store.CharacterGroup) groupResponse {
	return groupResponse{
		ID: g.ID, GameID: g.GameID, Name: g.Name, Description: g.Description,
		MinCharacters: g.MinCharacters, MaxCharacters: g.MaxCharacters,
		CreatedAt: g.CreatedAt, UpdatedAt: g.UpdatedAt,
	}
}

func toGroups(gs []*store.CharacterGroup) []groupResponse {
	out := make([]groupResponse, 0, len(gs))
	for _, g := range gs {
		out = append(out, toGroup(g))
	}
	return out
}

type plotResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toPlot(p *store.Plot) plotResponse {
	return plotResponse{
		ID: p.ID, Name: p.Name, Description: p.Description,
		CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt,
	}
}

func toPlots(ps []*store.Plot) []plotResponse {
	out := make([]plotResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, toPlot(p))
	}
	return out
}
