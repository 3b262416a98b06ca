// ABOUTME: Aggregation read models assembled from multiple store entities
// ABOUTME: Derived ID arrays are computed here on read, never persisted

package views

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/larpforge/larpd/internal/store"
)

// Builder assembles detail views by walking entity references in the store.
// Each resolution names the hop it was performing, so a dangling reference
// surfaces as "resolving player abc: not found" rather than a bare error.
type Builder struct {
	store  store.Store
	md     goldmark.Markdown
	logger *slog.Logger
}

// NewBuilder creates a Builder over the given store
func NewBuilder(s store.Store) *Builder {
	return &Builder{
		store:  s,
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		logger: slog.Default().With("component", "views"),
	}
}

// render converts markdown to HTML; on failure the raw text is dropped
// rather than served unescaped
func (b *Builder) render(markdown string) string {
	if markdown == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := b.md.Convert([]byte(markdown), &buf); err != nil {
		b.logger.Warn("markdown render failed", "error", err)
		return ""
	}
	return buf.String()
}

// UserSummary is a user as embedded in views, without the password hash
type UserSummary struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

func summarizeUser(u *store.User) UserSummary {
	return UserSummary{ID: u.ID, Email: u.Email, Name: u.Name, Phone: u.Phone}
}

// GameSummary is a game as embedded in views
type GameSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date,omitzero"`
	EndDate   time.Time `json:"end_date,omitzero"`
}

func summarizeGame(g *store.Game) GameSummary {
	return GameSummary{ID: g.ID, Name: g.Name, StartDate: g.StartDate, EndDate: g.EndDate}
}

// PlayerSummary is a player membership as embedded in views
type PlayerSummary struct {
	ID              string         `json:"id"`
	UserID          string         `json:"user_id"`
	GameID          string         `json:"game_id"`
	PaymentStatus   string         `json:"payment_status"`
	PaidAmountCents int64          `json:"paid_amount_cents"`
	Details         map[string]any `json:"details,omitempty"`
}

func summarizePlayer(p *store.Player) PlayerSummary {
	return PlayerSummary{
		ID: p.ID, UserID: p.UserID, GameID: p.GameID,
		PaymentStatus: p.PaymentStatus, PaidAmountCents: p.PaidAmountCents,
		Details: p.Details,
	}
}

// CharacterSummary is a character as embedded in views
type CharacterSummary struct {
	ID       string `json:"id"`
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
}

func summarizeCharacter(c *store.Character) CharacterSummary {
	return CharacterSummary{ID: c.ID, GameID: c.GameID, PlayerID: c.PlayerID, Name: c.Name}
}

// GroupSummary is a character group as embedded in views
type GroupSummary struct {
	ID            string `json:"id"`
	GameID        string `json:"game_id"`
	Name          string `json:"name"`
	MinCharacters *int   `json:"min_characters,omitempty"`
	MaxCharacters *int   `json:"max_characters,omitempty"`
}

func summarizeGroup(g *store.CharacterGroup) GroupSummary {
	return GroupSummary{
		ID: g.ID, GameID: g.GameID, Name: g.Name,
		MinCharacters: g.MinCharacters, MaxCharacters: g.MaxCharacters,
	}
}

// PlotSummary is a plot as embedded in views
type PlotSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PlayerDetail joins a player record with its user identity and game
type PlayerDetail struct {
	Player PlayerSummary `json:"player"`
	User   UserSummary   `json:"user"`
	Game   GameSummary   `json:"game"`
}

// PlayerDetail assembles the detail view for one player
func (b *Builder) PlayerDetail(ctx context.Context, playerID string) (*PlayerDetail, error) {
	p, err := b.store.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("resolving player %s: %w", playerID, err)
	}
	u, err := b.store.GetUser(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("resolving user %s: %w", p.UserID, err)
	}
	g, err := b.store.GetGame(ctx, p.GameID)
	if err != nil {
		return nil, fmt.Errorf("resolving game %s: %w", p.GameID, err)
	}
	return &PlayerDetail{Player: summarizePlayer(p), User: summarizeUser(u), Game: summarizeGame(g)}, nil
}

// CharacterDetail joins a character with its owning player, that player's
// user, the game, and the character's group and plot memberships
type CharacterDetail struct {
	Character       CharacterSummary `json:"character"`
	Description     string           `json:"description,omitempty"`
	DescriptionHTML string           `json:"description_html,omitempty"`
	Player          PlayerSummary    `json:"player"`
	User            UserSummary      `json:"user"`
	Game            GameSummary      `json:"game"`
	GroupIDs        []string         `json:"group_ids"`
	PlotIDs         []string         `json:"plot_ids"`
}

// CharacterDetail assembles the detail view for one character
func (b *Builder) CharacterDetail(ctx context.Context, characterID string) (*CharacterDetail, error) {
	c, err := b.store.GetCharacter(ctx, characterID)
	if err != nil {
		return nil, fmt.Errorf("resolving character %s: %w", characterID, err)
	}
	p, err := b.store.GetPlayer(ctx, c.PlayerID)
	if err != nil {
		return nil, fmt.Errorf("resolving player %s: %w", c.PlayerID, err)
	}
	u, err := b.store.GetUser(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("resolving user %s: %w", p.UserID, err)
	}
	g, err := b.store.GetGame(ctx, c.GameID)
	if err != nil {
		return nil, fmt.Errorf("resolving game %s: %w", c.GameID, err)
	}
	groups, err := b.store.ListGroupsForCharacter(ctx, characterID)
	if err != nil {
		return nil, fmt.Errorf("resolving groups of character %s: %w", characterID, err)
	}
	plots, err := b.store.ListPlotsForCharacter(ctx, characterID)
	if err != nil {
		return nil, fmt.Errorf("resolving plots of character %s: %w", characterID, err)
	}

	d := &CharacterDetail{
		Character:       summarizeCharacter(c),
		Description:     c.Description,
		DescriptionHTML: b.render(c.Description),
		Player:          summarizePlayer(p),
		User:            summarizeUser(u),
		Game:            summarizeGame(g),
		GroupIDs:        make([]string, 0, len(groups)),
		PlotIDs:         make([]string, 0, len(plots)),
	}
	for _, grp := range groups {
		d.GroupIDs = append(d.GroupIDs, grp.ID)
	}
	for _, pl := range plots {
		d.PlotIDs = append(d.PlotIDs, pl.ID)
	}
	return d, nil
}

// RosterPlayer is a player joined with its user for game rosters
type RosterPlayer struct {
	Player PlayerSummary `json:"player"`
	User   UserSummary   `json:"user"`
}

// RosterGM is a GM role joined with its user
type RosterGM struct {
	ID     string      `json:"id"`
	UserID string      `json:"user_id"`
	User   UserSummary `json:"user"`
}

// GameDetail joins a game with its full rosters and the ID arrays derived
// from the association tables
type GameDetail struct {
	Game            GameSummary    `json:"game"`
	Description     string         `json:"description,omitempty"`
	DescriptionHTML string         `json:"description_html,omitempty"`
	FieldSchema     map[string]any `json:"field_schema,omitempty"`
	Players         []RosterPlayer `json:"players"`
	GMs             []RosterGM     `json:"gms"`
	PlayerIDs       []string       `json:"player_ids"`
	GMIDs           []string       `json:"gm_ids"`
	CharacterIDs    []string       `json:"character_ids"`
	GroupIDs        []string       `json:"group_ids"`
}

// rosterLimit caps how many rows a detail view inlines. Rosters past this
// size are served through the paginated list endpoints instead.
const rosterLimit = 500

// GameDetail assembles the detail view for one game
func (b *Builder) GameDetail(ctx context.Context, gameID string) (*GameDetail, error) {
	g, err := b.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("resolving game %s: %w", gameID, err)
	}

	opts := store.ListOptions{Limit: rosterLimit}
	players, _, err := b.store.ListPlayers(ctx, store.PlayerFilter{GameID: &gameID}, opts)
	if err != nil {
		return nil, fmt.Errorf("listing players of game %s: %w", gameID, err)
	}
	gms, _, err := b.store.ListGMs(ctx, store.GMFilter{GameID: &gameID}, opts)
	if err != nil {
		return nil, fmt.Errorf("listing gms of game %s: %w", gameID, err)
	}
	chars, _, err := b.store.ListCharacters(ctx, store.CharacterFilter{GameID: &gameID}, opts)
	if err != nil {
		return nil, fmt.Errorf("listing characters of game %s: %w", gameID, err)
	}
	groups, _, err := b.store.ListGroups(ctx, store.GroupFilter{GameID: &gameID}, opts)
	if err != nil {
		return nil, fmt.Errorf("listing groups of game %s: %w", gameID, err)
	}

	d := &GameDetail{
		Game:            summarizeGame(g),
		Description:     g.Description,
		DescriptionHTML: b.render(g.Description),
		FieldSchema:     g.FieldSchema,
		Players:         make([]RosterPlayer, 0, len(players)),
		GMs:             make([]RosterGM, 0, len(gms)),
		PlayerIDs:       make([]string, 0, len(players)),
		GMIDs:           make([]string, 0, len(gms)),
		CharacterIDs:    make([]string, 0, len(chars)),
		GroupIDs:        make([]string, 0, len(groups)),
	}

	// a user can hold both a player and a GM role, so memoize lookups
	users := map[string]UserSummary{}
	lookup := func(userID string) (UserSummary, error) {
		if s, ok := users[userID]; ok {
			return s, nil
		}
		u, err := b.store.GetUser(ctx, userID)
		if err != nil {
			return UserSummary{}, fmt.Errorf("resolving user %s: %w", userID, err)
		}
		s := summarizeUser(u)
		users[userID] = s
		return s, nil
	}

	for _, p := range players {
		u, err := lookup(p.UserID)
		if err != nil {
			return nil, err
		}
		d.Players = append(d.Players, RosterPlayer{Player: summarizePlayer(p), User: u})
		d.PlayerIDs = append(d.PlayerIDs, p.ID)
	}
	for _, gm := range gms {
		u, err := lookup(gm.UserID)
		if err != nil {
			return nil, err
		}
		d.GMs = append(d.GMs, RosterGM{ID: gm.ID, UserID: gm.UserID, User: u})
		d.GMIDs = append(d.GMIDs, gm.ID)
	}
	for _, c := range chars {
		d.CharacterIDs = append(d.CharacterIDs, c.ID)
	}
	for _, grp := range groups {
		d.GroupIDs = append(d.GroupIDs, grp.ID)
	}
	return d, nil
}

// GroupDetail joins a group with its members and flags bound violations.
// The flags are advisory. A group outside its bounds is reported, not
// rejected, so GMs can stage casting changes without fighting the server.
type GroupDetail struct {
	Group           GroupSummary       `json:"group"`
	Description     string             `json:"description,omitempty"`
	DescriptionHTML string             `json:"description_html,omitempty"`
	Members         []CharacterSummary `json:"members"`
	MemberIDs       []string           `json:"member_ids"`
	PlotIDs         []string           `json:"plot_ids"`
	UnderMin        bool               `json:"under_min"`
	OverMax         bool               `json:"over_max"`
}

// GroupDetail assembles the detail view for one character group
func (b *Builder) GroupDetail(ctx context.Context, groupID string) (*GroupDetail, error) {
	g, err := b.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("resolving group %s: %w", groupID, err)
	}
	members, err := b.store.ListGroupMembers(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("listing members of group %s: %w", groupID, err)
	}
	plots, err := b.store.ListPlotsForGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("resolving plots of group %s: %w", groupID, err)
	}

	d := &GroupDetail{
		Group:           summarizeGroup(g),
		Description:     g.Description,
		DescriptionHTML: b.render(g.Description),
		Members:         make([]CharacterSummary, 0, len(members)),
		MemberIDs:       make([]string, 0, len(members)),
		PlotIDs:         make([]string, 0, len(plots)),
	}
	for _, c := range members {
		d.Members = append(d.Members, summarizeCharacter(c))
		d.MemberIDs = append(d.MemberIDs, c.ID)
	}
	for _, pl := range plots {
		d.PlotIDs = append(d.PlotIDs, pl.ID)
	}

	if g.MinCharacters != nil && len(members) < *g.MinCharacters {
		d.UnderMin = true
	}
	if g.MaxCharacters != nil && len(members) > *g.MaxCharacters {
		d.OverMax = true
	}
	return d, nil
}

// PlotDetail joins a plot with its linked characters and groups and the
// game the links anchor it to
type PlotDetail struct {
	Plot            PlotSummary        `json:"plot"`
	Description     string             `json:"description,omitempty"`
	DescriptionHTML string             `json:"description_html,omitempty"`
	Characters      []CharacterSummary `json:"characters"`
	Groups          []GroupSummary     `json:"groups"`
	CharacterIDs    []string           `json:"character_ids"`
	GroupIDs        []string           `json:"group_ids"`
	GameIDs         []string           `json:"game_ids"`
}

// PlotDetail assembles the detail view for one plot
func (b *Builder) PlotDetail(ctx context.Context, plotID string) (*PlotDetail, error) {
	p, err := b.store.GetPlot(ctx, plotID)
	if err != nil {
		return nil, fmt.Errorf("resolving plot %s: %w", plotID, err)
	}
	chars, err := b.store.ListPlotCharacters(ctx, plotID)
	if err != nil {
		return nil, fmt.Errorf("listing characters of plot %s: %w", plotID, err)
	}
	groups, err := b.store.ListPlotGroups(ctx, plotID)
	if err != nil {
		return nil, fmt.Errorf("listing groups of plot %s: %w", plotID, err)
	}
	gameIDs, err := b.store.PlotGameIDs(ctx, plotID)
	if err != nil {
		return nil, fmt.Errorf("resolving games of plot %s: %w", plotID, err)
	}

	d := &PlotDetail{
		Plot:            PlotSummary{ID: p.ID, Name: p.Name},
		Description:     p.Description,
		DescriptionHTML: b.render(p.Description),
		Characters:      make([]CharacterSummary, 0, len(chars)),
		Groups:          make([]GroupSummary, 0, len(groups)),
		CharacterIDs:    make([]string, 0, len(chars)),
		GroupIDs:        make([]string, 0, len(groups)),
		GameIDs:         gameIDs,
	}
	for _, c := range chars {
		d.Characters = append(d.Characters, summarizeCharacter(c))
		d.CharacterIDs = append(d.CharacterIDs, c.ID)
	}
	for _, g := range groups {
		d.Groups = append(d.Groups, summarizeGroup(g))
		d.GroupIDs = append(d.GroupIDs, g.ID)
	}
	return d, nil
}
