// ABOUTME: View assembly tests over a real SQLite store
// ABOUTME: Builds a small game world and checks every detail view resolves

package views

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larpforge/larpd/internal/store"
)

// fixture is a one-game world: Aria plays Captain Vex in Winter LARP, the
// character belongs to the Nobles group, and one plot involves both
type fixture struct {
	store     store.Store
	builder   *Builder
	user      *store.User
	game      *store.Game
	player    *store.Player
	character *store.Character
	group     *store.CharacterGroup
	plot      *store.Plot
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "views.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	now := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
	id := uuid.NewString

	f := &fixture{store: st, builder: NewBuilder(st)}

	f.user = &store.User{
		ID: id(), Email: "aria@larp.example", PasswordHash: "x",
		Name: "Aria", CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, st.CreateUser(ctx, f.user))

	f.game = &store.Game{
		ID: id(), Name: "Winter LARP",
		Description: "# A cold weekend\n\nBring *warm* clothes.",
		StartDate:   now, EndDate: now.AddDate(0, 0, 2),
		CreatedAt:   now, UpdatedAt: now,
	}
	require.NoError(t, st.CreateGame(ctx, f.game))

	f.player = &store.Player{
		ID: id(), UserID: f.user.ID, GameID: f.game.ID,
		PaymentStatus: store.PaymentPaid, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, st.CreatePlayer(ctx, f.player))

	f.character = &store.Character{
		ID: id(), GameID: f.game.ID, PlayerID: f.player.ID,
		Name: "Captain Vex", Description: "A **retired** privateer.",
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, st.CreateCharacter(ctx, f.character))

	min := 2
	f.group = &store.CharacterGroup{
		ID: id(), GameID: f.game.ID, Name: "Nobles",
		MinCharacters: &min, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, st.CreateGroup(ctx, f.group))
	require.NoError(t, st.AddGroupMember(ctx, f.group.ID, f.character.ID))

	f.plot = &store.Plot{
		ID: id(), Name: "The Succession", CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, st.CreatePlot(ctx, f.plot))
	require.NoError(t, st.LinkPlotCharacter(ctx, f.plot.ID, f.character.ID))
	require.NoError(t, st.LinkPlotGroup(ctx, f.plot.ID, f.group.ID))

	return f
}

func TestCharacterDetail(t *testing.T) {
	f := setupFixture(t)

	d, err := f.builder.CharacterDetail(context.Background(), f.character.ID)
	require.NoError(t, err)

	assert.Equal(t, "Captain Vex", d.Character.Name)
	assert.Equal(t, f.player.ID, d.Player.ID)
	assert.Equal(t, "Aria", d.User.Name)
	assert.Equal(t, "Winter LARP", d.Game.Name)
	assert.Equal(t, []string{f.group.ID}, d.GroupIDs)
	assert.Equal(t, []string{f.plot.ID}, d.PlotIDs)
	assert.Contains(t, d.DescriptionHTML, "<strong>retired</strong>")
}

func TestCharacterDetail_NamesFailedHop(t *testing.T) {
	f := setupFixture(t)

	_, err := f.builder.CharacterDetail(context.Background(), "no-such-id")
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Contains(t, err.Error(), "resolving character no-such-id")
}

func TestPlayerDetail(t *testing.T) {
	f := setupFixture(t)

	d, err := f.builder.PlayerDetail(context.Background(), f.player.ID)
	require.NoError(t, err)

	assert.Equal(t, store.PaymentPaid, d.Player.PaymentStatus)
	assert.Equal(t, "aria@larp.example", d.User.Email)
	assert.Equal(t, "Winter LARP", d.Game.Name)
}

func TestGameDetail(t *testing.T) {
	f := setupFixture(t)

	d, err := f.builder.GameDetail(context.Background(), f.game.ID)
	require.NoError(t, err)

	require.Len(t, d.Players, 1)
	assert.Equal(t, "Aria", d.Players[0].User.Name)
	assert.Empty(t, d.GMs)
	assert.Equal(t, []string{f.player.ID}, d.PlayerIDs)
	assert.Equal(t, []string{f.character.ID}, d.CharacterIDs)
	assert.Equal(t, []string{f.group.ID}, d.GroupIDs)
	assert.Contains(t, d.DescriptionHTML, "<h1")
}

func TestGroupDetail_BoundFlags(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	// one member against a minimum of two
	d, err := f.builder.GroupDetail(ctx, f.group.ID)
	require.NoError(t, err)
	assert.True(t, d.UnderMin)
	assert.False(t, d.OverMax)
	assert.Equal(t, []string{f.character.ID}, d.MemberIDs)
	assert.Equal(t, []string{f.plot.ID}, d.PlotIDs)

	// drop the minimum and the flag clears
	f.group.MinCharacters = nil
	require.NoError(t, f.store.UpdateGroup(ctx, f.group))
	d, err = f.builder.GroupDetail(ctx, f.group.ID)
	require.NoError(t, err)
	assert.False(t, d.UnderMin)
}

func TestGroupDetail_OverMax(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	zero := 0
	f.group.MinCharacters = nil
	f.group.MaxCharacters = &zero
	require.NoError(t, f.store.UpdateGroup(ctx, f.group))

	d, err := f.builder.GroupDetail(ctx, f.group.ID)
	require.NoError(t, err)
	assert.True(t, d.OverMax)
}

func TestPlotDetail(t *testing.T) {
	f := setupFixture(t)

	d, err := f.builder.PlotDetail(context.Background(), f.plot.ID)
	require.NoError(t, err)

	assert.Equal(t, "The Succession", d.Plot.Name)
	assert.Equal(t, []string{f.character.ID}, d.CharacterIDs)
	assert.Equal(t, []string{f.group.ID}, d.GroupIDs)
	assert.Equal(t, []string{f.game.ID}, d.GameIDs)
	require.Len(t, d.Characters, 1)
	assert.Equal(t, "Captain Vex", d.Characters[0].Name)
}
