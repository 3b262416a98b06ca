// ABOUTME: Tests for plot store operations and link invariants
// ABOUTME: A plot must never span two games; links resolve from both sides

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlotStore_CreateAndGet(t *testing.T) {
	s := setupTestStore(t)

	plot := newTestPlot(t, s, "The Coup")
	retrieved, err := s.GetPlot(context.Background(), plot.ID)
	require.NoError(t, err)
	assert.Equal(t, "The Coup", retrieved.Name)
}

func TestPlotStore_LinkResolvesBothSides(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, s, "alice@example.com")
	game := newTestGame(t, s, "Winter LARP")
	player := newTestPlayer(t, s, u.ID, game.ID)
	character := newTestCharacter(t, s, game.ID, player.ID, "Aria")
	group := newTestGroup(t, s, game.ID, "Nobles")
	plot := newTestPlot(t, s, "The Coup")

	require.NoError(t, s.LinkPlotCharacter(ctx, plot.ID, character.ID))
	require.NoError(t, s.LinkPlotGroup(ctx, plot.ID, group.ID))

	chars, err := s.ListPlotCharacters(ctx, plot.ID)
	require.NoError(t, err)
	require.Len(t, chars, 1)
	assert.Equal(t, character.ID, chars[0].ID)

	groups, err := s.ListPlotGroups(ctx, plot.ID)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, group.ID, groups[0].ID)

	plots, err := s.ListPlotsForCharacter(ctx, character.ID)
	require.NoError(t, err)
	require.Len(t, plots, 1)
	assert.Equal(t, plot.ID, plots[0].ID)

	plots, err = s.ListPlotsForGroup(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, plots, 1)
	assert.Equal(t, plot.ID, plots[0].ID)
}

func TestPlotStore_GameSpanRejected(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, s, "alice@example.com")
	gameA := newTestGame(t, s, "Game A")
	gameB := newTestGame(t, s, "Game B")
	playerA := newTestPlayer(t, s, u.ID, gameA.ID)
	playerB := newTestPlayer(t, s, u.ID, gameB.ID)
	characterA := newTestCharacter(t, s, gameA.ID, playerA.ID, "Aria")
	characterB := newTestCharacter(t, s, gameB.ID, playerB.ID, "Brom")
	groupB := newTestGroup(t, s, gameB.ID, "Outsiders")
	plot := newTestPlot(t, s, "The Coup")

	require.NoError(t, s.LinkPlotCharacter(ctx, plot.ID, characterA.ID))

	// A second game's character cannot join the plot
	err := s.LinkPlotCharacter(ctx, plot.ID, characterB.ID)
	assert.ErrorIs(t, err, ErrPlotGameSpan)

	// Nor can a second game's group
	err = s.LinkPlotGroup(ctx, plot.ID, groupB.ID)
	assert.ErrorIs(t, err, ErrPlotGameSpan)

	games, err := s.PlotGameIDs(ctx, plot.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{gameA.ID}, games)
}

func TestPlotStore_GameIDsEmptyForUnlinked(t *testing.T) {
	s := setupTestStore(t)

	plot := newTestPlot(t, s, "Free-floating")
	games, err := s.PlotGameIDs(context.Background(), plot.ID)
	require.NoError(t, err)
	assert.Empty(t, games)
}

func TestPlotStore_UnlinkAllowsOtherGame(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, s, "alice@example.com")
	gameA := newTestGame(t, s, "Game A")
	gameB := newTestGame(t, s, "Game B")
	playerA := newTestPlayer(t, s, u.ID, gameA.ID)
	playerB := newTestPlayer(t, s, u.ID, gameB.ID)
	characterA := newTestCharacter(t, s, gameA.ID, playerA.ID, "Aria")
	characterB := newTestCharacter(t, s, gameB.ID, playerB.ID, "Brom")
	plot := newTestPlot(t, s, "The Coup")

	require.NoError(t, s.LinkPlotCharacter(ctx, plot.ID, characterA.ID))
	require.NoError(t, s.UnlinkPlotCharacter(ctx, plot.ID, characterA.ID))

	// Once fully unlinked the plot can anchor to a different game
	require.NoError(t, s.LinkPlotCharacter(ctx, plot.ID, characterB.ID))
}

func TestPlotStore_Delete(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, s, "alice@example.com")
	game := newTestGame(t, s, "Winter LARP")
	player := newTestPlayer(t, s, u.ID, game.ID)
	character := newTestCharacter(t, s, game.ID, player.ID, "Aria")
	plot := newTestPlot(t, s, "The Coup")
	require.NoError(t, s.LinkPlotCharacter(ctx, plot.ID, character.ID))

	require.NoError(t, s.DeletePlot(ctx, plot.ID))

	_, err := s.GetPlot(ctx, plot.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// The character keeps existing, just without the plot
	plots, err := s.ListPlotsForCharacter(ctx, character.ID)
	require.NoError(t, err)
	assert.Empty(t, plots)
}
