// ABOUTME: Tests for player, GM, character, and group store operations
// ABOUTME: Covers referential checks, game-mismatch rejection, and membership symmetry

package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerStore_DanglingGame(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, s, "alice@example.com")

	now := testTime()
	p := &Player{
		ID:            uuid.NewString(),
		UserID:        u.ID,
		GameID:        uuid.NewString(), // does not exist
		PaymentStatus: PaymentUnpaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err := s.CreatePlayer(ctx, p)
	assert.ErrorIs(t, err, ErrNotFound)

	// No partial write
	_, err = s.GetPlayer(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPlayerStore_DuplicateMembership(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, s, "alice@example.com")
	game := newTestGame(t, s, "Winter LARP")
	newTestPlayer(t, s, u.ID, game.ID)

	now := testTime()
	dup := &Player{
		ID:            uuid.NewString(),
		UserID:        u.ID,
		GameID:        game.ID,
		PaymentStatus: PaymentUnpaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err := s.CreatePlayer(ctx, dup)
	assert.ErrorIs(t, err, ErrDuplicatePlayer)
}

func TestPlayerStore_GetByUserAndGame(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, s, "alice@example.com")
	game := newTestGame(t, s, "Winter LARP")
	player := newTestPlayer(t, s, u.ID, game.ID)

	retrieved, err := s.GetPlayerByUserAndGame(ctx, u.ID, game.ID)
	require.NoError(t, err)
	assert.Equal(t, player.ID, retrieved.ID)

	_, err = s.GetPlayerByUserAndGame(ctx, u.ID, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPlayerStore_UpdatePayment(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, s, "alice@example.com")
	game := newTestGame(t, s, "Winter LARP")
	player := newTestPlayer(t, s, u.ID, game.ID)

	player.PaymentStatus = PaymentPaid
	player.PaidAmountCents = 15000
	player.Details = map[string]any{"dietary": "vegetarian"}
	player.UpdatedAt = testTime()
	require.NoError(t, s.UpdatePlayer(ctx, player))

	retrieved, err := s.GetPlayer(ctx, player.ID)
	require.NoError(t, err)
	assert.Equal(t, PaymentPaid, retrieved.PaymentStatus)
	assert.Equal(t, int64(15000), retrieved.PaidAmountCents)
	assert.Equal(t, "vegetarian", retrieved.Details["dietary"])
}

func TestGMStore_GrantAndCheck(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, s, "gm@example.com")
	game := newTestGame(t, s, "Winter LARP")

	is, err := s.IsGM(ctx, u.ID, game.ID)
	require.NoError(t, err)
	assert.False(t, is)

	gm := &GM{ID: uuid.NewString(), UserID: u.ID, GameID: game.ID, CreatedAt: testTime()}
	require.NoError(t, s.CreateGM(ctx, gm))

	is, err = s.IsGM(ctx, u.ID, game.ID)
	require.NoError(t, err)
	assert.True(t, is)

	anywhere, err := s.IsGMAnywhere(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, anywhere)

	// Duplicate grant is rejected
	dup := &GM{ID: uuid.NewString(), UserID: u.ID, GameID: game.ID, CreatedAt: testTime()}
	assert.ErrorIs(t, s.CreateGM(ctx, dup), ErrDuplicateGM)

	require.NoError(t, s.DeleteGM(ctx, gm.ID))
	is, err = s.IsGM(ctx, u.ID, game.ID)
	require.NoError(t, err)
	assert.False(t, is)
}

func TestCharacterStore_PlayerGameMismatch(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, s, "alice@example.com")
	gameA := newTestGame(t, s, "Game A")
	gameB := newTestGame(t, s, "Game B")
	playerA := newTestPlayer(t, s, u.ID, gameA.ID)

	now := testTime()
	c := &Character{
		ID:        uuid.NewString(),
		GameID:    gameB.ID, // player belongs to gameA
		PlayerID:  playerA.ID,
		Name:      "Aria",
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.CreateCharacter(ctx, c)
	assert.ErrorIs(t, err, ErrGameMismatch)

	_, err = s.GetCharacter(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCharacterStore_ListByGame(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, s, "alice@example.com")
	game := newTestGame(t, s, "Winter LARP")
	player := newTestPlayer(t, s, u.ID, game.ID)
	newTestCharacter(t, s, game.ID, player.ID, "Aria")
	newTestCharacter(t, s, game.ID, player.ID, "Brom")

	chars, total, err := s.ListCharacters(ctx, CharacterFilter{GameID: &game.ID}, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, chars, 2)
	assert.Equal(t, "Aria", chars[0].Name)
}

func TestGroupStore_MembershipSymmetry(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, s, "alice@example.com")
	game := newTestGame(t, s, "Winter LARP")
	player := newTestPlayer(t, s, u.ID, game.ID)
	character := newTestCharacter(t, s, game.ID, player.ID, "Aria")
	group := newTestGroup(t, s, game.ID, "Nobles")

	require.NoError(t, s.AddGroupMember(ctx, group.ID, character.ID))

	// Observable from the group side
	members, err := s.ListGroupMembers(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, character.ID, members[0].ID)

	// And from the character side
	groups, err := s.ListGroupsForCharacter(ctx, character.ID)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, group.ID, groups[0].ID)

	// Removal is symmetric too
	require.NoError(t, s.RemoveGroupMember(ctx, group.ID, character.ID))
	members, err = s.ListGroupMembers(ctx, group.ID)
	require.NoError(t, err)
	assert.Empty(t, members)
	groups, err = s.ListGroupsForCharacter(ctx, character.ID)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestGroupStore_CrossGameMemberRejected(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, s, "alice@example.com")
	gameA := newTestGame(t, s, "Game A")
	gameB := newTestGame(t, s, "Game B")
	playerA := newTestPlayer(t, s, u.ID, gameA.ID)
	characterA := newTestCharacter(t, s, gameA.ID, playerA.ID, "Aria")
	groupB := newTestGroup(t, s, gameB.ID, "Outsiders")

	err := s.AddGroupMember(ctx, groupB.ID, characterA.ID)
	assert.ErrorIs(t, err, ErrGameMismatch)
}

func TestGroupStore_AddMemberIdempotent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, s, "alice@example.com")
	game := newTestGame(t, s, "Winter LARP")
	player := newTestPlayer(t, s, u.ID, game.ID)
	character := newTestCharacter(t, s, game.ID, player.ID, "Aria")
	group := newTestGroup(t, s, game.ID, "Nobles")

	require.NoError(t, s.AddGroupMember(ctx, group.ID, character.ID))
	require.NoError(t, s.AddGroupMember(ctx, group.ID, character.ID))

	members, err := s.ListGroupMembers(ctx, group.ID)
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func TestGroupStore_Bounds(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	game := newTestGame(t, s, "Winter LARP")

	minC, maxC := 2, 5
	now := testTime()
	g := &CharacterGroup{
		ID:            uuid.NewString(),
		GameID:        game.ID,
		Name:          "Nobles",
		MinCharacters: &minC,
		MaxCharacters: &maxC,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, s.CreateGroup(ctx, g))

	retrieved, err := s.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	require.NotNil(t, retrieved.MinCharacters)
	require.NotNil(t, retrieved.MaxCharacters)
	assert.Equal(t, 2, *retrieved.MinCharacters)
	assert.Equal(t, 5, *retrieved.MaxCharacters)
}

func TestPlayerStore_CheckViolationNotDuplicate(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, s, "alice@example.com")
	game := newTestGame(t, s, "Winter LARP")

	now := testTime()
	p := &Player{
		ID:            uuid.NewString(),
		UserID:        u.ID,
		GameID:        game.ID,
		PaymentStatus: "bogus", // fails the payment_status CHECK
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err := s.CreatePlayer(ctx, p)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicatePlayer)
}
