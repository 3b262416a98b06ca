// ABOUTME: Service layer tests over a real SQLite store
// ABOUTME: Exercises the validate-authorize-store pipeline end to end

package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larpforge/larpd/internal/auth"
	"github.com/larpforge/larpd/internal/rules"
	"github.com/larpforge/larpd/internal/store"
)

var testSecret = []byte("larpd-service-test-secret-32-by!")

func setupTestService(t *testing.T) (*Service, store.Store) {
	t.Helper()

	dir := t.TempDir()
	st, err := store.NewSQLiteStore(filepath.Join(dir, "larpd.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	verifier := auth.NewJWTVerifier(testSecret)
	svc := New(st, rules.NewAuthorizer(st), verifier, time.Hour)
	return svc, st
}

// registerUser registers an account and returns its context-carrying principal
func registerUser(t *testing.T, svc *Service, email string) (*store.User, context.Context) {
	t.Helper()

	u, err := svc.Register(context.Background(), RegisterInput{
		Email:    email,
		Password: "opensesame",
		Name:     "Test User",
	})
	require.NoError(t, err)

	ctx := auth.WithPrincipal(context.Background(), &auth.Principal{UserID: u.ID, Email: u.Email})
	return u, ctx
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "not-an-email", Password: "opensesame", Name: "X"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Field)

	_, err = svc.Register(ctx, RegisterInput{Email: "a@b.example", Password: "short", Name: "X"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "password", verr.Field)

	_, err = svc.Register(ctx, RegisterInput{Email: "a@b.example", Password: "opensesame", Name: ""})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := setupTestService(t)

	registerUser(t, svc, "dup@larp.example")
	_, err := svc.Register(context.Background(), RegisterInput{
		Email: "dup@larp.example", Password: "opensesame", Name: "Other",
	})
	var cerr *ConflictError
	require.ErrorAs(t, err, &cerr)
}

func TestLogin(t *testing.T) {
	svc, _ := setupTestService(t)
	u, _ := registerUser(t, svc, "aria@larp.example")

	token, got, err := svc.Login(context.Background(), "aria@larp.example", "opensesame")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, u.ID, got.ID)

	// token round-trips through the verifier
	uid, err := svc.verifier.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, uid)
}

func TestLogin_BadCredentials(t *testing.T) {
	svc, _ := setupTestService(t)
	registerUser(t, svc, "aria@larp.example")

	var verr *ValidationError

	_, _, err := svc.Login(context.Background(), "aria@larp.example", "wrongpass")
	require.ErrorAs(t, err, &verr)
	wrongPass := verr.Error()

	_, _, err = svc.Login(context.Background(), "nobody@larp.example", "opensesame")
	require.ErrorAs(t, err, &verr)

	// unknown email and wrong password are indistinguishable
	assert.Equal(t, wrongPass, verr.Error())
}

func TestChangePassword(t *testing.T) {
	svc, _ := setupTestService(t)
	u, ctx := registerUser(t, svc, "aria@larp.example")

	err := svc.ChangePassword(ctx, u.ID, "wrongpass", "newpassword")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	require.NoError(t, svc.ChangePassword(ctx, u.ID, "opensesame", "newpassword"))

	_, _, err = svc.Login(context.Background(), "aria@larp.example", "newpassword")
	require.NoError(t, err)
}

func TestGetUser_Authorization(t *testing.T) {
	svc, _ := setupTestService(t)
	target, targetCtx := registerUser(t, svc, "target@larp.example")
	_, strangerCtx := registerUser(t, svc, "stranger@larp.example")

	got, err := svc.GetUser(targetCtx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, target.Email, got.Email)

	_, err = svc.GetUser(strangerCtx, target.ID)
	var perr *PermissionDeniedError
	require.ErrorAs(t, err, &perr)

	_, err = svc.GetUser(context.Background(), target.ID)
	var uerr *UnauthenticatedError
	require.ErrorAs(t, err, &uerr)
}

func TestCreateGame_GrantsOwnerGM(t *testing.T) {
	svc, st := setupTestService(t)
	owner, ownerCtx := registerUser(t, svc, "owner@larp.example")

	g, err := svc.CreateGame(ownerCtx, CreateGameInput{Name: "Winter LARP"})
	require.NoError(t, err)

	isGM, err := st.IsGM(context.Background(), owner.ID, g.ID)
	require.NoError(t, err)
	assert.True(t, isGM, "creator should hold a GM role")
}

func TestCreateGame_RequiresAuth(t *testing.T) {
	svc, _ := setupTestService(t)

	_, err := svc.CreateGame(context.Background(), CreateGameInput{Name: "Ghost Game"})
	var uerr *UnauthenticatedError
	require.ErrorAs(t, err, &uerr)
}

func TestCreateGame_DateOrder(t *testing.T) {
	svc, _ := setupTestService(t)
	_, ctx := registerUser(t, svc, "owner@larp.example")

	start := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -3)
	_, err := svc.CreateGame(ctx, CreateGameInput{Name: "Backwards", StartDate: start, EndDate: end})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "end_date", verr.Field)
}

func TestUpdateGame_GMOnly(t *testing.T) {
	svc, _ := setupTestService(t)
	_, ownerCtx := registerUser(t, svc, "owner@larp.example")
	_, strangerCtx := registerUser(t, svc, "stranger@larp.example")

	g, err := svc.CreateGame(ownerCtx, CreateGameInput{Name: "Winter LARP"})
	require.NoError(t, err)

	name := "Winter LARP II"
	_, err = svc.UpdateGame(strangerCtx, g.ID, UpdateGameInput{Name: &name})
	var perr *PermissionDeniedError
	require.ErrorAs(t, err, &perr)

	// the denied write must not have touched the row
	unchanged, err := svc.GetGame(context.Background(), g.ID)
	require.NoError(t, err)
	assert.Equal(t, "Winter LARP", unchanged.Name)

	updated, err := svc.UpdateGame(ownerCtx, g.ID, UpdateGameInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Winter LARP II", updated.Name)
}

func TestGetGame_PubliclyReadable(t *testing.T) {
	svc, _ := setupTestService(t)
	_, ownerCtx := registerUser(t, svc, "owner@larp.example")

	g, err := svc.CreateGame(ownerCtx, CreateGameInput{Name: "Open House"})
	require.NoError(t, err)

	got, err := svc.GetGame(context.Background(), g.ID)
	require.NoError(t, err)
	assert.Equal(t, "Open House", got.Name)
}

func TestCreatePlayer_SelfJoin(t *testing.T) {
	svc, _ := setupTestService(t)
	_, ownerCtx := registerUser(t, svc, "owner@larp.example")
	player, playerCtx := registerUser(t, svc, "aria@larp.example")

	g, err := svc.CreateGame(ownerCtx, CreateGameInput{Name: "Winter LARP"})
	require.NoError(t, err)

	pl, err := svc.CreatePlayer(playerCtx, CreatePlayerInput{UserID: player.ID, GameID: g.ID})
	require.NoError(t, err)
	assert.Equal(t, store.PaymentUnpaid, pl.PaymentStatus)
}

func TestCreatePlayer_EnrollOthersIsGMOnly(t *testing.T) {
	svc, _ := setupTestService(t)
	_, ownerCtx := registerUser(t, svc, "owner@larp.example")
	target, _ := registerUser(t, svc, "target@larp.example")
	_, strangerCtx := registerUser(t, svc, "stranger@larp.example")

	g, err := svc.CreateGame(ownerCtx, CreateGameInput{Name: "Winter LARP"})
	require.NoError(t, err)

	_, err = svc.CreatePlayer(strangerCtx, CreatePlayerInput{UserID: target.ID, GameID: g.ID})
	var perr *PermissionDeniedError
	require.ErrorAs(t, err, &perr)

	_, err = svc.CreatePlayer(ownerCtx, CreatePlayerInput{UserID: target.ID, GameID: g.ID})
	require.NoError(t, err)
}

func TestCreatePlayer_DanglingGame(t *testing.T) {
	svc, _ := setupTestService(t)
	u, ctx := registerUser(t, svc, "aria@larp.example")

	_, err := svc.CreatePlayer(ctx, CreatePlayerInput{UserID: u.ID, GameID: "no-such-game"})
	var nerr *NotFoundError
	require.ErrorAs(t, err, &nerr)
}

func TestUpdatePlayer_PaymentIsGMOnly(t *testing.T) {
	svc, _ := setupTestService(t)
	_, ownerCtx := registerUser(t, svc, "owner@larp.example")
	player, playerCtx := registerUser(t, svc, "aria@larp.example")

	g, err := svc.CreateGame(ownerCtx, CreateGameInput{Name: "Winter LARP"})
	require.NoError(t, err)
	pl, err := svc.CreatePlayer(playerCtx, CreatePlayerInput{UserID: player.ID, GameID: g.ID})
	require.NoError(t, err)

	paid := store.PaymentPaid
	_, err = svc.UpdatePlayer(playerCtx, pl.ID, UpdatePlayerInput{PaymentStatus: &paid})
	var perr *PermissionDeniedError
	require.ErrorAs(t, err, &perr, "players must not mark themselves paid")

	updated, err := svc.UpdatePlayer(ownerCtx, pl.ID, UpdatePlayerInput{PaymentStatus: &paid})
	require.NoError(t, err)
	assert.Equal(t, store.PaymentPaid, updated.PaymentStatus)

	// the owning user can still edit their own details
	_, err = svc.UpdatePlayer(playerCtx, pl.ID, UpdatePlayerInput{Details: map[string]any{"diet": "vegetarian"}})
	require.NoError(t, err)
}

func TestCreateCharacter(t *testing.T) {
	svc, _ := setupTestService(t)
	_, ownerCtx := registerUser(t, svc, "owner@larp.example")
	player, playerCtx := registerUser(t, svc, "aria@larp.example")
	_, strangerCtx := registerUser(t, svc, "stranger@larp.example")

	g, err := svc.CreateGame(ownerCtx, CreateGameInput{Name: "Winter LARP"})
	require.NoError(t, err)
	pl, err := svc.CreatePlayer(playerCtx, CreatePlayerInput{UserID: player.ID, GameID: g.ID})
	require.NoError(t, err)

	c, err := svc.CreateCharacter(playerCtx, CreateCharacterInput{GameID: g.ID, PlayerID: pl.ID, Name: "Captain Vex"})
	require.NoError(t, err)
	assert.Equal(t, pl.ID, c.PlayerID)

	_, err = svc.CreateCharacter(strangerCtx, CreateCharacterInput{GameID: g.ID, PlayerID: pl.ID, Name: "Impostor"})
	var perr *PermissionDeniedError
	require.ErrorAs(t, err, &perr)

	_, err = svc.CreateCharacter(ownerCtx, CreateCharacterInput{GameID: g.ID, PlayerID: pl.ID, Name: "NPC"})
	require.NoError(t, err)
}

func TestGroupBounds(t *testing.T) {
	svc, _ := setupTestService(t)
	_, ownerCtx := registerUser(t, svc, "owner@larp.example")

	g, err := svc.CreateGame(ownerCtx, CreateGameInput{Name: "Winter LARP"})
	require.NoError(t, err)

	three, two := 3, 2
	_, err = svc.CreateGroup(ownerCtx, CreateGroupInput{
		GameID: g.ID, Name: "Broken", MinCharacters: &three, MaxCharacters: &two,
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	grp, err := svc.CreateGroup(ownerCtx, CreateGroupInput{
		GameID: g.ID, Name: "Nobles", MinCharacters: &two, MaxCharacters: &three,
	})
	require.NoError(t, err)

	// clearing max while min stays set is fine; bounds are advisory
	updated, err := svc.UpdateGroup(ownerCtx, grp.ID, UpdateGroupInput{ClearMax: true})
	require.NoError(t, err)
	assert.Nil(t, updated.MaxCharacters)
	require.NotNil(t, updated.MinCharacters)
	assert.Equal(t, 2, *updated.MinCharacters)
}

func TestGroupMembership_SameGameOnly(t *testing.T) {
	svc, _ := setupTestService(t)
	owner, ownerCtx := registerUser(t, svc, "owner@larp.example")

	g1, err := svc.CreateGame(ownerCtx, CreateGameInput{Name: "Game One"})
	require.NoError(t, err)
	g2, err := svc.CreateGame(ownerCtx, CreateGameInput{Name: "Game Two"})
	require.NoError(t, err)

	pl, err := svc.CreatePlayer(ownerCtx, CreatePlayerInput{UserID: owner.ID, GameID: g2.ID})
	require.NoError(t, err)
	c, err := svc.CreateCharacter(ownerCtx, CreateCharacterInput{GameID: g2.ID, PlayerID: pl.ID, Name: "Wanderer"})
	require.NoError(t, err)

	grp, err := svc.CreateGroup(ownerCtx, CreateGroupInput{GameID: g1.ID, Name: "Locals"})
	require.NoError(t, err)

	err = svc.AddGroupMember(ownerCtx, grp.ID, c.ID)
	var ierr *InconsistencyError
	require.ErrorAs(t, err, &ierr)
}

func TestPlotLifecycle(t *testing.T) {
	svc, st := setupTestService(t)
	owner, ownerCtx := registerUser(t, svc, "owner@larp.example")
	_, strangerCtx := registerUser(t, svc, "stranger@larp.example")

	g, err := svc.CreateGame(ownerCtx, CreateGameInput{Name: "Winter LARP"})
	require.NoError(t, err)
	pl, err := svc.CreatePlayer(ownerCtx, CreatePlayerInput{UserID: owner.ID, GameID: g.ID})
	require.NoError(t, err)
	c, err := svc.CreateCharacter(ownerCtx, CreateCharacterInput{GameID: g.ID, PlayerID: pl.ID, Name: "Captain Vex"})
	require.NoError(t, err)

	// plot creation needs a GM role somewhere
	_, err = svc.CreatePlot(strangerCtx, CreatePlotInput{Name: "Forbidden"})
	var perr *PermissionDeniedError
	require.ErrorAs(t, err, &perr)

	plot, err := svc.CreatePlot(ownerCtx, CreatePlotInput{Name: "The Heist"})
	require.NoError(t, err)

	require.NoError(t, svc.LinkPlotCharacter(ownerCtx, plot.ID, c.ID))

	gameIDs, err := st.PlotGameIDs(context.Background(), plot.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{g.ID}, gameIDs)

	// anchored now: a stranger cannot touch it
	_, err = svc.UpdatePlot(strangerCtx, plot.ID, UpdatePlotInput{})
	require.ErrorAs(t, err, &perr)

	require.NoError(t, svc.UnlinkPlotCharacter(ownerCtx, plot.ID, c.ID))
	require.NoError(t, svc.DeletePlot(ownerCtx, plot.ID))
}

func TestLinkPlot_SecondGameRejected(t *testing.T) {
	svc, _ := setupTestService(t)
	owner, ownerCtx := registerUser(t, svc, "owner@larp.example")

	g1, err := svc.CreateGame(ownerCtx, CreateGameInput{Name: "Game One"})
	require.NoError(t, err)
	g2, err := svc.CreateGame(ownerCtx, CreateGameInput{Name: "Game Two"})
	require.NoError(t, err)

	pl1, err := svc.CreatePlayer(ownerCtx, CreatePlayerInput{UserID: owner.ID, GameID: g1.ID})
	require.NoError(t, err)
	c1, err := svc.CreateCharacter(ownerCtx, CreateCharacterInput{GameID: g1.ID, PlayerID: pl1.ID, Name: "One"})
	require.NoError(t, err)

	grp2, err := svc.CreateGroup(ownerCtx, CreateGroupInput{GameID: g2.ID, Name: "Other Side"})
	require.NoError(t, err)

	plot, err := svc.CreatePlot(ownerCtx, CreatePlotInput{Name: "Split"})
	require.NoError(t, err)
	require.NoError(t, svc.LinkPlotCharacter(ownerCtx, plot.ID, c1.ID))

	err = svc.LinkPlotGroup(ownerCtx, plot.ID, grp2.ID)
	var ierr *InconsistencyError
	require.ErrorAs(t, err, &ierr)
}

func TestDeleteGame_Cascades(t *testing.T) {
	svc, _ := setupTestService(t)
	owner, ownerCtx := registerUser(t, svc, "owner@larp.example")

	g, err := svc.CreateGame(ownerCtx, CreateGameInput{Name: "Doomed"})
	require.NoError(t, err)
	pl, err := svc.CreatePlayer(ownerCtx, CreatePlayerInput{UserID: owner.ID, GameID: g.ID})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteGame(ownerCtx, g.ID))

	_, err = svc.GetGame(context.Background(), g.ID)
	var nerr *NotFoundError
	require.ErrorAs(t, err, &nerr)
	_, err = svc.GetPlayer(ownerCtx, pl.ID)
	require.ErrorAs(t, err, &nerr)
}

func TestListGames_Pagination(t *testing.T) {
	svc, _ := setupTestService(t)
	_, ctx := registerUser(t, svc, "owner@larp.example")

	for i := 0; i < 5; i++ {
		_, err := svc.CreateGame(ctx, CreateGameInput{Name: "Game"})
		require.NoError(t, err)
	}

	games, info, err := svc.ListGames(context.Background(), Page{Number: 2, Size: 2})
	require.NoError(t, err)
	assert.Len(t, games, 2)
	assert.Equal(t, 5, info.TotalItems)
	assert.Equal(t, 3, info.TotalPages)
	assert.True(t, info.HasNext)
	assert.True(t, info.HasPrevious)
}

func TestListPlayers_ScopedToGame(t *testing.T) {
	svc, _ := setupTestService(t)
	owner, ownerCtx := registerUser(t, svc, "owner@larp.example")
	fellow, fellowCtx := registerUser(t, svc, "fellow@larp.example")
	_, strangerCtx := registerUser(t, svc, "stranger@larp.example")

	g, err := svc.CreateGame(ownerCtx, CreateGameInput{Name: "Winter LARP"})
	require.NoError(t, err)
	_, err = svc.CreatePlayer(ownerCtx, CreatePlayerInput{UserID: owner.ID, GameID: g.ID})
	require.NoError(t, err)
	_, err = svc.CreatePlayer(fellowCtx, CreatePlayerInput{UserID: fellow.ID, GameID: g.ID})
	require.NoError(t, err)

	players, info, err := svc.ListPlayers(fellowCtx, store.PlayerFilter{GameID: &g.ID}, Page{})
	require.NoError(t, err)
	assert.Len(t, players, 2)
	assert.Equal(t, 2, info.TotalItems)

	_, _, err = svc.ListPlayers(strangerCtx, store.PlayerFilter{GameID: &g.ID}, Page{})
	var perr *PermissionDeniedError
	require.ErrorAs(t, err, &perr)
}

func TestListCharacters_PlayerFilterScoped(t *testing.T) {
	svc, _ := setupTestService(t)
	player, playerCtx := registerUser(t, svc, "aria@larp.example")
	_, ownerCtx := registerUser(t, svc, "owner@larp.example")
	_, strangerCtx := registerUser(t, svc, "stranger@larp.example")

	g, err := svc.CreateGame(ownerCtx, CreateGameInput{Name: "Winter LARP"})
	require.NoError(t, err)
	pl, err := svc.CreatePlayer(playerCtx, CreatePlayerInput{UserID: player.ID, GameID: g.ID})
	require.NoError(t, err)
	_, err = svc.CreateCharacter(playerCtx, CreateCharacterInput{GameID: g.ID, PlayerID: pl.ID, Name: "Secret Spy"})
	require.NoError(t, err)

	// filtering by player must be gated exactly like reading the player
	_, _, err = svc.ListCharacters(strangerCtx, store.CharacterFilter{PlayerID: &pl.ID}, Page{})
	var perr *PermissionDeniedError
	require.ErrorAs(t, err, &perr)

	chars, _, err := svc.ListCharacters(playerCtx, store.CharacterFilter{PlayerID: &pl.ID}, Page{})
	require.NoError(t, err)
	assert.Len(t, chars, 1)

	chars, _, err = svc.ListCharacters(ownerCtx, store.CharacterFilter{PlayerID: &pl.ID}, Page{})
	require.NoError(t, err)
	assert.Len(t, chars, 1)

	missing := "no-such-player"
	_, _, err = svc.ListCharacters(ownerCtx, store.CharacterFilter{PlayerID: &missing}, Page{})
	var nerr *NotFoundError
	require.ErrorAs(t, err, &nerr)
}

func TestLinkPlot_RequiresTargetGameRole(t *testing.T) {
	svc, st := setupTestService(t)
	_, gmACtx := registerUser(t, svc, "gm-a@larp.example")
	gmB, gmBCtx := registerUser(t, svc, "gm-b@larp.example")

	_, err := svc.CreateGame(gmACtx, CreateGameInput{Name: "Game A"})
	require.NoError(t, err)
	gB, err := svc.CreateGame(gmBCtx, CreateGameInput{Name: "Game B"})
	require.NoError(t, err)

	plB, err := svc.CreatePlayer(gmBCtx, CreatePlayerInput{UserID: gmB.ID, GameID: gB.ID})
	require.NoError(t, err)
	cB, err := svc.CreateCharacter(gmBCtx, CreateCharacterInput{GameID: gB.ID, PlayerID: plB.ID, Name: "Outsider"})
	require.NoError(t, err)
	grpB, err := svc.CreateGroup(gmBCtx, CreateGroupInput{GameID: gB.ID, Name: "Court"})
	require.NoError(t, err)

	plot, err := svc.CreatePlot(gmACtx, CreatePlotInput{Name: "Land Grab"})
	require.NoError(t, err)

	// linking anchors the plot to the entity's game, so the caller needs a
	// write role there, not just a GM role elsewhere
	var perr *PermissionDeniedError
	err = svc.LinkPlotCharacter(gmACtx, plot.ID, cB.ID)
	require.ErrorAs(t, err, &perr)
	err = svc.LinkPlotGroup(gmACtx, plot.ID, grpB.ID)
	require.ErrorAs(t, err, &perr)

	// the denied links must not have anchored the plot
	gameIDs, err := st.PlotGameIDs(context.Background(), plot.ID)
	require.NoError(t, err)
	assert.Empty(t, gameIDs)

	// the GM of the target game may anchor it
	require.NoError(t, svc.LinkPlotCharacter(gmBCtx, plot.ID, cB.ID))
}

func TestListGMs_Scoped(t *testing.T) {
	svc, _ := setupTestService(t)
	owner, ownerCtx := registerUser(t, svc, "owner@larp.example")
	player, playerCtx := registerUser(t, svc, "aria@larp.example")
	stranger, strangerCtx := registerUser(t, svc, "stranger@larp.example")

	g, err := svc.CreateGame(ownerCtx, CreateGameInput{Name: "Winter LARP"})
	require.NoError(t, err)
	_, err = svc.CreatePlayer(playerCtx, CreatePlayerInput{UserID: player.ID, GameID: g.ID})
	require.NoError(t, err)

	_, _, err = svc.ListGMs(context.Background(), store.GMFilter{}, Page{})
	var uerr *UnauthenticatedError
	require.ErrorAs(t, err, &uerr)

	// unscoped roster needs a GM role somewhere
	var perr *PermissionDeniedError
	_, _, err = svc.ListGMs(strangerCtx, store.GMFilter{}, Page{})
	require.ErrorAs(t, err, &perr)

	// game-scoped roster is for participants of that game
	_, _, err = svc.ListGMs(strangerCtx, store.GMFilter{GameID: &g.ID}, Page{})
	require.ErrorAs(t, err, &perr)

	gms, _, err := svc.ListGMs(playerCtx, store.GMFilter{GameID: &g.ID}, Page{})
	require.NoError(t, err)
	require.Len(t, gms, 1)
	assert.Equal(t, owner.ID, gms[0].UserID)

	// anyone may look up their own grants
	gms, _, err = svc.ListGMs(strangerCtx, store.GMFilter{UserID: &stranger.ID}, Page{})
	require.NoError(t, err)
	assert.Empty(t, gms)

	gms, _, err = svc.ListGMs(ownerCtx, store.GMFilter{}, Page{})
	require.NoError(t, err)
	assert.Len(t, gms, 1)
}
