// ABOUTME: HTTP API tests driving the full stack through the router
// ABOUTME: Requests go through the real auth middleware with minted tokens

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larpforge/larpd/internal/auth"
	"github.com/larpforge/larpd/internal/rules"
	"github.com/larpforge/larpd/internal/service"
	"github.com/larpforge/larpd/internal/store"
)

var testSecret = []byte("larpd-api-test-secret-32-bytes!!")

func setupTestAPI(t *testing.T) http.Handler {
	t.Helper()

	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	verifier := auth.NewJWTVerifier(testSecret)
	svc := service.New(st, rules.NewAuthorizer(st), verifier, time.Hour)
	return NewServer(svc, st, verifier).Handler()
}

// do runs one request against the handler and decodes the JSON response
func do(t *testing.T, h http.Handler, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

// register creates an account via the API and returns its ID and token
func register(t *testing.T, h http.Handler, email string) (id, token string) {
	t.Helper()

	rec, body := do(t, h, "POST", "/auth/register", "", map[string]any{
		"email": email, "password": "opensesame", "name": "Test User",
	})
	require.Equal(t, http.StatusCreated, rec.Code, "register: %v", body)
	id = body["id"].(string)

	rec, body = do(t, h, "POST", "/auth/login", "", map[string]any{
		"email": email, "password": "opensesame",
	})
	require.Equal(t, http.StatusOK, rec.Code, "login: %v", body)
	token = body["token"].(string)
	return id, token
}

func createGame(t *testing.T, h http.Handler, token, name string) string {
	t.Helper()
	rec, body := do(t, h, "POST", "/games", token, map[string]any{"name": name})
	require.Equal(t, http.StatusCreated, rec.Code, "create game: %v", body)
	return body["id"].(string)
}

func TestHealth(t *testing.T) {
	h := setupTestAPI(t)
	rec, body := do(t, h, "GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestRegisterAndLogin(t *testing.T) {
	h := setupTestAPI(t)
	_, token := register(t, h, "aria@larp.example")
	assert.NotEmpty(t, token)

	// registration response must not leak the password hash
	rec, body := do(t, h, "POST", "/auth/register", "", map[string]any{
		"email": "vex@larp.example", "password": "opensesame", "name": "Vex",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	_, ok := body["password_hash"]
	assert.False(t, ok)
	_, ok = body["PasswordHash"]
	assert.False(t, ok)
}

func TestRegister_DuplicateConflict(t *testing.T) {
	h := setupTestAPI(t)
	register(t, h, "dup@larp.example")

	rec, body := do(t, h, "POST", "/auth/register", "", map[string]any{
		"email": "dup@larp.example", "password": "opensesame", "name": "Other",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", body["kind"])
}

func TestLogin_WrongPassword(t *testing.T) {
	h := setupTestAPI(t)
	register(t, h, "aria@larp.example")

	rec, body := do(t, h, "POST", "/auth/login", "", map[string]any{
		"email": "aria@larp.example", "password": "nope",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", body["kind"])
}

func TestGameRoutes(t *testing.T) {
	h := setupTestAPI(t)
	_, owner := register(t, h, "owner@larp.example")
	_, stranger := register(t, h, "stranger@larp.example")

	// anonymous creation is 401
	rec, body := do(t, h, "POST", "/games", "", map[string]any{"name": "Ghost"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthenticated", body["kind"])

	gameID := createGame(t, h, owner, "Winter LARP")

	// metadata is publicly readable
	rec, body = do(t, h, "GET", "/games/"+gameID, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Winter LARP", body["name"])

	// stranger write is 403
	rec, body = do(t, h, "PATCH", "/games/"+gameID, stranger, map[string]any{"name": "Hijack"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "permission_denied", body["kind"])

	// owner write works
	rec, body = do(t, h, "PATCH", "/games/"+gameID, owner, map[string]any{"name": "Winter LARP II"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Winter LARP II", body["name"])

	// unknown id is 404
	rec, body = do(t, h, "GET", "/games/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", body["kind"])
}

func TestGamesList_Pagination(t *testing.T) {
	h := setupTestAPI(t)
	_, owner := register(t, h, "owner@larp.example")
	for i := 0; i < 5; i++ {
		createGame(t, h, owner, fmt.Sprintf("Game %d", i))
	}

	rec, body := do(t, h, "GET", "/games?page=2&size=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	items := body["items"].([]any)
	assert.Len(t, items, 2)
	page := body["page"].(map[string]any)
	assert.Equal(t, float64(5), page["total_items"])
	assert.Equal(t, float64(3), page["total_pages"])
	assert.Equal(t, true, page["has_next"])
	assert.Equal(t, true, page["has_previous"])
}

func TestUnknownFieldRejected(t *testing.T) {
	h := setupTestAPI(t)
	_, owner := register(t, h, "owner@larp.example")

	rec, body := do(t, h, "POST", "/games", owner, map[string]any{
		"name": "X", "surprise": true,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", body["kind"])
}

func TestCharacterDetailRoute(t *testing.T) {
	h := setupTestAPI(t)
	ownerID, owner := register(t, h, "owner@larp.example")
	gameID := createGame(t, h, owner, "Winter LARP")

	rec, body := do(t, h, "POST", "/players", owner, map[string]any{
		"user_id": ownerID, "game_id": gameID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, "%v", body)
	playerID := body["id"].(string)

	rec, body = do(t, h, "POST", "/characters", owner, map[string]any{
		"game_id": gameID, "player_id": playerID,
		"name": "Captain Vex", "description": "A **retired** privateer.",
	})
	require.Equal(t, http.StatusCreated, rec.Code, "%v", body)
	charID := body["id"].(string)

	rec, body = do(t, h, "GET", "/characters/"+charID+"/detail", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code, "%v", body)
	assert.Equal(t, "Captain Vex", body["character"].(map[string]any)["name"])
	assert.Equal(t, "owner@larp.example", body["user"].(map[string]any)["email"])
	assert.Contains(t, body["description_html"], "<strong>retired</strong>")
}

func TestGroupMembershipRoutes(t *testing.T) {
	h := setupTestAPI(t)
	ownerID, owner := register(t, h, "owner@larp.example")
	gameID := createGame(t, h, owner, "Winter LARP")

	_, body := do(t, h, "POST", "/players", owner, map[string]any{
		"user_id": ownerID, "game_id": gameID,
	})
	playerID := body["id"].(string)
	_, body = do(t, h, "POST", "/characters", owner, map[string]any{
		"game_id": gameID, "player_id": playerID, "name": "Vex",
	})
	charID := body["id"].(string)

	rec, body := do(t, h, "POST", "/groups", owner, map[string]any{
		"game_id": gameID, "name": "Nobles", "min_characters": 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code, "%v", body)
	groupID := body["id"].(string)

	rec, _ = do(t, h, "PUT", "/groups/"+groupID+"/members/"+charID, owner, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// idempotent re-add
	rec, _ = do(t, h, "PUT", "/groups/"+groupID+"/members/"+charID, owner, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, body = do(t, h, "GET", "/groups/"+groupID+"/detail", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["under_min"])
	assert.Len(t, body["member_ids"].([]any), 1)

	rec, _ = do(t, h, "DELETE", "/groups/"+groupID+"/members/"+charID, owner, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestPlotLinkRoutes(t *testing.T) {
	h := setupTestAPI(t)
	ownerID, owner := register(t, h, "owner@larp.example")
	g1 := createGame(t, h, owner, "Game One")
	g2 := createGame(t, h, owner, "Game Two")

	_, body := do(t, h, "POST", "/players", owner, map[string]any{
		"user_id": ownerID, "game_id": g1,
	})
	playerID := body["id"].(string)
	_, body = do(t, h, "POST", "/characters", owner, map[string]any{
		"game_id": g1, "player_id": playerID, "name": "Vex",
	})
	charID := body["id"].(string)
	_, body = do(t, h, "POST", "/groups", owner, map[string]any{
		"game_id": g2, "name": "Other Side",
	})
	otherGroupID := body["id"].(string)

	rec, body := do(t, h, "POST", "/plots", owner, map[string]any{"name": "The Heist"})
	require.Equal(t, http.StatusCreated, rec.Code, "%v", body)
	plotID := body["id"].(string)

	rec, _ = do(t, h, "PUT", "/plots/"+plotID+"/characters/"+charID, owner, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// linking into a second game is a 409 inconsistency
	rec, body = do(t, h, "PUT", "/plots/"+plotID+"/groups/"+otherGroupID, owner, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "inconsistency", body["kind"])

	rec, body = do(t, h, "GET", "/plots/"+plotID+"/detail", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{charID}, body["character_ids"])
	assert.Len(t, body["game_ids"].([]any), 1)
}

func TestInvalidTokenIsAnonymous(t *testing.T) {
	h := setupTestAPI(t)
	_, owner := register(t, h, "owner@larp.example")
	gameID := createGame(t, h, owner, "Winter LARP")

	// a garbage token still reads public data
	rec, _ := do(t, h, "GET", "/games/"+gameID, "garbage", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// but cannot write
	rec, _ = do(t, h, "PATCH", "/games/"+gameID, "garbage", map[string]any{"name": "X"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
