package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redditgrowth/reddit-manager/pkg/accounts"
	"github.com/redditgrowth/reddit-manager/pkg/client"
	"github.com/redditgrowth/reddit-manager/pkg/secrets"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newTestRouter(t *testing.T) (*chi.Mux, *accounts.InMemAccountsRepository) {
	t.Helper()
	repo := accounts.NewInMemAccountsRepository()
	cipher, err := secrets.NewCipher("test-secret", "test-salt")
	require.NoError(t, err)

	handle := NewHandle(accounts.NewAccountsService(repo, cipher))
	r := chi.NewRouter()
	r.Route("/api/accounts", handle.Routes)
	r.Route("/api/admin", handle.AdminRoutes)
	return r, repo
}

func asUser(r *http.Request, userID uuid.UUID, role string) *http.Request {
	authCtx := client.AuthContext{
		IsAuthenticated: true,
		User: &client.AuthUser{
			UserID:   userID.String(),
			Email:    "user@example.com",
			Role:     role,
			UserUuid: userID,
		},
	}
	return r.WithContext(client.WithAuthContext(r.Context(), authCtx))
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestAdd_Unauthenticated(t *testing.T) {
	router, repo := newTestRouter(t)

	body := `{"redditUsername": "spez", "accessToken": "tok"}`
	req := httptest.NewRequest(http.MethodPost, "/api/accounts", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, "Unauthorized", env.Error)

	listing, err := repo.FindByUser(req.Context(), uuid.Nil)
	require.NoError(t, err)
	assert.Empty(t, listing, "anonymous add must leave the store untouched")
}

func TestAdd(t *testing.T) {
	router, _ := newTestRouter(t)
	userID := uuid.New()

	body := `{"redditUsername": "spez", "accessToken": "tok", "karmaCount": 120}`
	req := httptest.NewRequest(http.MethodPost, "/api/accounts", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, asUser(req, userID, client.RoleUser))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)

	var account AccountResponse
	require.NoError(t, json.Unmarshal(env.Data, &account))
	assert.Equal(t, "spez", account.RedditUsername)
	assert.Equal(t, 120, account.KarmaCount)
	assert.False(t, account.HasPassword)
}

func TestAdd_Duplicate(t *testing.T) {
	router, _ := newTestRouter(t)
	userID := uuid.New()

	body := `{"redditUsername": "spez", "accessToken": "tok"}`
	for i, want := range []int{http.StatusCreated, http.StatusConflict} {
		req := httptest.NewRequest(http.MethodPost, "/api/accounts", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, asUser(req, userID, client.RoleUser))
		assert.Equal(t, want, rec.Code, "request %d", i)
	}
}

func TestAdd_MissingUsername(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/accounts", strings.NewReader(`{"accessToken": "tok"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, asUser(req, uuid.New(), client.RoleUser))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
}

func TestList_OnlyOwnAccounts(t *testing.T) {
	router, _ := newTestRouter(t)
	alice, bob := uuid.New(), uuid.New()

	for user, name := range map[uuid.UUID]string{alice: "alice_reddit", bob: "bob_reddit"} {
		body := `{"redditUsername": "` + name + `", "accessToken": "tok"}`
		req := httptest.NewRequest(http.MethodPost, "/api/accounts", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, asUser(req, user, client.RoleUser))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, asUser(req, alice, client.RoleUser))

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	var listing []AccountResponse
	require.NoError(t, json.Unmarshal(env.Data, &listing))
	require.Len(t, listing, 1)
	assert.Equal(t, "alice_reddit", listing[0].RedditUsername)
}

func TestUpdatePassword_InvalidID(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPut, "/api/accounts/not-a-uuid/password", strings.NewReader(`{"password": "hunter2!"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, asUser(req, uuid.New(), client.RoleUser))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdatePassword_NotOwned(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPut, "/api/accounts/"+uuid.NewString()+"/password", strings.NewReader(`{"password": "hunter2!"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, asUser(req, uuid.New(), client.RoleUser))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "Account not found", env.Error)
}

func TestDelete(t *testing.T) {
	router, _ := newTestRouter(t)
	userID := uuid.New()

	body := `{"redditUsername": "spez", "accessToken": "tok"}`
	req := httptest.NewRequest(http.MethodPost, "/api/accounts", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, asUser(req, userID, client.RoleUser))
	require.Equal(t, http.StatusCreated, rec.Code)

	env := decodeEnvelope(t, rec)
	var account AccountResponse
	require.NoError(t, json.Unmarshal(env.Data, &account))

	req = httptest.NewRequest(http.MethodDelete, "/api/accounts/"+account.ID, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, asUser(req, userID, client.RoleUser))
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, asUser(req, userID, client.RoleUser))
	listing := decodeEnvelope(t, rec)
	assert.JSONEq(t, `[]`, string(listing.Data))
}

func TestUsersOverview_RequiresAdmin(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, asUser(req, uuid.New(), client.RoleUser))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUsersOverview(t *testing.T) {
	router, repo := newTestRouter(t)
	userID := uuid.New()
	repo.RegisterUser(userID, "owner@example.com", "Olive", "Owner")

	body := `{"redditUsername": "spez", "accessToken": "tok", "karmaCount": 42}`
	req := httptest.NewRequest(http.MethodPost, "/api/accounts", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, asUser(req, userID, client.RoleUser))
	require.Equal(t, http.StatusCreated, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, asUser(req, uuid.New(), client.RoleAdmin))

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	var overviews []accounts.UserOverview
	require.NoError(t, json.Unmarshal(env.Data, &overviews))
	require.Len(t, overviews, 1)
	assert.Equal(t, "owner@example.com", overviews[0].Email)
	require.Len(t, overviews[0].Accounts, 1)
	assert.Equal(t, 42, overviews[0].Accounts[0].KarmaCount)
}
