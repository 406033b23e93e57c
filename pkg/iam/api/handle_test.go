package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redditgrowth/reddit-manager/pkg/auth"
	"github.com/redditgrowth/reddit-manager/pkg/iam"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()
	usersService := iam.NewUsersService(iam.NewInMemUsersRepository())
	jwtService := auth.NewJwt("test-secret")
	handle := NewHandle(usersService, jwtService, auth.NewCookieSetter(true, false))

	r := chi.NewRouter()
	r.Route("/api/auth", handle.Routes)
	return r
}

func postJSON(t *testing.T, router http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

const registerBody = `{"email": "jane@example.com", "firstName": "Jane", "password": "correct horse battery staple"}`

func TestRegister(t *testing.T) {
	router := newTestRouter(t)

	rec := postJSON(t, router, "/api/auth/register", registerBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var user UserResponse
	require.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Equal(t, "jane@example.com", user.Email)
	assert.Equal(t, "user", user.Role)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	router := newTestRouter(t)

	require.Equal(t, http.StatusCreated, postJSON(t, router, "/api/auth/register", registerBody).Code)
	assert.Equal(t, http.StatusConflict, postJSON(t, router, "/api/auth/register", registerBody).Code)
}

func TestLogin_SetsTokenCookies(t *testing.T) {
	router := newTestRouter(t)
	require.Equal(t, http.StatusCreated, postJSON(t, router, "/api/auth/register", registerBody).Code)

	rec := postJSON(t, router, "/api/auth/login", `{"email": "jane@example.com", "password": "correct horse battery staple"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	names := map[string]bool{}
	for _, cookie := range rec.Result().Cookies() {
		names[cookie.Name] = true
		assert.True(t, cookie.HttpOnly, "%s must be HttpOnly", cookie.Name)
		assert.NotEmpty(t, cookie.Value)
	}
	assert.True(t, names[auth.AccessTokenName])
	assert.True(t, names[auth.RefreshTokenName])
}

func TestLogin_WrongPassword(t *testing.T) {
	router := newTestRouter(t)
	require.Equal(t, http.StatusCreated, postJSON(t, router, "/api/auth/register", registerBody).Code)

	rec := postJSON(t, router, "/api/auth/login", `{"email": "jane@example.com", "password": "nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "Invalid email or password", env.Error)
	assert.Empty(t, rec.Result().Cookies(), "failed logins must not set cookies")
}

func TestLogout_ClearsCookies(t *testing.T) {
	router := newTestRouter(t)

	rec := postJSON(t, router, "/api/auth/logout", ``)
	require.Equal(t, http.StatusOK, rec.Code)

	for _, cookie := range rec.Result().Cookies() {
		assert.Less(t, cookie.MaxAge, 0, "%s must be expired", cookie.Name)
	}
	assert.Len(t, rec.Result().Cookies(), 2)
}
