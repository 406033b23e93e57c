// Package api exposes registration and credentials login over HTTP. A
// successful login sets the access_token and refresh_token cookies the
// rest of the service authenticates with.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/redditgrowth/reddit-manager/pkg/auth"
	"github.com/redditgrowth/reddit-manager/pkg/common"
	"github.com/redditgrowth/reddit-manager/pkg/iam"
)

type Handle struct {
	usersService *iam.UsersService
	jwtService   *auth.Jwt
	cookieSetter auth.CookieSetter
}

func NewHandle(usersService *iam.UsersService, jwtService *auth.Jwt, cookieSetter auth.CookieSetter) *Handle {
	return &Handle{
		usersService: usersService,
		jwtService:   jwtService,
		cookieSetter: cookieSetter,
	}
}

// Routes mounts the auth endpoints on the given router.
func (h *Handle) Routes(r chi.Router) {
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
}

type RegisterRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Password  string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Role      string `json:"role"`
}

// Register creates a user account.
// (POST /api/auth/register)
func (h *Handle) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		common.RespondError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.usersService.Register(r.Context(), iam.RegisterParams{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		var taken iam.ErrEmailTaken
		var complexity iam.ErrPasswordComplexity
		var validation iam.ErrValidation
		switch {
		case errors.As(err, &taken):
			common.RespondError(w, r, http.StatusConflict, "Email is already registered")
		case errors.As(err, &complexity):
			common.RespondError(w, r, http.StatusBadRequest, complexity.Error())
		case errors.As(err, &validation):
			common.RespondError(w, r, http.StatusBadRequest, validation.Error())
		default:
			slog.Error("Failed to register user", "err", err)
			common.RespondError(w, r, http.StatusInternalServerError, "Failed to register user")
		}
		return
	}

	common.RespondData(w, r, http.StatusCreated, toUserResponse(user))
}

// Login checks credentials and sets the token cookies.
// (POST /api/auth/login)
func (h *Handle) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		common.RespondError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		common.RespondError(w, r, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.usersService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		var invalid iam.ErrInvalidCredentials
		if errors.As(err, &invalid) {
			common.RespondError(w, r, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		slog.Error("Failed to authenticate user", "err", err)
		common.RespondError(w, r, http.StatusInternalServerError, "Failed to sign in")
		return
	}

	tokens, err := h.jwtService.CreateTokenPair(auth.SessionClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
	if err != nil {
		slog.Error("Failed to create token pair", "err", err)
		common.RespondError(w, r, http.StatusInternalServerError, "Failed to sign in")
		return
	}

	if err := h.cookieSetter.SetCookie(w, auth.AccessTokenName, tokens.AccessToken.Token, tokens.AccessToken.Expiry); err != nil {
		slog.Error("Failed to set access token cookie", "err", err)
	}
	if err := h.cookieSetter.SetCookie(w, auth.RefreshTokenName, tokens.RefreshToken.Token, tokens.RefreshToken.Expiry); err != nil {
		slog.Error("Failed to set refresh token cookie", "err", err)
	}

	common.RespondData(w, r, http.StatusOK, toUserResponse(user))
}

// Logout clears the token cookies.
// (POST /api/auth/logout)
func (h *Handle) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.cookieSetter.ClearCookie(w, auth.AccessTokenName); err != nil {
		slog.Error("Failed to clear access token cookie", "err", err)
	}
	if err := h.cookieSetter.ClearCookie(w, auth.RefreshTokenName); err != nil {
		slog.Error("Failed to clear refresh token cookie", "err", err)
	}
	common.RespondData(w, r, http.StatusOK, map[string]string{"message": "Signed out"})
}

func toUserResponse(user iam.UserModel) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
	}
}
