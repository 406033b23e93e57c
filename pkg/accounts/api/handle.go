// Package api exposes the linked-account endpoints. The caller's identity
// comes from the request's auth context; anonymous callers get the uniform
// `{success:false, error:"Unauthorized"}` answer and no side effects.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ggicci/httpin"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"

	"github.com/redditgrowth/reddit-manager/pkg/accounts"
	"github.com/redditgrowth/reddit-manager/pkg/client"
	"github.com/redditgrowth/reddit-manager/pkg/common"
)

type Handle struct {
	accountsService *accounts.AccountsService
}

func NewHandle(accountsService *accounts.AccountsService) *Handle {
	return &Handle{accountsService: accountsService}
}

// Routes mounts the account endpoints on the given router.
func (h *Handle) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.With(httpin.NewInput(AddAccountInput{})).Post("/", h.Add)
	r.With(httpin.NewInput(UpdatePasswordInput{})).Put("/{accountID}/password", h.UpdatePassword)
	r.Delete("/{accountID}", h.Delete)
	r.Post("/{accountID}/karma/refresh", h.RefreshKarma)
}

// AdminRoutes mounts the admin analytics endpoints.
func (h *Handle) AdminRoutes(r chi.Router) {
	r.Get("/users", h.UsersOverview)
}

type AddAccountParams struct {
	RedditUsername string `json:"redditUsername"`
	AccessToken    string `json:"accessToken"`
	RefreshToken   string `json:"refreshToken"`
	ExpiresIn      int    `json:"expiresIn"`
	KarmaCount     int    `json:"karmaCount"`
}

type AddAccountInput struct {
	Payload *AddAccountParams `in:"body=json"`
}

type UpdatePasswordParams struct {
	Password string `json:"password"`
}

type UpdatePasswordInput struct {
	Payload *UpdatePasswordParams `in:"body=json"`
}

// AccountResponse is the public view of a linked account. Tokens and the
// account password are never part of it.
type AccountResponse struct {
	ID             string `json:"id"`
	RedditUsername string `json:"redditUsername"`
	KarmaCount     int    `json:"karmaCount"`
	HasPassword    bool   `json:"hasPassword"`
	TokenExpires   string `json:"tokenExpires"`
	CreatedAt      string `json:"createdAt"`
}

// List returns the caller's accounts, newest first.
// (GET /api/accounts)
func (h *Handle) List(w http.ResponseWriter, r *http.Request) {
	models, err := h.accountsService.List(r.Context(), callerID(r))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	common.RespondData(w, r, http.StatusOK, toAccountResponses(models))
}

// Add links a new Reddit account for the caller.
// (POST /api/accounts)
func (h *Handle) Add(w http.ResponseWriter, r *http.Request) {
	input := r.Context().Value(httpin.Input).(*AddAccountInput)

	params := accounts.AddAccountParams{}
	copier.Copy(&params, input.Payload)

	model, err := h.accountsService.Add(r.Context(), callerID(r), params)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	common.RespondData(w, r, http.StatusCreated, toAccountResponse(model))
}

// UpdatePassword stores the account's own password.
// (PUT /api/accounts/{accountID}/password)
func (h *Handle) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		common.RespondError(w, r, http.StatusBadRequest, "Invalid account id")
		return
	}
	input := r.Context().Value(httpin.Input).(*UpdatePasswordInput)

	err = h.accountsService.UpdatePassword(r.Context(), callerID(r), accountID, input.Payload.Password)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	common.RespondData(w, r, http.StatusOK, map[string]string{"message": "Password updated"})
}

// Delete unlinks an account.
// (DELETE /api/accounts/{accountID})
func (h *Handle) Delete(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		common.RespondError(w, r, http.StatusBadRequest, "Invalid account id")
		return
	}

	if err := h.accountsService.Delete(r.Context(), callerID(r), accountID); err != nil {
		respondServiceError(w, r, err)
		return
	}
	common.RespondData(w, r, http.StatusOK, map[string]string{"message": "Account removed"})
}

// RefreshKarma refetches the account's karma from Reddit.
// (POST /api/accounts/{accountID}/karma/refresh)
func (h *Handle) RefreshKarma(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		common.RespondError(w, r, http.StatusBadRequest, "Invalid account id")
		return
	}

	model, err := h.accountsService.RefreshKarma(r.Context(), callerID(r), accountID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	common.RespondData(w, r, http.StatusOK, toAccountResponse(model))
}

// UsersOverview returns every user owning at least one account, accounts
// ordered by karma descending. Admin only.
// (GET /api/admin/users)
func (h *Handle) UsersOverview(w http.ResponseWriter, r *http.Request) {
	authCtx := client.GetAuthContext(r)
	if !authCtx.IsAuthenticated {
		common.RespondError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if !authCtx.User.IsAdmin() {
		common.RespondError(w, r, http.StatusForbidden, "Forbidden")
		return
	}

	overviews, err := h.accountsService.UsersOverview(r.Context())
	if err != nil {
		slog.Error("Failed to build users overview", "err", err)
		common.RespondError(w, r, http.StatusInternalServerError, "Failed to load users")
		return
	}
	common.RespondData(w, r, http.StatusOK, overviews)
}

// callerID resolves the caller's user id; uuid.Nil marks an anonymous
// request and lets the service answer with its unauthorized error.
func callerID(r *http.Request) uuid.UUID {
	authCtx := client.GetAuthContext(r)
	if !authCtx.IsAuthenticated {
		return uuid.Nil
	}
	return authCtx.User.UserUuid
}

func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		unauthorized accounts.ErrUnauthorized
		validation   accounts.ErrValidation
		duplicate    accounts.ErrDuplicateAccount
		notFound     accounts.ErrAccountNotFound
	)
	switch {
	case errors.As(err, &unauthorized):
		common.RespondError(w, r, http.StatusUnauthorized, "Unauthorized")
	case errors.As(err, &validation):
		common.RespondError(w, r, http.StatusBadRequest, validation.Details)
	case errors.As(err, &duplicate):
		common.RespondError(w, r, http.StatusConflict, "This Reddit account has already been added")
	case errors.As(err, &notFound):
		common.RespondError(w, r, http.StatusNotFound, "Account not found")
	default:
		slog.Error("Account operation failed", "err", err)
		common.RespondError(w, r, http.StatusInternalServerError, "Something went wrong")
	}
}

func toAccountResponse(model accounts.AccountModel) AccountResponse {
	resp := AccountResponse{}
	copier.Copy(&resp, &model)
	resp.TokenExpires = model.TokenExpires.UTC().Format(time.RFC3339)
	resp.CreatedAt = model.CreatedAt.UTC().Format(time.RFC3339)
	return resp
}

func toAccountResponses(models []accounts.AccountModel) []AccountResponse {
	responses := make([]AccountResponse, len(models))
	for i, model := range models {
		responses[i] = toAccountResponse(model)
	}
	return responses
}
