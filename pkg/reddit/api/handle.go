// Package api exposes the Reddit OAuth flow and the public subreddit
// lookups. The auth-url endpoint plants a state cookie and the callback
// refuses to exchange a code unless the returned state matches it.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ggicci/httpin"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/redditgrowth/reddit-manager/pkg/accounts"
	"github.com/redditgrowth/reddit-manager/pkg/client"
	"github.com/redditgrowth/reddit-manager/pkg/common"
	"github.com/redditgrowth/reddit-manager/pkg/reddit"
)

const (
	stateCookieName = "reddit_oauth_state"
	stateCookieTTL  = 10 * time.Minute
)

type Handle struct {
	redditClient    *reddit.Client
	accountsService *accounts.AccountsService
	secureCookies   bool
}

type Option func(*Handle)

// WithSecureCookies controls the Secure attribute on the state cookie.
// Disabled in local development over plain HTTP.
func WithSecureCookies(secure bool) Option {
	return func(h *Handle) {
		h.secureCookies = secure
	}
}

func NewHandle(redditClient *reddit.Client, accountsService *accounts.AccountsService, opts ...Option) *Handle {
	h := &Handle{
		redditClient:    redditClient,
		accountsService: accountsService,
		secureCookies:   true,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes mounts the Reddit endpoints on the given router.
func (h *Handle) Routes(r chi.Router) {
	r.Post("/auth-url", h.AuthURL)
	r.Get("/callback", h.Callback)
	r.Post("/token", h.Token)
	r.With(httpin.NewInput(SearchInput{})).Get("/subreddits/search", h.SearchSubreddits)
	r.With(httpin.NewInput(InfoInput{})).Get("/subreddits/info", h.SubredditInfo)
}

type AuthURLRequest struct {
	State string `json:"state"`
}

type TokenRequest struct {
	Code string `json:"code"`
}

type SearchInput struct {
	Query string `in:"query=q"`
}

type InfoInput struct {
	Name string `in:"query=name"`
}

// AuthURL builds the Reddit authorization URL for the given state and
// plants the state cookie the callback later verifies.
// (POST /api/reddit/auth-url)
func (h *Handle) AuthURL(w http.ResponseWriter, r *http.Request) {
	var req AuthURLRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		common.RespondError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.State == "" {
		common.RespondError(w, r, http.StatusBadRequest, "State parameter is required")
		return
	}

	authURL, err := h.redditClient.BuildAuthURL(req.State)
	if err != nil {
		respondRedditError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    req.State,
		Path:     "/",
		MaxAge:   int(stateCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})

	common.RespondData(w, r, http.StatusOK, map[string]string{"url": authURL})
}

// Callback completes the OAuth flow: it verifies the returned state
// against the cookie, exchanges the code, fetches the Reddit identity and
// links the account for the session user.
// (GET /api/reddit/callback)
func (h *Handle) Callback(w http.ResponseWriter, r *http.Request) {
	authCtx := client.GetAuthContext(r)
	if !authCtx.IsAuthenticated {
		common.RespondError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	query := r.URL.Query()
	code, state := query.Get("code"), query.Get("state")
	if code == "" {
		common.RespondError(w, r, http.StatusBadRequest, "Code parameter is required")
		return
	}

	cookie, err := r.Cookie(stateCookieName)
	if err != nil || state == "" || cookie.Value != state {
		slog.Warn("OAuth state mismatch on callback", "user", authCtx.User)
		common.RespondError(w, r, http.StatusBadRequest, "Invalid state parameter")
		return
	}
	clearStateCookie(w, h.secureCookies)

	tokens, err := h.redditClient.ExchangeCode(r.Context(), code)
	if err != nil {
		respondRedditError(w, r, err)
		return
	}

	identity, err := h.redditClient.Identity(r.Context(), tokens.AccessToken)
	if err != nil {
		respondRedditError(w, r, err)
		return
	}

	account, err := h.accountsService.Add(r.Context(), authCtx.User.UserUuid, accounts.AddAccountParams{
		RedditUsername: identity.Name,
		AccessToken:    tokens.AccessToken,
		RefreshToken:   tokens.RefreshToken,
		ExpiresIn:      tokens.ExpiresIn,
		KarmaCount:     identity.TotalKarma,
	})
	if err != nil {
		var duplicate accounts.ErrDuplicateAccount
		if errors.As(err, &duplicate) {
			common.RespondError(w, r, http.StatusConflict, "This Reddit account has already been added")
			return
		}
		slog.Error("Failed to link Reddit account", "err", err, "user", authCtx.User)
		common.RespondError(w, r, http.StatusInternalServerError, "Failed to link Reddit account")
		return
	}

	h.accountsService.NotifyLinked(authCtx.User.Email, identity.Name)
	common.RespondData(w, r, http.StatusCreated, account)
}

// Token exchanges an authorization code for tokens without linking an
// account. Failures keep the upstream code and description.
// (POST /api/reddit/token)
func (h *Handle) Token(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		common.RespondError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Code == "" {
		common.RespondError(w, r, http.StatusBadRequest, "Code parameter is required")
		return
	}

	tokens, err := h.redditClient.ExchangeCode(r.Context(), req.Code)
	if err != nil {
		respondRedditError(w, r, err)
		return
	}
	common.RespondData(w, r, http.StatusOK, tokens)
}

// SearchSubreddits proxies the public subreddit search.
// (GET /api/reddit/subreddits/search?q=)
func (h *Handle) SearchSubreddits(w http.ResponseWriter, r *http.Request) {
	input := r.Context().Value(httpin.Input).(*SearchInput)
	if input.Query == "" {
		common.RespondError(w, r, http.StatusBadRequest, "Query parameter is required")
		return
	}

	subreddits, err := h.redditClient.SearchSubreddits(r.Context(), input.Query)
	if err != nil {
		respondRedditError(w, r, err)
		return
	}
	common.RespondData(w, r, http.StatusOK, subreddits)
}

// SubredditInfo proxies the public subreddit about endpoint.
// (GET /api/reddit/subreddits/info?name=)
func (h *Handle) SubredditInfo(w http.ResponseWriter, r *http.Request) {
	input := r.Context().Value(httpin.Input).(*InfoInput)
	if input.Name == "" {
		common.RespondError(w, r, http.StatusBadRequest, "Name parameter is required")
		return
	}

	subreddit, err := h.redditClient.AboutSubreddit(r.Context(), input.Name)
	if err != nil {
		respondRedditError(w, r, err)
		return
	}
	common.RespondData(w, r, http.StatusOK, subreddit)
}

func clearStateCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// respondRedditError maps the reddit client's error classes onto HTTP
// answers. Upstream failures keep the provider's code and description;
// everything unexpected collapses to a generic 500 with details logged.
func respondRedditError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		config   reddit.ConfigError
		exchange reddit.ExchangeError
		protocol reddit.ProtocolError
		parse    reddit.ParseError
		invalid  reddit.InvalidResponseError
		upstream reddit.UpstreamError
	)
	switch {
	case errors.As(err, &config):
		slog.Error("Reddit client is not configured", "err", err)
		common.RespondError(w, r, http.StatusInternalServerError, "Reddit integration is not configured")
	case errors.As(err, &exchange):
		common.RespondError(w, r, upstreamStatus(exchange.StatusCode), exchange.Error())
	case errors.As(err, &protocol):
		common.RespondError(w, r, http.StatusBadGateway, "Reddit returned an unexpected response")
	case errors.As(err, &parse):
		common.RespondError(w, r, http.StatusBadGateway, "Failed to parse Reddit response")
	case errors.As(err, &invalid):
		common.RespondError(w, r, http.StatusBadGateway, "Reddit response was missing required fields")
	case errors.As(err, &upstream):
		common.RespondError(w, r, upstreamStatus(upstream.StatusCode), "Reddit request failed")
	default:
		slog.Error("Reddit request failed", "err", err)
		common.RespondError(w, r, http.StatusInternalServerError, "Something went wrong")
	}
}

// upstreamStatus propagates 4xx/5xx upstream codes and folds anything
// else into 502.
func upstreamStatus(code int) int {
	if code >= 400 && code < 600 {
		return code
	}
	return http.StatusBadGateway
}
