package client

import (
	"net/http"
	"net/url"
	"strings"
)

// RouteConfig declares which browser paths are public, which belong to the
// login/register flow, and which require the admin role.
type RouteConfig struct {
	// PublicRoutes is the explicit allow-list of unauthenticated paths.
	PublicRoutes []string
	// AuthRoutes are the login/register pages. Authenticated users are
	// bounced to DefaultRedirect instead of seeing them again.
	AuthRoutes []string
	// AdminPrefixes are path prefixes that additionally require the admin
	// role.
	AdminPrefixes []string
	// APIAuthPrefix marks the auth API, which always bypasses the gate.
	APIAuthPrefix string
	// LoginPath receives unauthenticated requests, with the original path
	// preserved in the callbackUrl query parameter.
	LoginPath string
	// DefaultRedirect is the landing route after login.
	DefaultRedirect string
	// UnauthorizedPath receives authenticated non-admins hitting admin
	// paths.
	UnauthorizedPath string
}

// DefaultRouteConfig mirrors the application's page layout.
func DefaultRouteConfig() RouteConfig {
	return RouteConfig{
		PublicRoutes:     []string{"/", "/unauthorized"},
		AuthRoutes:       []string{"/auth/login", "/auth/register"},
		AdminPrefixes:    []string{"/admin", "/reddit-analytics"},
		APIAuthPrefix:    "/api/auth",
		LoginPath:        "/auth/login",
		DefaultRedirect:  "/",
		UnauthorizedPath: "/unauthorized",
	}
}

func (c RouteConfig) isPublic(path string) bool {
	for _, route := range c.PublicRoutes {
		if path == route {
			return true
		}
	}
	return false
}

func (c RouteConfig) isAuthRoute(path string) bool {
	for _, route := range c.AuthRoutes {
		if path == route {
			return true
		}
	}
	return false
}

func (c RouteConfig) isAdminRoute(path string) bool {
	for _, prefix := range c.AdminPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// RouteGate enforces the browser-facing access rules. It is a pure
// request-time decision function: every outcome is either pass-through or a
// redirect, never a mutation.
//
// Rules, in order:
//   - the auth API prefix always passes through,
//   - auth routes bounce already-authenticated users to the landing route,
//   - all other non-public paths require authentication; anonymous
//     requests are redirected to the login page with the original path in
//     callbackUrl,
//   - admin-prefixed paths additionally require the admin role; authenticated
//     non-admins are redirected to the unauthorized page.
//
// Must be used after AuthContextMiddleware.
func RouteGate(config RouteConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			authCtx := GetAuthContext(r)

			if config.APIAuthPrefix != "" && strings.HasPrefix(path, config.APIAuthPrefix) {
				next.ServeHTTP(w, r)
				return
			}

			if config.isAuthRoute(path) {
				if authCtx.IsAuthenticated {
					http.Redirect(w, r, config.DefaultRedirect, http.StatusFound)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if !authCtx.IsAuthenticated && !config.isPublic(path) {
				loginURL := config.LoginPath + "?callbackUrl=" + url.QueryEscape(path)
				http.Redirect(w, r, loginURL, http.StatusFound)
				return
			}

			if config.isAdminRoute(path) {
				if !authCtx.IsAuthenticated || !authCtx.User.IsAdmin() {
					http.Redirect(w, r, config.UnauthorizedPath, http.StatusFound)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
