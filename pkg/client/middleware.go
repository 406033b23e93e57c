package client

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/jwtauth/v5"
)

// TokenFromAccessCookie extracts the token from the access_token cookie.
func TokenFromAccessCookie(r *http.Request) string {
	cookie, err := r.Cookie("access_token")
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Verifier verifies tokens found in the Authorization header or the
// access_token cookie. Verification failures do not reject the request;
// downstream middlewares decide what an anonymous caller may do.
func Verifier(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return jwtauth.Verify(ja, jwtauth.TokenFromHeader, TokenFromAccessCookie)
}

// RequireAuth is an authorization middleware that requires valid
// authentication. Returns 401 Unauthorized if the request is not
// authenticated. Must be used after AuthContextMiddleware.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authCtx := GetAuthContext(r)

		if !authCtx.IsAuthenticated {
			slog.Debug("Unauthenticated request to protected resource", "path", r.URL.Path)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireRole returns a middleware that checks if the authenticated user
// has any of the specified roles.
// Returns 401 Unauthorized if not authenticated.
// Returns 403 Forbidden if authenticated but missing required role.
// Must be used after AuthContextMiddleware.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx := GetAuthContext(r)

			if !authCtx.IsAuthenticated {
				slog.Debug("Unauthenticated request to role-protected resource", "requiredRoles", roles)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			hasRole := false
			for _, role := range roles {
				if authCtx.User.Role == role {
					hasRole = true
					break
				}
			}
			if !hasRole {
				slog.Warn("User lacks required role",
					"userId", authCtx.User.UserID,
					"userRole", authCtx.User.Role,
					"requiredRoles", roles)
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
