package client

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
)

// Role names used across the service.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// AuthUser is the per-request authenticated identity resolved at the
// boundary and passed into every service call.
type AuthUser struct {
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
	// UserID parsed as a uuid.UUID, convenient for repository calls.
	UserUuid uuid.UUID `json:"-"`
}

func (u AuthUser) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("user", u.UserID),
		slog.String("role", u.Role),
	)
}

// IsAdmin reports whether the user carries the admin role.
func (u AuthUser) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// AuthContext is the outcome of the authentication middleware for one
// request. A request is either authenticated with a user or anonymous.
type AuthContext struct {
	IsAuthenticated bool
	User            *AuthUser
}

// contextKey is a value for use with context.WithValue. It's used as
// a pointer so it fits in an interface{} without allocation. This technique
// for defining context keys was copied from Go 1.7's new use of context in net/http.
type contextKey struct {
	name string
}

func (k *contextKey) String() string {
	return "reddit-manager context value " + k.name
}

var authContextKey = &contextKey{"AuthContext"}

// GetAuthContext returns the request's auth context. Requests that never
// passed through AuthContextMiddleware are treated as anonymous.
func GetAuthContext(r *http.Request) AuthContext {
	if authCtx, ok := r.Context().Value(authContextKey).(AuthContext); ok {
		return authCtx
	}
	return AuthContext{}
}

// WithAuthContext returns a context carrying the given auth context.
// Exposed for handler tests.
func WithAuthContext(ctx context.Context, authCtx AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, authCtx)
}

func loadFromMap[T any](m map[string]interface{}, c *T) error {
	data, err := json.Marshal(m)
	if err == nil {
		err = json.Unmarshal(data, c)
	}
	return err
}

// AuthContextMiddleware resolves the caller's identity from the verified
// JWT claims and stores an AuthContext on the request. It never rejects:
// requests without a valid token continue as anonymous, and enforcement is
// left to RequireAuth, RequireRole or the RouteGate.
func AuthContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			next.ServeHTTP(w, r.WithContext(WithAuthContext(r.Context(), AuthContext{})))
			return
		}

		authUser := new(AuthUser)
		if raw, exists := claims["custom_claims"]; exists {
			if m, ok := raw.(map[string]interface{}); ok {
				if err := loadFromMap(m, authUser); err != nil {
					slog.Error("Failed to parse custom claims", "err", err)
					next.ServeHTTP(w, r.WithContext(WithAuthContext(r.Context(), AuthContext{})))
					return
				}
			}
		}

		if authUser.UserID == "" {
			slog.Debug("Token carries no user id, treating request as anonymous")
			next.ServeHTTP(w, r.WithContext(WithAuthContext(r.Context(), AuthContext{})))
			return
		}

		if parsed, err := uuid.Parse(authUser.UserID); err == nil {
			authUser.UserUuid = parsed
		}

		authCtx := AuthContext{IsAuthenticated: true, User: authUser}
		next.ServeHTTP(w, r.WithContext(WithAuthContext(r.Context(), authCtx)))
	})
}
