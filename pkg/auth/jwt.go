package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	AccessTokenName  = "access_token"
	RefreshTokenName = "refresh_token"
)

// Default token expiry durations
const (
	DefaultAccessTokenExpiry  = 15 * time.Minute
	DefaultRefreshTokenExpiry = 24 * time.Hour
)

// SessionClaims is the identity carried inside a token's custom claims.
type SessionClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
}

// Claims wraps session data with the registered JWT claims.
type Claims struct {
	CustomClaims SessionClaims `json:"custom_claims"`
	jwt.RegisteredClaims
}

// Jwt issues and parses HS256 tokens for the service.
type Jwt struct {
	Secret             string
	Issuer             string
	Audience           string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

type Option func(*Jwt)

func WithIssuer(issuer string) Option {
	return func(j *Jwt) {
		j.Issuer = issuer
	}
}

func WithAudience(audience string) Option {
	return func(j *Jwt) {
		j.Audience = audience
	}
}

func WithAccessTokenExpiry(expiry time.Duration) Option {
	return func(j *Jwt) {
		j.AccessTokenExpiry = expiry
	}
}

func WithRefreshTokenExpiry(expiry time.Duration) Option {
	return func(j *Jwt) {
		j.RefreshTokenExpiry = expiry
	}
}

func NewJwt(secret string, opts ...Option) *Jwt {
	j := &Jwt{
		Secret:             secret,
		Issuer:             "reddit-manager",
		Audience:           "reddit-manager",
		AccessTokenExpiry:  DefaultAccessTokenExpiry,
		RefreshTokenExpiry: DefaultRefreshTokenExpiry,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Token is a signed token string paired with its expiry.
type Token struct {
	Token  string
	Expiry time.Time
}

// TokenPair carries the access and refresh tokens issued for one login.
type TokenPair struct {
	AccessToken  Token
	RefreshToken Token
}

func (j *Jwt) createToken(session SessionClaims, expiry time.Duration) (Token, error) {
	now := time.Now().UTC()
	claims := Claims{
		CustomClaims: session,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-5 * time.Minute)),
			Issuer:    j.Issuer,
			Subject:   session.UserID,
			ID:        uuid.New().String(),
			Audience:  []string{j.Audience},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(j.Secret))
	if err != nil {
		slog.Error("Failed to sign JWT claims", "err", err)
		return Token{}, err
	}
	return Token{Token: signed, Expiry: claims.ExpiresAt.Time}, nil
}

// CreateAccessToken issues a short-lived access token for the session.
func (j *Jwt) CreateAccessToken(session SessionClaims) (Token, error) {
	return j.createToken(session, j.AccessTokenExpiry)
}

// CreateRefreshToken issues a refresh token for the session.
func (j *Jwt) CreateRefreshToken(session SessionClaims) (Token, error) {
	return j.createToken(session, j.RefreshTokenExpiry)
}

// CreateTokenPair issues matching access and refresh tokens.
func (j *Jwt) CreateTokenPair(session SessionClaims) (TokenPair, error) {
	access, err := j.CreateAccessToken(session)
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to create access token: %w", err)
	}
	refresh, err := j.CreateRefreshToken(session)
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to create refresh token: %w", err)
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// ParseToken validates a token string and returns the session claims.
func (j *Jwt) ParseToken(tokenStr string) (SessionClaims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(j.Secret), nil
	})
	if err != nil {
		return SessionClaims{}, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return SessionClaims{}, errors.New("invalid token")
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return SessionClaims{}, errors.New("unexpected claims type")
	}

	raw, ok := mapClaims["custom_claims"].(map[string]interface{})
	if !ok {
		return SessionClaims{}, errors.New("missing custom claims")
	}

	var session SessionClaims
	if err := loadFromMap(raw, &session); err != nil {
		return SessionClaims{}, fmt.Errorf("failed to parse custom claims: %w", err)
	}
	return session, nil
}

func loadFromMap[T any](m map[string]interface{}, c *T) error {
	data, err := json.Marshal(m)
	if err == nil {
		err = json.Unmarshal(data, c)
	}
	return err
}
