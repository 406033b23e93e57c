package accounts

import (
	"time"

	"github.com/google/uuid"
)

// Account is a linked Reddit account as stored. Token and password fields
// hold sealed values and never leave the service layer.
type Account struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	RedditUsername string
	AccessToken    string
	RefreshToken   string
	TokenExpires   time.Time
	KarmaCount     int
	Password       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AccountModel is the service-layer view of an account. Secrets are reduced
// to the HasPassword flag; tokens are never included.
type AccountModel struct {
	ID             string    `json:"id"`
	RedditUsername string    `json:"reddit_username"`
	KarmaCount     int       `json:"karma_count"`
	HasPassword    bool      `json:"has_password"`
	TokenExpires   time.Time `json:"token_expires"`
	CreatedAt      time.Time `json:"created_at"`
}

// AddAccountParams carries the inputs for linking a new Reddit account.
type AddAccountParams struct {
	RedditUsername string
	AccessToken    string
	RefreshToken   string
	// ExpiresIn is the provider-reported token lifetime in seconds. Zero
	// falls back to the default expiry window.
	ExpiresIn  int
	KarmaCount int
}

// CreateAccountParams is the store-level create request. Token and password
// values arrive already sealed.
type CreateAccountParams struct {
	UserID         uuid.UUID
	RedditUsername string
	AccessToken    string
	RefreshToken   string
	TokenExpires   time.Time
	KarmaCount     int
}

// UserOverview is one row of the admin analytics view: a user together
// with their linked accounts ordered by karma descending.
type UserOverview struct {
	UserID    string         `json:"user_id"`
	Email     string         `json:"email"`
	FirstName string         `json:"first_name,omitempty"`
	LastName  string         `json:"last_name,omitempty"`
	Accounts  []AccountModel `json:"accounts"`
}

func toModel(account Account) AccountModel {
	return AccountModel{
		ID:             account.ID.String(),
		RedditUsername: account.RedditUsername,
		KarmaCount:     account.KarmaCount,
		HasPassword:    account.Password != "",
		TokenExpires:   account.TokenExpires,
		CreatedAt:      account.CreatedAt,
	}
}
