// Package accounts manages linked Reddit accounts: listing, linking,
// credential updates and the admin overview. The caller's identity is
// always passed in explicitly; there is no ambient session state.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/redditgrowth/reddit-manager/pkg/notification"
	"github.com/redditgrowth/reddit-manager/pkg/reddit"
	"github.com/redditgrowth/reddit-manager/pkg/secrets"
)

// DefaultTokenExpiry is the expiry window applied when the provider does
// not report one.
const DefaultTokenExpiry = time.Hour

// AccountsService orchestrates validation, duplicate detection and
// persistence for linked Reddit accounts.
type AccountsService struct {
	repo         AccountsRepository
	cipher       *secrets.Cipher
	redditClient *reddit.Client
	notifier     notification.Notifier
	tokenExpiry  time.Duration
}

// Option configures an AccountsService.
type Option func(*AccountsService)

// WithRedditClient enables karma refresh through the Reddit API.
func WithRedditClient(client *reddit.Client) Option {
	return func(s *AccountsService) {
		s.redditClient = client
	}
}

// WithNotifier enables account-linked notices.
func WithNotifier(notifier notification.Notifier) Option {
	return func(s *AccountsService) {
		s.notifier = notifier
	}
}

// WithTokenExpiry overrides the default token expiry window.
func WithTokenExpiry(expiry time.Duration) Option {
	return func(s *AccountsService) {
		if expiry > 0 {
			s.tokenExpiry = expiry
		}
	}
}

// NewAccountsService creates a new accounts service.
func NewAccountsService(repo AccountsRepository, cipher *secrets.Cipher, opts ...Option) *AccountsService {
	s := &AccountsService{
		repo:        repo,
		cipher:      cipher,
		tokenExpiry: DefaultTokenExpiry,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the caller's accounts, newest first, with secrets reduced
// to the HasPassword flag.
func (s *AccountsService) List(ctx context.Context, userID uuid.UUID) ([]AccountModel, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthorized{}
	}

	accounts, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	models := make([]AccountModel, len(accounts))
	for i, account := range accounts {
		models[i] = toModel(account)
	}
	return models, nil
}

// Add links a new Reddit account for the caller. The (user, username) pair
// must be unique; a racing duplicate insert is settled by the store's
// constraint.
func (s *AccountsService) Add(ctx context.Context, userID uuid.UUID, params AddAccountParams) (AccountModel, error) {
	if userID == uuid.Nil {
		return AccountModel{}, ErrUnauthorized{}
	}
	if params.RedditUsername == "" {
		return AccountModel{}, ErrValidation{Details: "reddit username is required"}
	}
	if params.AccessToken == "" {
		return AccountModel{}, ErrValidation{Details: "access token is required"}
	}

	_, err := s.repo.FindByUserAndUsername(ctx, userID, params.RedditUsername)
	if err == nil {
		return AccountModel{}, ErrDuplicateAccount{RedditUsername: params.RedditUsername}
	}
	if !errors.Is(err, ErrNotFound) {
		return AccountModel{}, fmt.Errorf("failed to check for existing account: %w", err)
	}

	sealedAccess, err := s.cipher.Encrypt(params.AccessToken)
	if err != nil {
		return AccountModel{}, fmt.Errorf("failed to seal access token: %w", err)
	}
	sealedRefresh := ""
	if params.RefreshToken != "" {
		sealedRefresh, err = s.cipher.Encrypt(params.RefreshToken)
		if err != nil {
			return AccountModel{}, fmt.Errorf("failed to seal refresh token: %w", err)
		}
	}

	expiry := s.tokenExpiry
	if params.ExpiresIn > 0 {
		expiry = time.Duration(params.ExpiresIn) * time.Second
	}

	account, err := s.repo.CreateAccount(ctx, CreateAccountParams{
		UserID:         userID,
		RedditUsername: params.RedditUsername,
		AccessToken:    sealedAccess,
		RefreshToken:   sealedRefresh,
		TokenExpires:   time.Now().UTC().Add(expiry),
		KarmaCount:     params.KarmaCount,
	})
	if err != nil {
		var dup ErrDuplicateAccount
		if errors.As(err, &dup) {
			return AccountModel{}, dup
		}
		return AccountModel{}, fmt.Errorf("failed to create account: %w", err)
	}

	slog.Info("Reddit account linked", "userId", userID, "redditUsername", params.RedditUsername)
	return toModel(account), nil
}

// UpdatePassword stores the account's own password, sealed. Accounts owned
// by other users are reported as not found.
func (s *AccountsService) UpdatePassword(ctx context.Context, userID, accountID uuid.UUID, password string) error {
	if userID == uuid.Nil {
		return ErrUnauthorized{}
	}
	if password == "" {
		return ErrValidation{Details: "password is required"}
	}

	account, err := s.repo.FindByIDAndUser(ctx, accountID, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrAccountNotFound{AccountID: accountID.String()}
		}
		return fmt.Errorf("failed to find account: %w", err)
	}

	sealed, err := s.cipher.Encrypt(password)
	if err != nil {
		return fmt.Errorf("failed to seal password: %w", err)
	}

	if err := s.repo.UpdatePassword(ctx, account.ID, sealed); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// Delete unlinks an account. Accounts owned by other users are reported as
// not found.
func (s *AccountsService) Delete(ctx context.Context, userID, accountID uuid.UUID) error {
	if userID == uuid.Nil {
		return ErrUnauthorized{}
	}

	account, err := s.repo.FindByIDAndUser(ctx, accountID, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrAccountNotFound{AccountID: accountID.String()}
		}
		return fmt.Errorf("failed to find account: %w", err)
	}

	if err := s.repo.DeleteAccount(ctx, account.ID); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	slog.Info("Reddit account unlinked", "userId", userID, "accountId", accountID)
	return nil
}

// RefreshKarma refetches the account's karma from Reddit and stores it.
func (s *AccountsService) RefreshKarma(ctx context.Context, userID, accountID uuid.UUID) (AccountModel, error) {
	if userID == uuid.Nil {
		return AccountModel{}, ErrUnauthorized{}
	}
	if s.redditClient == nil {
		return AccountModel{}, fmt.Errorf("reddit client is not configured")
	}

	account, err := s.repo.FindByIDAndUser(ctx, accountID, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return AccountModel{}, ErrAccountNotFound{AccountID: accountID.String()}
		}
		return AccountModel{}, fmt.Errorf("failed to find account: %w", err)
	}

	accessToken, err := s.cipher.Decrypt(account.AccessToken)
	if err != nil {
		return AccountModel{}, fmt.Errorf("failed to open access token: %w", err)
	}

	identity, err := s.redditClient.Identity(ctx, accessToken)
	if err != nil {
		return AccountModel{}, fmt.Errorf("failed to refresh karma: %w", err)
	}

	if err := s.repo.UpdateKarma(ctx, account.ID, identity.TotalKarma); err != nil {
		return AccountModel{}, fmt.Errorf("failed to store karma: %w", err)
	}

	account.KarmaCount = identity.TotalKarma
	return toModel(account), nil
}

// UsersOverview returns every user owning at least one account, with their
// accounts ordered by karma descending. Admin only; role enforcement
// happens at the boundary.
func (s *AccountsService) UsersOverview(ctx context.Context) ([]UserOverview, error) {
	overviews, err := s.repo.ListUsersWithAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build users overview: %w", err)
	}
	return overviews, nil
}

// NotifyLinked sends the account-linked notice. Best-effort: failures are
// logged, never returned.
func (s *AccountsService) NotifyLinked(email, redditUsername string) {
	if s.notifier == nil || email == "" {
		return
	}
	err := s.notifier.Send(notification.AccountLinkedNotice, notification.NotificationData{
		To:   email,
		Data: map[string]string{"reddit_username": redditUsername},
	})
	if err != nil {
		slog.Warn("Failed to send account-linked notice", "err", err)
	}
}
