// Package iam manages registered users: registration, credential checks
// and lookups. Roles are plain strings, "user" by default.
package iam

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/redditgrowth/reddit-manager/pkg/client"
	"github.com/redditgrowth/reddit-manager/pkg/notification"
)

const minPasswordLength = 8

// UsersService provides methods for managing users.
type UsersService struct {
	repo     UsersRepository
	notifier notification.Notifier
}

// Option configures a UsersService.
type Option func(*UsersService)

// WithNotifier enables the welcome notice on registration.
func WithNotifier(notifier notification.Notifier) Option {
	return func(s *UsersService) {
		s.notifier = notifier
	}
}

// NewUsersService creates a new users service.
func NewUsersService(repo UsersRepository, opts ...Option) *UsersService {
	s := &UsersService{repo: repo}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a user with a bcrypt-hashed password and the default
// role.
func (s *UsersService) Register(ctx context.Context, params RegisterParams) (UserModel, error) {
	if _, err := mail.ParseAddress(params.Email); err != nil {
		return UserModel{}, ErrValidation{Details: "a valid email is required"}
	}
	if len(params.Password) < minPasswordLength {
		return UserModel{}, ErrPasswordComplexity{Details: fmt.Sprintf("at least %d characters", minPasswordLength)}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return UserModel{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, CreateUserParams{
		Email:        params.Email,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		PasswordHash: hash,
		Role:         client.RoleUser,
	})
	if err != nil {
		var taken ErrEmailTaken
		if errors.As(err, &taken) {
			return UserModel{}, taken
		}
		return UserModel{}, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("User registered", "userId", user.ID, "email", user.Email)
	s.notifyWelcome(user)
	return toModel(user), nil
}

// Authenticate checks an email/password pair. Unknown emails and wrong
// passwords are reported identically.
func (s *UsersService) Authenticate(ctx context.Context, email, password string) (UserModel, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return UserModel{}, ErrInvalidCredentials{}
		}
		return UserModel{}, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return UserModel{}, ErrInvalidCredentials{}
	}
	return toModel(user), nil
}

// GetUser retrieves a user by id.
func (s *UsersService) GetUser(ctx context.Context, id uuid.UUID) (UserModel, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return UserModel{}, ErrUserNotFound{UserID: id.String()}
		}
		return UserModel{}, fmt.Errorf("failed to get user: %w", err)
	}
	return toModel(user), nil
}

func (s *UsersService) notifyWelcome(user User) {
	if s.notifier == nil {
		return
	}
	name := user.FirstName
	if name == "" {
		name = user.Email
	}
	err := s.notifier.Send(notification.WelcomeNotice, notification.NotificationData{
		To:   user.Email,
		Data: map[string]string{"name": name},
	})
	if err != nil {
		slog.Warn("Failed to send welcome notice", "err", err)
	}
}
