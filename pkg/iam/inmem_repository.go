package iam

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemUsersRepository is an in-memory UsersRepository used by tests and
// local development.
type InMemUsersRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]User
}

func NewInMemUsersRepository() *InMemUsersRepository {
	return &InMemUsersRepository{users: make(map[uuid.UUID]User)}
}

func (r *InMemUsersRepository) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == params.Email {
			return User{}, ErrEmailTaken{Email: params.Email}
		}
	}

	now := time.Now().UTC()
	user := User{
		ID:           uuid.New(),
		Email:        params.Email,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		PasswordHash: params.PasswordHash,
		Role:         params.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.users[user.ID] = user
	return user, nil
}

func (r *InMemUsersRepository) GetUser(ctx context.Context, id uuid.UUID) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (r *InMemUsersRepository) GetUserByEmail(ctx context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}
