package iam

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered user of the service.
type User struct {
	ID           uuid.UUID
	Email        string
	FirstName    string
	LastName     string
	PasswordHash []byte
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserModel is the service-layer view of a user. The password hash never
// leaves the package.
type UserModel struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// RegisterParams carries the inputs for creating a user.
type RegisterParams struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
}

// CreateUserParams is the store-level create request.
type CreateUserParams struct {
	Email        string
	FirstName    string
	LastName     string
	PasswordHash []byte
	Role         string
}

func toModel(user User) UserModel {
	return UserModel{
		ID:        user.ID.String(),
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}
