package iam

import "fmt"

// ErrEmailTaken is returned when registering with an email that already
// exists.
type ErrEmailTaken struct {
	Email string
}

func (e ErrEmailTaken) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrPasswordComplexity is returned when a password does not meet the
// minimum requirements.
type ErrPasswordComplexity struct {
	Details string
}

func (e ErrPasswordComplexity) Error() string {
	return fmt.Sprintf("password does not meet complexity requirements: %s", e.Details)
}

// ErrInvalidCredentials is returned on a failed login. It does not reveal
// whether the email exists.
type ErrInvalidCredentials struct{}

func (e ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// ErrUserNotFound is returned when a user id resolves to nothing.
type ErrUserNotFound struct {
	UserID string
}

func (e ErrUserNotFound) Error() string {
	return fmt.Sprintf("user not found: %s", e.UserID)
}

// ErrValidation is returned for malformed input.
type ErrValidation struct {
	Details string
}

func (e ErrValidation) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Details)
}
