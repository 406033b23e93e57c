package accounts

import "fmt"

// ErrDuplicateAccount is returned when the (user, reddit username) pair is
// already linked.
type ErrDuplicateAccount struct {
	RedditUsername string
}

func (e ErrDuplicateAccount) Error() string {
	return fmt.Sprintf("reddit account already connected: %s", e.RedditUsername)
}

// ErrAccountNotFound is returned when an account does not exist or is not
// owned by the caller. Ownership misses are deliberately indistinguishable
// from absence.
type ErrAccountNotFound struct {
	AccountID string
}

func (e ErrAccountNotFound) Error() string {
	return fmt.Sprintf("reddit account not found: %s", e.AccountID)
}

// ErrUnauthorized is returned when an operation is attempted without an
// authenticated user.
type ErrUnauthorized struct{}

func (e ErrUnauthorized) Error() string {
	return "unauthorized"
}

// ErrValidation is returned for malformed input.
type ErrValidation struct {
	Details string
}

func (e ErrValidation) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Details)
}
