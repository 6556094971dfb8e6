package services

import (
	"errors"

	"aralis/internal/repositories"
	"aralis/pkg/errorbank"
)

var (
	// ErrOrderNumberExhausted means no free order number was found within the attempt budget.
	ErrOrderNumberExhausted = errors.New("order number space exhausted")

	ErrTokenInvalid      = errors.New("reset token is invalid")
	ErrTokenUsed         = errors.New("reset token has already been used")
	ErrTokenExpired      = errors.New("reset token has expired")
	ErrPasswordUnchanged = errors.New("new password must differ from the current password")
	ErrResetMailFailed   = errors.New("reset email could not be sent")

	ErrWeakPassword       = errors.New("password does not meet the strength rules")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// storeError maps repository sentinels onto API errors. Anything unexpected becomes internal.
func storeError(err error, notFound, conflict string) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return errorbank.NotFound(notFound, errorbank.WithCause(err))
	case errors.Is(err, repositories.ErrDuplicate) && conflict != "":
		return errorbank.Conflict(conflict, errorbank.WithCause(err))
	}
	return errorbank.Internal("internal error", errorbank.WithCause(err))
}
