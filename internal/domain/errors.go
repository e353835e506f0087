package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed input; the caller can re-prompt.
	ErrValidation = errors.New("invalid input")
	// ErrInvalidCredentials hides whether the name or the password failed.
	// It is always returned bare so both causes print the same text.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountInactive is returned for correct credentials of a deactivated identity.
	ErrAccountInactive = errors.New("account inactive, contact an administrator")
	// ErrForbidden is returned when the session lacks the role an operation requires.
	ErrForbidden = errors.New("operation not permitted for the current role")
	// ErrNotFound is returned when a referenced record or identity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateName is returned when an identity name is already taken.
	ErrDuplicateName = errors.New("name already taken")
	// ErrInvalidSession is returned when a session cannot be started for an identity.
	ErrInvalidSession = errors.New("invalid session")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound wraps ErrNotFound with the kind and id of the missing thing.
func NotFound(kind, id string) error {
	return fmt.Errorf("%w: %s %q", ErrNotFound, kind, id)
}
