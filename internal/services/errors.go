package services

import (
	"errors"
	"fmt"

	"appointment-booking-server/internal/policy"
	"appointment-booking-server/internal/store"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrUnauthenticated   = errors.New("invalid credentials")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInvalidTransition = errors.New("invalid status transition")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func denied(d policy.Decision) error {
	return fmt.Errorf("%w: %s", ErrUnauthorized, d.Reason)
}

// notFound maps store.ErrNotFound to ErrNotFound with the entity name and
// passes other errors through wrapped.
func notFound(err error, what, id string) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s %s", ErrNotFound, what, id)
	}
	return fmt.Errorf("load %s: %w", what, err)
}
