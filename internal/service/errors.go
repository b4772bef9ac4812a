package service

import (
	"errors"
	"fmt"
)

// Error classes. Every error returned by a service wraps exactly one of these.
var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrBadCredential     = errors.New("bad credential")
	ErrConflict          = errors.New("conflict")
	ErrDataIntegrityRace = errors.New("concurrent update rejected")
)

var (
	ErrUserAlreadyExists  = fmt.Errorf("%w: username already exists", ErrConflict)
	ErrUserNotFound       = fmt.Errorf("%w: user does not exist", ErrNotFound)
	ErrInvalidCredentials = fmt.Errorf("%w: incorrect password", ErrBadCredential)
	ErrTokenInvalid       = fmt.Errorf("%w: token invalid or expired", ErrBadCredential)

	ErrUnauthenticated = fmt.Errorf("%w: login required", ErrUnauthorized)
	ErrAdminOnly       = fmt.Errorf("%w: admin access required", ErrUnauthorized)
	ErrUserOnly        = fmt.Errorf("%w: user access required", ErrUnauthorized)
	ErrNotOwner        = fmt.Errorf("%w: reservation belongs to another user", ErrUnauthorized)

	ErrLotNotFound         = fmt.Errorf("%w: parking lot not found", ErrNotFound)
	ErrSpotNotFound        = fmt.Errorf("%w: parking spot not found", ErrNotFound)
	ErrReservationNotFound = fmt.Errorf("%w: reservation not found", ErrNotFound)
	ErrNoActiveReservation = fmt.Errorf("%w: spot has no active reservation", ErrNotFound)

	ErrLotFull             = fmt.Errorf("%w: no available spot in this lot", ErrConflict)
	ErrSpotOccupied        = fmt.Errorf("%w: cannot delete an occupied parking spot", ErrConflict)
	ErrLotHasOccupiedSpots = fmt.Errorf("%w: cannot delete a parking lot with occupied spots", ErrConflict)
	ErrReservationClosed   = fmt.Errorf("%w: reservation already released", ErrConflict)

	ErrSpotClaimRace = fmt.Errorf("%w: spot was taken by another booking, please retry", ErrDataIntegrityRace)
	ErrLotBusy       = fmt.Errorf("%w: parking lot is busy, please retry", ErrDataIntegrityRace)
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
