package service

import "vehicle_parking/internal/domain"

// RequireAdmin rejects anonymous callers and non-admin accounts.
func RequireAdmin(actor domain.Actor) error {
	if actor.UserID == 0 {
		return ErrUnauthenticated
	}
	if !actor.IsAdmin {
		return ErrAdminOnly
	}
	return nil
}

// RequireUser rejects anonymous callers and admins; admins do not book spots.
func RequireUser(actor domain.Actor) error {
	if actor.UserID == 0 {
		return ErrUnauthenticated
	}
	if actor.IsAdmin {
		return ErrUserOnly
	}
	return nil
}

func requireAuthenticated(actor domain.Actor) error {
	if actor.UserID == 0 {
		return ErrUnauthenticated
	}
	return nil
}
