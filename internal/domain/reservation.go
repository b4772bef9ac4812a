package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

// Reservation is a claim by a user on a spot. It is open while EndTime is null.
// SpotID and LotID become null when the spot or lot is later deleted; the
// closed record itself is kept for revenue reporting.
type Reservation struct {
	ID          int        `json:"id"`
	UserID      int        `json:"user_id"`
	SpotID      null.Int   `json:"spot_id"`
	LotID       null.Int   `json:"lot_id"`
	VehicleNo   string     `json:"vehicle_no"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     null.Time  `json:"end_time"`
	ParkingCost null.Float `json:"parking_cost"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (r *Reservation) IsOpen() bool {
	return !r.EndTime.Valid
}

// ReservationView is a reservation joined with the name of its lot.
type ReservationView struct {
	Reservation
	LocationName string `json:"location_name"`
}

type BookingDTO struct {
	VehicleNo string `json:"vehicle" form:"vehicle" binding:"required,vehicleno"`
}

// BookingPreview is what the booking form shows before the user commits.
type BookingPreview struct {
	Lot           ParkingLot `json:"lot"`
	AvailableSpot int        `json:"available_spot"`
}

// ReleaseResult is the closed reservation and the amount billed.
type ReleaseResult struct {
	Reservation   Reservation `json:"reservation"`
	DurationHours int64       `json:"duration_hours"`
	Cost          float64     `json:"cost"`
}

type UserDashboard struct {
	User         Actor             `json:"user"`
	ParkingLots  []ParkingLot      `json:"parking_lots"`
	Reservations []ReservationView `json:"reservations"`
}

const (
	SearchByUserID   = "user_id"
	SearchBySpotID   = "spot_id"
	SearchByLocation = "location"
)

type AdminSearchResult struct {
	SearchBy     string            `json:"search_by"`
	SearchTerm   string            `json:"search_term"`
	Reservations []ReservationView `json:"reservations,omitempty"`
	Lots         []ParkingLot      `json:"lots,omitempty"`
}
