package domain

import "time"

type EventType string

const (
	EventReservationBooked   EventType = "reservation_booked"
	EventReservationReleased EventType = "reservation_released"
	EventSpotDeleted         EventType = "spot_deleted"
	EventLotCreated          EventType = "lot_created"
	EventLotDeleted          EventType = "lot_deleted"
)

// ParkingEvent is pushed to WebSocket clients and to the outbound queue
// whenever spot occupancy changes.
type ParkingEvent struct {
	EventID       string     `json:"event_id"`
	Type          EventType  `json:"event_type"`
	LotID         int        `json:"lot_id"`
	SpotID        int        `json:"spot_id,omitempty"`
	SpotStatus    SpotStatus `json:"spot_status,omitempty"`
	ReservationID int        `json:"reservation_id,omitempty"`
	UserID        int        `json:"user_id,omitempty"`
	VehicleNo     string     `json:"vehicle_no,omitempty"`
	Cost          *float64   `json:"cost,omitempty"`
	Timestamp     time.Time  `json:"timestamp"`
}

// Public drops the reservation owner's details, leaving only what a
// spot-status board needs.
func (e ParkingEvent) Public() ParkingEvent {
	e.ReservationID = 0
	e.UserID = 0
	e.VehicleNo = ""
	e.Cost = nil
	return e
}
