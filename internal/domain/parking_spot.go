package domain

import "time"

type SpotStatus string

const (
	SpotAvailable SpotStatus = "available"
	SpotOccupied  SpotStatus = "occupied"
)

func (s SpotStatus) Valid() bool {
	return s == SpotAvailable || s == SpotOccupied
}

type ParkingSpot struct {
	ID        int        `json:"id"`
	LotID     int        `json:"lot_id"`
	Status    SpotStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// SpotCounts is the per-lot occupancy tally.
type SpotCounts struct {
	Available int `json:"available"`
	Occupied  int `json:"occupied"`
}

func (c SpotCounts) Total() int { return c.Available + c.Occupied }

// SpotDetail is the admin view of a single spot.
type SpotDetail struct {
	Spot          ParkingSpot  `json:"spot"`
	Lot           *ParkingLot  `json:"lot,omitempty"`
	Reservation   *Reservation `json:"reservation,omitempty"`
	EstimatedCost *float64     `json:"est_parking_cost,omitempty"`
}
