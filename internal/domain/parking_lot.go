package domain

import "time"

type ParkingLot struct {
	ID           int       `json:"id"`
	Name         string    `json:"prime_location_name"`
	PricePerHour float64   `json:"price"`
	Address      string    `json:"address"`
	PostalCode   int       `json:"pincode"`
	Capacity     int       `json:"maximum_no_of_spots"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Spots []ParkingSpot `json:"spots,omitempty"`
}

// ParkingLotDTO is the raw lot form; every field arrives as a string.
type ParkingLotDTO struct {
	Location   string `json:"location" form:"location" binding:"required,max=200"`
	Price      string `json:"price" form:"price" binding:"required"`
	Address    string `json:"address" form:"address" binding:"required,max=200"`
	PostalCode string `json:"pincode" form:"pincode" binding:"required,postalcode"`
	Spots      string `json:"spots" form:"spots"`
}

// ParkingLotInput is a validated lot. Capacity is ignored on update.
type ParkingLotInput struct {
	Name         string
	PricePerHour float64
	Address      string
	PostalCode   int
	Capacity     int
}

// LotSearchFilter selects lots by postal code or by a case-insensitive
// substring of the location name. A zero filter matches every lot.
type LotSearchFilter struct {
	PostalCode   *int
	NameContains string
}
