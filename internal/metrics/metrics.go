package metrics

import (
	"strconv"
	"sync"

	"vehicle_parking/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vehicle_parking",
			Name:      "bookings_total",
			Help:      "Booking attempts by outcome.",
		},
		[]string{"outcome"},
	)

	releases = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vehicle_parking",
			Name:      "releases_total",
			Help:      "Reservations closed by their owner.",
		},
	)

	revenue = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vehicle_parking",
			Name:      "revenue_total",
			Help:      "Sum of parking cost charged on release.",
		},
	)

	lotSpots = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "vehicle_parking",
			Name:      "lot_spots",
			Help:      "Spots per lot by status, refreshed periodically.",
		},
		[]string{"lot_id", "status"},
	)
)

const (
	OutcomeBooked   = "booked"
	OutcomeLotFull  = "lot_full"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookings, releases, revenue, lotSpots)
	})
}

func IncBooking(outcome string) {
	bookings.WithLabelValues(outcome).Inc()
}

func ObserveRelease(cost float64) {
	releases.Inc()
	revenue.Add(cost)
}

// SetLotOccupancy replaces the per-lot gauges so deleted lots disappear.
func SetLotOccupancy(counts map[int]domain.SpotCounts) {
	lotSpots.Reset()
	for lotID, c := range counts {
		id := strconv.Itoa(lotID)
		lotSpots.WithLabelValues(id, string(domain.SpotAvailable)).Set(float64(c.Available))
		lotSpots.WithLabelValues(id, string(domain.SpotOccupied)).Set(float64(c.Occupied))
	}
}
