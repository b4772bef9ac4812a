// Package events fans parking notifications out to live WebSocket clients
// and to an outbound queue.
package events

import (
	"context"
	"errors"
	"time"

	"vehicle_parking/internal/domain"

	"github.com/google/uuid"
)

type Publisher interface {
	Publish(ctx context.Context, event domain.ParkingEvent) error
}

// NewEvent stamps a fresh id and UTC timestamp.
func NewEvent(eventType domain.EventType, lotID int, at time.Time) domain.ParkingEvent {
	return domain.ParkingEvent{
		EventID:   uuid.NewString(),
		Type:      eventType,
		LotID:     lotID,
		Timestamp: at.UTC(),
	}
}

// Multi publishes to every sink and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event domain.ParkingEvent) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Nop struct{}

func (Nop) Publish(context.Context, domain.ParkingEvent) error { return nil }
