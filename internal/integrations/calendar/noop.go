package calendar

import (
	"context"
	"time"

	"github.com/m04kA/DrivingSchool-BookingService/internal/domain"
)

// Disabled заменяет клиента, когда интеграция с календарём выключена
type Disabled struct{}

func (Disabled) ListBusyIntervals(ctx context.Context, from, to time.Time) ([]domain.BusyInterval, error) {
	return nil, nil
}

func (Disabled) CreateEvent(ctx context.Context, req *EventRequest) (string, error) {
	return "", ErrDisabled
}

func (Disabled) DeleteEvent(ctx context.Context, eventID string) error {
	return ErrDisabled
}
