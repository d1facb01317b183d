package availability

import (
	"context"
	"time"

	"cloud.google.com/go/civil"

	"github.com/m04kA/DrivingSchool-BookingService/internal/domain"
)

// BookingReader подтверждённые бронирования за период
type BookingReader interface {
	GetConfirmedForPeriod(ctx context.Context, from, to civil.Date) ([]*domain.Booking, error)
}

// CalendarReader занятость из внешнего календаря
type CalendarReader interface {
	ListBusyIntervals(ctx context.Context, from, to time.Time) ([]domain.BusyInterval, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
