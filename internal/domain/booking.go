package domain

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/m04kA/DrivingSchool-BookingService/pkg/types"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
)

// IsValid reports whether the status is one of the known values
func (s BookingStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// Booking represents a driving lesson booked by a student.
// Bookings are never deleted: cancellation is a status transition.
type Booking struct {
	ID              int64
	UserID          int64
	LessonDate      civil.Date // local date in the business timezone
	StartTime       types.TimeString
	DurationMinutes int
	LessonType      string
	Status          BookingStatus
	HoursConsumed   decimal.Decimal

	ExternalEventID *string
	Notes           *string

	CancellationReason *string
	CancelledAt        *time.Time

	// CalendarSyncPending is set while the external calendar does not reflect the booking state
	CalendarSyncPending bool
	IdempotencyKey      *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive returns true if the booking occupies its time interval
func (b *Booking) IsActive() bool {
	return b.Status == StatusConfirmed
}

// IsCancelled returns true if the booking has been cancelled
func (b *Booking) IsCancelled() bool {
	return b.Status == StatusCancelled
}

// CanBeCancelled returns true if the booking can still be cancelled
func (b *Booking) CanBeCancelled() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

// IsOwnedBy returns true if the booking belongs to the user
func (b *Booking) IsOwnedBy(userID int64) bool {
	return b.UserID == userID
}

// EndTime returns the local wall-clock end of the lesson
func (b *Booking) EndTime() (types.TimeString, error) {
	return b.StartTime.AddMinutes(b.DurationMinutes)
}

// Interval returns the absolute [start, end) of the lesson in the given location
func (b *Booking) Interval(loc *time.Location) (time.Time, time.Time, error) {
	start, err := b.StartTime.On(b.LessonDate, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("booking %d: %w", b.ID, err)
	}
	return start, start.Add(time.Duration(b.DurationMinutes) * time.Minute), nil
}

// BookingsFilter фильтр для выборки бронирований
type BookingsFilter struct {
	UserID    *int64         // Фильтр по пользователю (опционально)
	StartDate *civil.Date    // Начало периода включительно (опционально)
	EndDate   *civil.Date    // Конец периода включительно (опционально)
	Status    *BookingStatus // Фильтр по статусу (опционально)
}
