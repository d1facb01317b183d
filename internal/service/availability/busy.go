package availability

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"cloud.google.com/go/civil"

	"github.com/m04kA/DrivingSchool-BookingService/internal/domain"
	"github.com/m04kA/DrivingSchool-BookingService/pkg/types"
)

// BusySource собирает занятые интервалы из бронирований и внешнего календаря
type BusySource struct {
	bookings BookingReader
	calendar CalendarReader
	logger   Logger
}

func NewBusySource(bookings BookingReader, calendar CalendarReader, logger Logger) *BusySource {
	return &BusySource{
		bookings: bookings,
		calendar: calendar,
		logger:   logger,
	}
}

// ForDate занятые интервалы, влияющие на локальную дату date
// degraded=true, если календарь недоступен и результат построен только по бронированиям
func (s *BusySource) ForDate(ctx context.Context, date civil.Date, loc *time.Location) ([]domain.BusyInterval, bool, error) {
	busy, err := s.Bookings(ctx, date, loc)
	if err != nil {
		return nil, false, err
	}

	external, err := s.External(ctx, date, loc)
	if err != nil {
		s.logger.Warn("BusySource: calendar unavailable for %s, using bookings only: %v", date, err)
		return busy, true, nil
	}

	return append(busy, external...), false, nil
}

// Bookings интервалы подтверждённых бронирований за date-1..date+1
// Соседние дни нужны, чтобы буфер урока у полуночи учитывался
func (s *BusySource) Bookings(ctx context.Context, date civil.Date, loc *time.Location) ([]domain.BusyInterval, error) {
	bookings, err := s.bookings.GetConfirmedForPeriod(ctx, date.AddDays(-1), date.AddDays(1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBusySource, err)
	}
	return BookingIntervals(bookings, loc)
}

// External интервалы внешнего календаря за локальные сутки date
func (s *BusySource) External(ctx context.Context, date civil.Date, loc *time.Location) ([]domain.BusyInterval, error) {
	from, to := types.DayBounds(date, loc)
	return s.calendar.ListBusyIntervals(ctx, from, to)
}

// BookingIntervals переводит бронирования в занятые интервалы
// Отменённые бронирования пропускаются: время освобождается сразу после смены статуса
func BookingIntervals(bookings []*domain.Booking, loc *time.Location) ([]domain.BusyInterval, error) {
	out := make([]domain.BusyInterval, 0, len(bookings))
	for _, b := range bookings {
		if !b.IsActive() {
			continue
		}
		start, end, err := b.Interval(loc)
		if err != nil {
			return nil, err
		}
		id := strconv.FormatInt(b.ID, 10)
		out = append(out, domain.BusyInterval{
			Start:  start,
			End:    end,
			ID:     &id,
			Source: domain.BusySourceBooking,
		})
	}
	return out, nil
}
