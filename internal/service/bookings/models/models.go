package models

import (
	"errors"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/m04kA/DrivingSchool-BookingService/internal/domain"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid booking status")
)

// Request модели

// GetUserBookingsRequest запрос на получение бронирований пользователя
type GetUserBookingsRequest struct {
	UserID int64   `json:"userId"`
	Status *string `json:"status,omitempty"`
}

// GetBookingsRequest запрос администратора на получение бронирований
type GetBookingsRequest struct {
	UserID    *int64      `json:"userId,omitempty"`    // Фильтр по ученику (опционально)
	StartDate *civil.Date `json:"startDate,omitempty"` // Начало периода (опционально)
	EndDate   *civil.Date `json:"endDate,omitempty"`   // Конец периода (опционально)
	Status    *string     `json:"status,omitempty"`    // Фильтр по статусу (опционально)
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *GetBookingsRequest) ToDomainFilter() (domain.BookingsFilter, error) {
	filter := domain.BookingsFilter{
		UserID:    r.UserID,
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
	}

	// Конвертируем статус если указан
	if r.Status != nil {
		status, err := ToDomainBookingStatus(*r.Status)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}

	return filter, nil
}

// Response модели

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"userId"`
	LessonDate      string          `json:"lessonDate"` // "2025-10-15"
	StartTime       string          `json:"startTime"`  // "10:00"
	EndTime         string          `json:"endTime"`
	DurationMinutes int             `json:"durationMinutes"`
	LessonType      string          `json:"lessonType"`
	Status          string          `json:"status"`
	HoursConsumed   decimal.Decimal `json:"hoursConsumed"`
	Notes           *string         `json:"notes,omitempty"`

	ExternalEventID     *string `json:"externalEventId,omitempty"`
	CalendarSyncPending bool    `json:"calendarSyncPending"`

	CancellationReason *string `json:"cancellationReason,omitempty"`
	CancelledAt        *string `json:"cancelledAt,omitempty"` // ISO 8601 format

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BookingListResponse ответ со списком бронирований
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
}

// Методы конвертации

// FromDomainBooking конвертирует domain модель в DTO
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	if b == nil {
		return nil
	}

	resp := &BookingResponse{
		ID:                  b.ID,
		UserID:              b.UserID,
		LessonDate:          b.LessonDate.String(),
		StartTime:           b.StartTime.String(),
		DurationMinutes:     b.DurationMinutes,
		LessonType:          b.LessonType,
		Status:              string(b.Status),
		HoursConsumed:       b.HoursConsumed,
		Notes:               b.Notes,
		ExternalEventID:     b.ExternalEventID,
		CalendarSyncPending: b.CalendarSyncPending,
		CancellationReason:  b.CancellationReason,
		CreatedAt:           b.CreatedAt,
		UpdatedAt:           b.UpdatedAt,
	}

	if end, err := b.EndTime(); err == nil {
		resp.EndTime = end.String()
	}

	// Конвертируем CancelledAt в строку ISO 8601
	if b.CancelledAt != nil {
		cancelledStr := b.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &cancelledStr
	}

	return resp
}

// FromDomainBookingList конвертирует список domain моделей в DTO
func FromDomainBookingList(bookings []*domain.Booking) *BookingListResponse {
	resp := &BookingListResponse{
		Bookings: make([]BookingResponse, 0, len(bookings)),
	}

	for _, booking := range bookings {
		if bookingResp := FromDomainBooking(booking); bookingResp != nil {
			resp.Bookings = append(resp.Bookings, *bookingResp)
		}
	}

	return resp
}

// ToDomainBookingStatus конвертирует строку в domain.BookingStatus с валидацией
func ToDomainBookingStatus(status string) (domain.BookingStatus, error) {
	s := domain.BookingStatus(status)
	if !s.IsValid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}
