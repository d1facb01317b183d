package create_booking

import (
	"fmt"

	"github.com/shopspring/decimal"

	createBooking "github.com/m04kA/DrivingSchool-BookingService/internal/usecase/create_booking"
	"github.com/m04kA/DrivingSchool-BookingService/pkg/types"
)

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	Date            string  `json:"date"` // "2025-10-15"
	Time            string  `json:"time"` // "10:00"
	DurationMinutes int     `json:"durationMinutes"`
	LessonType      string  `json:"lessonType"`
	Notes           *string `json:"notes,omitempty"`
	RequestKey      *string `json:"requestKey,omitempty"` // альтернатива заголовку Idempotency-Key
}

// InsufficientQuotaResponse тело ответа 402
type InsufficientQuotaResponse struct {
	Code           int             `json:"code"`
	Message        string          `json:"message"`
	AvailableHours decimal.Decimal `json:"availableHours"`
	RequiredHours  decimal.Decimal `json:"requiredHours"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest(userID int64, idempotencyKey string) (*createBooking.Request, error) {
	date, err := types.ParseDate(r.Date)
	if err != nil {
		return nil, err
	}

	startTime, err := types.NewTimeStringFromString(r.Time)
	if err != nil {
		return nil, fmt.Errorf("time: %w", err)
	}

	key := r.RequestKey
	if idempotencyKey != "" {
		key = &idempotencyKey
	}

	return &createBooking.Request{
		UserID:          userID,
		Date:            date,
		StartTime:       startTime,
		DurationMinutes: r.DurationMinutes,
		LessonType:      r.LessonType,
		Notes:           r.Notes,
		IdempotencyKey:  key,
	}, nil
}
