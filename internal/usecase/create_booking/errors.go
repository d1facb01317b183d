package create_booking

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrSlotNotAvailable возвращается, когда выбранное время занято
	ErrSlotNotAvailable = errors.New("create_booking: slot is not available")

	// ErrInvalidTimeSlot возвращается, когда время не попадает в сетку или рабочие часы
	ErrInvalidTimeSlot = errors.New("create_booking: invalid time slot")

	// ErrInsufficientQuota возвращается, когда у пользователя не хватает часов
	ErrInsufficientQuota = errors.New("create_booking: insufficient quota")

	// ErrConcurrentRequest возвращается, когда у пользователя уже оформляется другое бронирование
	ErrConcurrentRequest = errors.New("create_booking: concurrent booking request in progress")

	// ErrIdempotencyKeyReused возвращается, когда ключ запроса принадлежит другому пользователю
	ErrIdempotencyKeyReused = errors.New("create_booking: idempotency key already used")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)

// InsufficientQuotaError подробности нехватки часов
type InsufficientQuotaError struct {
	Available decimal.Decimal
	Required  decimal.Decimal
}

func (e *InsufficientQuotaError) Error() string {
	return fmt.Sprintf("%v: available %s, required %s", ErrInsufficientQuota, e.Available.StringFixed(2), e.Required.StringFixed(2))
}

func (e *InsufficientQuotaError) Unwrap() error {
	return ErrInsufficientQuota
}
