package get_available_slots

import (
	"fmt"

	"github.com/m04kA/DrivingSchool-BookingService/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if !req.Date.IsValid() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	if req.BufferMinutes != nil {
		if *req.BufferMinutes < 0 || *req.BufferMinutes > domain.MaxBufferMinutes {
			return fmt.Errorf("%w: bufferMinutes must be between 0 and %d", ErrInvalidInput, domain.MaxBufferMinutes)
		}
	}

	return nil
}
