package create_booking

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/m04kA/DrivingSchool-BookingService/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request, maxDurationMinutes int) error {
	if req.UserID <= 0 {
		return fmt.Errorf("%w: userId must be positive", ErrInvalidInput)
	}

	if !req.Date.IsValid() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	if err := req.StartTime.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if req.DurationMinutes <= 0 {
		return fmt.Errorf("%w: durationMinutes must be positive", ErrInvalidInput)
	}
	if req.DurationMinutes > maxDurationMinutes {
		return fmt.Errorf("%w: durationMinutes must not exceed %d", ErrInvalidInput, maxDurationMinutes)
	}

	lessonType := strings.TrimSpace(req.LessonType)
	if lessonType == "" {
		return fmt.Errorf("%w: lessonType is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(lessonType) > domain.MaxLessonTypeLength {
		return fmt.Errorf("%w: lessonType must not exceed %d characters", ErrInvalidInput, domain.MaxLessonTypeLength)
	}

	if req.Notes != nil && utf8.RuneCountInString(*req.Notes) > domain.MaxNotesLength {
		return fmt.Errorf("%w: notes must not exceed %d characters", ErrInvalidInput, domain.MaxNotesLength)
	}

	if req.IdempotencyKey != nil {
		if _, err := uuid.Parse(*req.IdempotencyKey); err != nil {
			return fmt.Errorf("%w: idempotency key must be a UUID", ErrInvalidInput)
		}
	}

	return nil
}

// lockKey ключ пользовательской блокировки
func lockKey(userID int64) string {
	return fmt.Sprintf("booking:user:%d", userID)
}
