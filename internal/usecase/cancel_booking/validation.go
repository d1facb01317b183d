package cancel_booking

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/m04kA/DrivingSchool-BookingService/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.BookingID <= 0 {
		return fmt.Errorf("%w: bookingId must be positive", ErrInvalidInput)
	}

	reason := strings.TrimSpace(req.CancellationReason)
	length := utf8.RuneCountInString(reason)
	if length < domain.MinCancellationReasonLength {
		return fmt.Errorf("%w: cancellation reason must be at least %d characters", ErrInvalidInput, domain.MinCancellationReasonLength)
	}
	if length > domain.MaxCancellationReasonLength {
		return fmt.Errorf("%w: cancellation reason must not exceed %d characters", ErrInvalidInput, domain.MaxCancellationReasonLength)
	}

	return nil
}

// appendAuditLine дописывает в заметки строку о том, кто и когда отменил бронирование
func appendAuditLine(notes *string, req *Request, at time.Time) *string {
	actor := "пользователем"
	if req.IsAdmin {
		actor = "администратором"
	}
	line := fmt.Sprintf("[%s] отменено %s %d: %s",
		at.UTC().Format(time.RFC3339), actor, req.UserID, strings.TrimSpace(req.CancellationReason))

	if notes == nil || strings.TrimSpace(*notes) == "" {
		return &line
	}
	combined := *notes + "\n" + line
	return &combined
}
