package cancel_booking

import (
	"time"

	"github.com/shopspring/decimal"

	cancelBooking "github.com/m04kA/DrivingSchool-BookingService/internal/usecase/cancel_booking"
)

// CancelBookingRequest HTTP request model
type CancelBookingRequest struct {
	CancellationReason string `json:"cancellationReason"`
}

// CancelBookingResponse HTTP response model
type CancelBookingResponse struct {
	BookingID     int64           `json:"bookingId"`
	HoursRefunded decimal.Decimal `json:"hoursRefunded"`
	NewBalance    decimal.Decimal `json:"newBalance"`
	CancelledAt   string          `json:"cancelledAt"`
}

// ToUseCaseRequest конвертирует HTTP request в модель use case
func (r *CancelBookingRequest) ToUseCaseRequest(bookingID, userID int64, isAdmin bool) *cancelBooking.Request {
	return &cancelBooking.Request{
		BookingID:          bookingID,
		UserID:             userID,
		IsAdmin:            isAdmin,
		CancellationReason: r.CancellationReason,
	}
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *cancelBooking.Response) *CancelBookingResponse {
	return &CancelBookingResponse{
		BookingID:     resp.BookingID,
		HoursRefunded: resp.HoursRefunded,
		NewBalance:    resp.NewBalance,
		CancelledAt:   resp.CancelledAt.UTC().Format(time.RFC3339),
	}
}
