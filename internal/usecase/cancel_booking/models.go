package cancel_booking

import (
	"time"

	"github.com/shopspring/decimal"
)

// Request модель запроса на отмену
type Request struct {
	BookingID          int64
	UserID             int64
	IsAdmin            bool
	CancellationReason string
}

// Response результат отмены
type Response struct {
	BookingID     int64
	HoursRefunded decimal.Decimal
	NewBalance    decimal.Decimal
	CancelledAt   time.Time
}
