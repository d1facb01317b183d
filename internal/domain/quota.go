package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType kind of quota ledger entry
type TransactionType string

const (
	TransactionBooking    TransactionType = "booking"
	TransactionRefund     TransactionType = "refund"
	TransactionPurchase   TransactionType = "purchase"
	TransactionFreeCredit TransactionType = "free_credit"
)

// IsCredit reports whether the type is an admin top-up
func (t TransactionType) IsCredit() bool {
	return t == TransactionPurchase || t == TransactionFreeCredit
}

// QuotaLedgerEntry append-only record of a quota change
type QuotaLedgerEntry struct {
	ID              int64
	UserID          int64
	HoursChange     decimal.Decimal // signed
	TransactionType TransactionType
	BookingID       *int64
	Comment         *string
	CreatedAt       time.Time
}

// UserQuota materialized balance of a user
type UserQuota struct {
	UserID         int64
	AvailableHours decimal.Decimal
	UpdatedAt      time.Time
}

var minutesPerHour = decimal.NewFromInt(60)

// HoursForMinutes converts a lesson duration to quota hours rounded to 2 decimals
func HoursForMinutes(minutes int) decimal.Decimal {
	return decimal.NewFromInt(int64(minutes)).Div(minutesPerHour).Round(2)
}
