package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/m04kA/DrivingSchool-BookingService/internal/domain"
)

// maxCreditHours верхняя граница одного начисления
var maxCreditHours = decimal.NewFromInt(1000)

// Request модели

// CreditRequest запрос на начисление часов
type CreditRequest struct {
	UserID          int64
	Hours           decimal.Decimal
	TransactionType domain.TransactionType // purchase или free_credit
	Comment         *string
}

// Response модели

// QuotaResponse баланс пользователя
type QuotaResponse struct {
	UserID         int64
	AvailableHours decimal.Decimal
}

// LedgerEntry запись журнала
type LedgerEntry struct {
	ID              int64
	HoursChange     decimal.Decimal
	TransactionType string
	BookingID       *int64
	Comment         *string
	CreatedAt       time.Time
}

// LedgerResponse журнал пользователя
type LedgerResponse struct {
	Entries []LedgerEntry
}

// Методы конвертации

// ToDomainEntry проверяет запрос и строит запись журнала
func (r *CreditRequest) ToDomainEntry() (*domain.QuotaLedgerEntry, error) {
	if r.UserID <= 0 {
		return nil, errors.New("user id must be positive")
	}
	if !r.TransactionType.IsCredit() {
		return nil, fmt.Errorf("transaction type %q is not a credit", r.TransactionType)
	}
	if !r.Hours.IsPositive() || r.Hours.GreaterThan(maxCreditHours) {
		return nil, fmt.Errorf("hours must be in (0, %s]", maxCreditHours.String())
	}
	if !r.Hours.Equal(r.Hours.Round(2)) {
		return nil, errors.New("hours must have at most 2 decimal places")
	}

	var comment *string
	if r.Comment != nil {
		trimmed := strings.TrimSpace(*r.Comment)
		if utf8.RuneCountInString(trimmed) > domain.MaxLedgerCommentLength {
			return nil, fmt.Errorf("comment is longer than %d characters", domain.MaxLedgerCommentLength)
		}
		if trimmed != "" {
			comment = &trimmed
		}
	}

	return &domain.QuotaLedgerEntry{
		UserID:          r.UserID,
		HoursChange:     r.Hours,
		TransactionType: r.TransactionType,
		Comment:         comment,
	}, nil
}

// FromDomainLedger конвертирует записи журнала в DTO
func FromDomainLedger(entries []*domain.QuotaLedgerEntry) *LedgerResponse {
	result := make([]LedgerEntry, 0, len(entries))
	for _, e := range entries {
		result = append(result, LedgerEntry{
			ID:              e.ID,
			HoursChange:     e.HoursChange,
			TransactionType: string(e.TransactionType),
			BookingID:       e.BookingID,
			Comment:         e.Comment,
			CreatedAt:       e.CreatedAt,
		})
	}
	return &LedgerResponse{Entries: result}
}
