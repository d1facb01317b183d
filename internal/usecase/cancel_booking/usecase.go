package cancel_booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/DrivingSchool-BookingService/internal/domain"
	bookingRepo "github.com/m04kA/DrivingSchool-BookingService/internal/infra/storage/booking"
	"github.com/m04kA/DrivingSchool-BookingService/internal/integrations/calendar"
	"github.com/m04kA/DrivingSchool-BookingService/internal/notification"
)

// UseCase use case для отмены бронирования
type UseCase struct {
	bookingRepo  BookingRepository
	quotaRepo    QuotaRepository
	calendar     CalendarClient
	notifier     Notifier
	txManager    TransactionManager
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	quotaRepo QuotaRepository,
	calendar CalendarClient,
	notifier Notifier,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		quotaRepo:    quotaRepo,
		calendar:     calendar,
		notifier:     notifier,
		txManager:    txManager,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Execute отменяет бронирование и возвращает часы на баланс
// Статус, возврат часов и строка аудита меняются одной сериализуемой транзакцией
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CancelBooking: booking=%d, user=%d, admin=%t", req.BookingID, req.UserID, req.IsAdmin)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CancelBooking: validation failed: %v", err)
		return nil, err
	}

	reason := strings.TrimSpace(req.CancellationReason)

	var (
		booking     *domain.Booking
		newBalance  decimal.Decimal
		cancelledAt time.Time
	)

	// 2. Выполняем операции с БД в сериализуемой транзакции
	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 2.1. Блокируем строку бронирования и перепроверяем статус
		b, err := uc.bookingRepo.GetByID(txCtx, req.BookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				uc.logger.Warn("CancelBooking: booking id=%d not found", req.BookingID)
				return ErrBookingNotFound
			}
			uc.logger.Error("CancelBooking: failed to get booking id=%d: %v", req.BookingID, err)
			return fmt.Errorf("%w: failed to get booking: %v", ErrInternal, err)
		}

		if !req.IsAdmin && !b.IsOwnedBy(req.UserID) {
			uc.logger.Warn("CancelBooking: user=%d has no access to booking id=%d", req.UserID, req.BookingID)
			return ErrAccessDenied
		}

		if !b.CanBeCancelled() {
			uc.logger.Warn("CancelBooking: booking id=%d already %s", req.BookingID, b.Status)
			return ErrAlreadyCancelled
		}

		// 2.2. Блокируем баланс и возвращаем часы
		if _, err := uc.quotaRepo.LockBalance(txCtx, b.UserID); err != nil {
			uc.logger.Error("CancelBooking: failed to lock quota for user=%d: %v", b.UserID, err)
			return fmt.Errorf("%w: failed to lock quota: %v", ErrInternal, err)
		}

		balance, err := uc.quotaRepo.AppendEntry(txCtx, &domain.QuotaLedgerEntry{
			UserID:          b.UserID,
			HoursChange:     b.HoursConsumed,
			TransactionType: domain.TransactionRefund,
			BookingID:       &b.ID,
		})
		if err != nil {
			uc.logger.Error("CancelBooking: failed to append refund for booking id=%d: %v", b.ID, err)
			return fmt.Errorf("%w: failed to append refund: %v", ErrInternal, err)
		}

		// 2.3. Меняем статус; календарь синхронизируется после коммита
		notes := appendAuditLine(b.Notes, req, uc.timeProvider.Now())
		syncPending := b.ExternalEventID != nil

		at, err := uc.bookingRepo.Cancel(txCtx, b.ID, reason, notes, syncPending)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrCannotCancel) {
				return ErrAlreadyCancelled
			}
			uc.logger.Error("CancelBooking: failed to cancel booking id=%d: %v", b.ID, err)
			return fmt.Errorf("%w: failed to cancel booking: %v", ErrInternal, err)
		}

		b.Status = domain.StatusCancelled
		b.CancellationReason = &reason
		b.CancelledAt = &at
		b.Notes = notes
		b.CalendarSyncPending = syncPending

		booking = b
		newBalance = balance
		cancelledAt = at
		return nil
	})

	if err != nil {
		return nil, err
	}

	uc.logger.Info("CancelBooking: booking id=%d cancelled, refunded=%s, balance=%s",
		booking.ID, booking.HoursConsumed, newBalance)

	// 3. Удаляем событие календаря после коммита
	if booking.ExternalEventID != nil {
		uc.removeCalendarEvent(ctx, booking)
	}

	// 4. Уведомление
	uc.notifier.Notify(ctx, notification.KindBookingCancelled, notification.Payload{
		BookingID:       booking.ID,
		UserID:          booking.UserID,
		LessonDate:      booking.LessonDate.String(),
		StartTime:       booking.StartTime.String(),
		DurationMinutes: booking.DurationMinutes,
		LessonType:      booking.LessonType,
		HoursRefunded:   booking.HoursConsumed.StringFixed(2),
		Reason:          reason,
	})

	return &Response{
		BookingID:     booking.ID,
		HoursRefunded: booking.HoursConsumed,
		NewBalance:    newBalance,
		CancelledAt:   cancelledAt,
	}, nil
}

// removeCalendarEvent удаляет событие; при ошибке флаг синхронизации остаётся
func (uc *UseCase) removeCalendarEvent(ctx context.Context, booking *domain.Booking) {
	eventID := *booking.ExternalEventID

	err := uc.calendar.DeleteEvent(ctx, eventID)
	if errors.Is(err, calendar.ErrDisabled) {
		return
	}
	if err != nil {
		uc.logger.Warn("CancelBooking: failed to delete calendar event=%s of booking id=%d, sync pending: %v",
			eventID, booking.ID, err)
		return
	}

	if err := uc.bookingRepo.MarkCalendarSynced(ctx, booking.ID); err != nil {
		uc.logger.Error("CancelBooking: failed to clear sync flag of booking id=%d: %v", booking.ID, err)
		return
	}
	booking.CalendarSyncPending = false
}
