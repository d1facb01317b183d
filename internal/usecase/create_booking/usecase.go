package create_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/DrivingSchool-BookingService/internal/domain"
	bookingRepo "github.com/m04kA/DrivingSchool-BookingService/internal/infra/storage/booking"
	quotaRepo "github.com/m04kA/DrivingSchool-BookingService/internal/infra/storage/quota"
	"github.com/m04kA/DrivingSchool-BookingService/internal/integrations/calendar"
	"github.com/m04kA/DrivingSchool-BookingService/internal/notification"
	"github.com/m04kA/DrivingSchool-BookingService/internal/service/availability"
)

// errReplay внутренний сигнал: бронирование с этим ключом создал параллельный запрос
var errReplay = errors.New("create_booking: idempotency key inserted concurrently")

// Config параметры оформления бронирования
type Config struct {
	LockTTL            time.Duration
	MaxDurationMinutes int
}

// UseCase use case для создания бронирования
type UseCase struct {
	bookingRepo  BookingRepository
	quotaRepo    QuotaRepository
	settings     SettingsProvider
	busy         ExternalBusyProvider
	calendar     CalendarClient
	locker       Locker
	notifier     Notifier
	txManager    TransactionManager
	timeProvider TimeProvider
	cfg          Config
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	quotaRepo QuotaRepository,
	settings SettingsProvider,
	busy ExternalBusyProvider,
	calendar CalendarClient,
	locker Locker,
	notifier Notifier,
	txManager TransactionManager,
	cfg Config,
	logger Logger,
) *UseCase {
	if cfg.MaxDurationMinutes <= 0 || cfg.MaxDurationMinutes > domain.MaxLessonDurationMinutes {
		cfg.MaxDurationMinutes = domain.MaxLessonDurationMinutes
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 10 * time.Second
	}

	return &UseCase{
		bookingRepo:  bookingRepo,
		quotaRepo:    quotaRepo,
		settings:     settings,
		busy:         busy,
		calendar:     calendar,
		locker:       locker,
		notifier:     notifier,
		txManager:    txManager,
		timeProvider: &RealTimeProvider{},
		cfg:          cfg,
		logger:       logger,
	}
}

// Execute выполняет use case создания бронирования
// Проверка слота, списание часов и вставка выполняются в одной сериализуемой транзакции
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: user=%d, date=%s, time=%s, duration=%d",
		req.UserID, req.Date, req.StartTime, req.DurationMinutes)

	// 1. Валидация входных данных
	if err := validateRequest(req, uc.cfg.MaxDurationMinutes); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	// 2. Повтор запроса с тем же ключом возвращает уже созданное бронирование
	if req.IdempotencyKey != nil {
		replayed, err := uc.findReplay(ctx, req)
		if err != nil {
			return nil, err
		}
		if replayed != nil {
			return replayed, nil
		}
	}

	// 3. Пользовательская блокировка: один пользователь оформляет одно бронирование за раз
	key := lockKey(req.UserID)
	token, acquired, err := uc.locker.Lock(ctx, key, uc.cfg.LockTTL)
	switch {
	case err != nil:
		// Блокировка вспомогательная, корректность обеспечивает транзакция
		uc.logger.Warn("CreateBooking: lock unavailable for user=%d, continuing without it: %v", req.UserID, err)
	case !acquired:
		uc.logger.Warn("CreateBooking: concurrent request for user=%d", req.UserID)
		return nil, ErrConcurrentRequest
	default:
		defer func() {
			if err := uc.locker.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
				uc.logger.Warn("CreateBooking: failed to release lock for user=%d: %v", req.UserID, err)
			}
		}()
	}

	// 4. Получаем текущее время и настройки
	now := uc.timeProvider.Now()

	settings, err := uc.settings.Get(ctx)
	if err != nil {
		uc.logger.Error("CreateBooking: failed to get settings: %v", err)
		return nil, fmt.Errorf("%w: failed to get settings: %v", ErrInternal, err)
	}

	loc, err := settings.Location()
	if err != nil {
		uc.logger.Error("CreateBooking: invalid timezone in settings: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	// 5. Внешний календарь читается до транзакции, чтобы не держать блокировки во время сетевого вызова
	external, err := uc.busy.External(ctx, req.Date, loc)
	if err != nil {
		uc.logger.Warn("CreateBooking: calendar unavailable, checking against bookings only: %v", err)
		external = nil
	}

	hoursRequired := domain.HoursForMinutes(req.DurationMinutes)

	var result *domain.Booking

	// 6. Выполняем операции с БД в сериализуемой транзакции
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 6.1. Блокируем подтверждённые бронирования соседних дней (FOR UPDATE)
		bookings, err := uc.bookingRepo.GetConfirmedForPeriod(txCtx, req.Date.AddDays(-1), req.Date.AddDays(1))
		if err != nil {
			uc.logger.Error("CreateBooking: failed to get bookings: %v", err)
			return fmt.Errorf("%w: failed to get bookings: %v", ErrInternal, err)
		}

		busy, err := availability.BookingIntervals(bookings, loc)
		if err != nil {
			uc.logger.Error("CreateBooking: failed to build busy intervals: %v", err)
			return fmt.Errorf("%w: %v", ErrInternal, err)
		}
		busy = append(busy, external...)

		// 6.2. Повторная проверка слота по тем же правилам, что и при выдаче расписания
		slot, err := availability.CheckSlot(settings, busy, req.Date, req.StartTime, req.DurationMinutes, now)
		if err != nil {
			if errors.Is(err, availability.ErrInvalidTimeSlot) {
				uc.logger.Warn("CreateBooking: invalid time slot: %v", err)
				return fmt.Errorf("%w: %v", ErrInvalidTimeSlot, err)
			}
			uc.logger.Error("CreateBooking: failed to check slot: %v", err)
			return fmt.Errorf("%w: %v", ErrInternal, err)
		}
		if !slot.Available {
			uc.logger.Warn("CreateBooking: slot %s %s not available: %s", req.Date, req.StartTime, slot.Reason)
			return fmt.Errorf("%w: %s", ErrSlotNotAvailable, slot.Reason)
		}

		// 6.3. Блокируем баланс пользователя и проверяем остаток
		quota, err := uc.quotaRepo.LockBalance(txCtx, req.UserID)
		if err != nil {
			uc.logger.Error("CreateBooking: failed to lock quota for user=%d: %v", req.UserID, err)
			return fmt.Errorf("%w: failed to lock quota: %v", ErrInternal, err)
		}
		if quota.AvailableHours.LessThan(hoursRequired) {
			uc.logger.Warn("CreateBooking: insufficient quota for user=%d: available=%s, required=%s",
				req.UserID, quota.AvailableHours, hoursRequired)
			return &InsufficientQuotaError{Available: quota.AvailableHours, Required: hoursRequired}
		}

		// 6.4. Создаём бронирование сразу подтверждённым
		created, err := uc.bookingRepo.Create(txCtx, &domain.Booking{
			UserID:              req.UserID,
			LessonDate:          req.Date,
			StartTime:           req.StartTime,
			DurationMinutes:     req.DurationMinutes,
			LessonType:          req.LessonType,
			Status:              domain.StatusConfirmed,
			HoursConsumed:       hoursRequired,
			Notes:               req.Notes,
			CalendarSyncPending: true,
			IdempotencyKey:      req.IdempotencyKey,
		})
		if err != nil {
			switch {
			case errors.Is(err, bookingRepo.ErrSlotNotAvailable):
				uc.logger.Warn("CreateBooking: slot %s %s taken concurrently", req.Date, req.StartTime)
				return ErrSlotNotAvailable
			case errors.Is(err, bookingRepo.ErrDuplicateIdempotencyKey):
				return errReplay
			}
			uc.logger.Error("CreateBooking: failed to create booking: %v", err)
			return fmt.Errorf("%w: failed to create booking: %v", ErrInternal, err)
		}

		// 6.5. Списываем часы
		_, err = uc.quotaRepo.AppendEntry(txCtx, &domain.QuotaLedgerEntry{
			UserID:          req.UserID,
			HoursChange:     hoursRequired.Neg(),
			TransactionType: domain.TransactionBooking,
			BookingID:       &created.ID,
		})
		if err != nil {
			if errors.Is(err, quotaRepo.ErrNegativeBalance) {
				return &InsufficientQuotaError{Available: quota.AvailableHours, Required: hoursRequired}
			}
			uc.logger.Error("CreateBooking: failed to append ledger entry: %v", err)
			return fmt.Errorf("%w: failed to append ledger entry: %v", ErrInternal, err)
		}

		result = created
		return nil
	})

	if errors.Is(err, errReplay) {
		return uc.replayAfterConflict(ctx, req)
	}
	if err != nil {
		return nil, err
	}

	uc.logger.Info("CreateBooking: successfully created booking id=%d, hours=%s", result.ID, hoursRequired)

	// 7. Событие во внешнем календаре после коммита
	uc.syncCalendar(ctx, result, settings.Timezone, loc)

	// 8. Уведомление
	uc.notifier.Notify(ctx, notification.KindBookingConfirmed, notification.Payload{
		BookingID:       result.ID,
		UserID:          result.UserID,
		LessonDate:      result.LessonDate.String(),
		StartTime:       result.StartTime.String(),
		DurationMinutes: result.DurationMinutes,
		LessonType:      result.LessonType,
		HoursConsumed:   result.HoursConsumed.StringFixed(2),
	})

	return &Response{Booking: result}, nil
}

// findReplay ищет бронирование по ключу запроса; nil, если его ещё нет
func (uc *UseCase) findReplay(ctx context.Context, req *Request) (*Response, error) {
	existing, err := uc.bookingRepo.GetByIdempotencyKey(ctx, *req.IdempotencyKey)
	if errors.Is(err, bookingRepo.ErrBookingNotFound) {
		return nil, nil
	}
	if err != nil {
		uc.logger.Error("CreateBooking: failed to look up idempotency key: %v", err)
		return nil, fmt.Errorf("%w: failed to look up idempotency key: %v", ErrInternal, err)
	}

	if !existing.IsOwnedBy(req.UserID) {
		uc.logger.Warn("CreateBooking: idempotency key of booking id=%d reused by user=%d", existing.ID, req.UserID)
		return nil, ErrIdempotencyKeyReused
	}

	uc.logger.Info("CreateBooking: replaying booking id=%d for user=%d", existing.ID, req.UserID)
	return &Response{Booking: existing, Replayed: true}, nil
}

func (uc *UseCase) replayAfterConflict(ctx context.Context, req *Request) (*Response, error) {
	resp, err := uc.findReplay(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: idempotency key conflict without booking", ErrInternal)
	}
	return resp, nil
}

// syncCalendar создаёт событие урока; ошибка календаря не отменяет бронирование
func (uc *UseCase) syncCalendar(ctx context.Context, booking *domain.Booking, timezone string, loc *time.Location) {
	start, end, err := booking.Interval(loc)
	if err != nil {
		uc.logger.Error("CreateBooking: failed to compute interval of booking id=%d: %v", booking.ID, err)
		return
	}

	eventID, err := uc.calendar.CreateEvent(ctx, &calendar.EventRequest{
		BookingID:   booking.ID,
		Summary:     fmt.Sprintf("Урок вождения: %s", booking.LessonType),
		Description: fmt.Sprintf("Бронирование #%d, пользователь %d", booking.ID, booking.UserID),
		Start:       start,
		End:         end,
		TimeZone:    timezone,
	})
	if errors.Is(err, calendar.ErrDisabled) {
		return
	}
	if err != nil {
		uc.logger.Warn("CreateBooking: calendar event for booking id=%d not created, sync pending: %v", booking.ID, err)
		return
	}

	if err := uc.bookingRepo.SetExternalEvent(ctx, booking.ID, eventID); err != nil {
		uc.logger.Error("CreateBooking: failed to store event id=%s for booking id=%d: %v", eventID, booking.ID, err)
		return
	}

	booking.ExternalEventID = &eventID
	booking.CalendarSyncPending = false
}
