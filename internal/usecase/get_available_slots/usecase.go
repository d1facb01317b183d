package get_available_slots

import (
	"context"
	"fmt"

	"github.com/m04kA/DrivingSchool-BookingService/internal/service/availability"
)

// UseCase use case для получения слотов на дату
type UseCase struct {
	settings     SettingsProvider
	busy         BusyProvider
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	settings SettingsProvider,
	busy BusyProvider,
	logger Logger,
) *UseCase {
	return &UseCase{
		settings:     settings,
		busy:         busy,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Execute выполняет use case получения слотов
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailableSlots: date=%s", req.Date)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время
	now := uc.timeProvider.Now()

	// 3. Получаем настройки календаря
	settings, err := uc.settings.Get(ctx)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to get settings: %v", err)
		return nil, fmt.Errorf("%w: failed to get settings: %v", ErrInternal, err)
	}

	// Буфер из запроса действует только на этот расчёт
	if req.BufferMinutes != nil {
		copied := *settings
		copied.BufferMinutes = *req.BufferMinutes
		settings = &copied
	}

	loc, err := settings.Location()
	if err != nil {
		uc.logger.Error("GetAvailableSlots: invalid timezone in settings: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	// 4. Получаем занятые интервалы (бронирования + внешний календарь)
	busy, degraded, err := uc.busy.ForDate(ctx, req.Date, loc)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to get busy intervals: %v", err)
		return nil, fmt.Errorf("%w: failed to get busy intervals: %v", ErrInternal, err)
	}

	// 5. Генерируем слоты
	slots, err := availability.GenerateSlots(settings, busy, req.Date, now)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to generate slots: %v", err)
		return nil, fmt.Errorf("%w: failed to generate slots: %v", ErrInternal, err)
	}

	available := 0
	for _, s := range slots {
		if s.Available {
			available++
		}
	}
	uc.logger.Info("GetAvailableSlots: generated %d slots (%d available) for date=%s, calendarDegraded=%t",
		len(slots), available, req.Date, degraded)

	return &Response{
		Date:             req.Date,
		Timezone:         settings.Timezone,
		CalendarDegraded: degraded,
		Slots:            slots,
	}, nil
}
