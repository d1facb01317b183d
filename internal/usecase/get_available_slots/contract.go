package get_available_slots

import (
	"context"
	"time"

	"cloud.google.com/go/civil"

	"github.com/m04kA/DrivingSchool-BookingService/internal/domain"
)

// SettingsProvider источник настроек календаря
type SettingsProvider interface {
	Get(ctx context.Context) (*domain.CalendarSettings, error)
}

// BusyProvider источник занятых интервалов на дату
type BusyProvider interface {
	ForDate(ctx context.Context, date civil.Date, loc *time.Location) ([]domain.BusyInterval, bool, error)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
