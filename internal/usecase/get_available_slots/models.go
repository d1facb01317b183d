package get_available_slots

import (
	"cloud.google.com/go/civil"

	"github.com/m04kA/DrivingSchool-BookingService/internal/domain"
)

// Request модель запроса на получение слотов
type Request struct {
	Date          civil.Date // Локальная дата в часовом поясе школы
	BufferMinutes *int       // Переопределение буфера для этого запроса (опционально)
}

// Response модель ответа со списком слотов
type Response struct {
	Date     civil.Date
	Timezone string
	// CalendarDegraded внешний календарь не ответил, учтены только бронирования
	CalendarDegraded bool
	Slots            []domain.TimeSlot
}
