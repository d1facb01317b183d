package calendar

import "time"

// bookingIDProperty приватное свойство событий, созданных сервисом
// Такие события не считаются внешней занятостью: бронирования читаются из БД
const bookingIDProperty = "bookingId"

// EventRequest данные для создания события урока
type EventRequest struct {
	BookingID   int64
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	TimeZone    string
}
