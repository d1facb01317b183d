package create_booking

import (
	"cloud.google.com/go/civil"

	"github.com/m04kA/DrivingSchool-BookingService/internal/domain"
	"github.com/m04kA/DrivingSchool-BookingService/pkg/types"
)

// Request модель запроса на создание бронирования
type Request struct {
	UserID          int64
	Date            civil.Date
	StartTime       types.TimeString
	DurationMinutes int
	LessonType      string
	Notes           *string
	IdempotencyKey  *string
}

// Response результат создания бронирования
type Response struct {
	Booking *domain.Booking
	// Replayed бронирование уже было создано этим же запросом ранее
	Replayed bool
}
