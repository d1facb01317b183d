package notification

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Kind тип уведомления
type Kind string

const (
	KindBookingConfirmed Kind = "booking_confirmed"
	KindBookingCancelled Kind = "booking_cancelled"
)

// taskType имя задачи asynq для вида уведомления
func taskType(kind Kind) string {
	return "notification:" + string(kind)
}

// Payload данные уведомления о бронировании
type Payload struct {
	BookingID       int64  `json:"bookingId"`
	UserID          int64  `json:"userId"`
	LessonDate      string `json:"lessonDate"`
	StartTime       string `json:"startTime"`
	DurationMinutes int    `json:"durationMinutes"`
	LessonType      string `json:"lessonType"`
	HoursConsumed   string `json:"hoursConsumed,omitempty"`
	HoursRefunded   string `json:"hoursRefunded,omitempty"`
	Reason          string `json:"reason,omitempty"`
}

func newTask(kind Kind, payload Payload, opts ...asynq.Option) (*asynq.Task, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", kind, err)
	}
	return asynq.NewTask(taskType(kind), b, opts...), nil
}
