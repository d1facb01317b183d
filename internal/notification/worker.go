package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/m04kA/DrivingSchool-BookingService/internal/integrations/mailer"
	"github.com/m04kA/DrivingSchool-BookingService/internal/integrations/userservice"
)

var subjects = map[Kind]string{
	KindBookingConfirmed: "Урок подтверждён",
	KindBookingCancelled: "Урок отменён",
}

// Worker обрабатывает задачи уведомлений
type Worker struct {
	users      UserDirectory
	mailer     Mailer
	adminEmail string
	log        Logger
}

func NewWorker(users UserDirectory, mailer Mailer, adminEmail string, log Logger) *Worker {
	return &Worker{
		users:      users,
		mailer:     mailer,
		adminEmail: adminEmail,
		log:        log,
	}
}

// Mux регистрирует обработчики всех видов уведомлений
func (w *Worker) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(taskType(KindBookingConfirmed), w.handler(KindBookingConfirmed))
	mux.HandleFunc(taskType(KindBookingCancelled), w.handler(KindBookingCancelled))
	return mux
}

func (w *Worker) handler(kind Kind) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		return w.Handle(ctx, kind, task.Payload())
	}
}

// Handle отправляет письмо ученику и копию администратору
// Ошибки, которые не исправятся повтором, помечаются asynq.SkipRetry
func (w *Worker) Handle(ctx context.Context, kind Kind, raw []byte) error {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		w.log.Error("NotificationWorker: invalid %s payload: %v", kind, err)
		return fmt.Errorf("invalid payload: %v: %w", err, asynq.SkipRetry)
	}

	user, err := w.users.GetUserWithGracefulDegradation(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, userservice.ErrUserNotFound) {
			return fmt.Errorf("user_id=%d not found: %w", p.UserID, asynq.SkipRetry)
		}
		return err
	}

	data := map[string]string{
		"bookingId":       fmt.Sprintf("%d", p.BookingID),
		"fullName":        user.FullName,
		"lessonDate":      p.LessonDate,
		"startTime":       p.StartTime,
		"durationMinutes": fmt.Sprintf("%d", p.DurationMinutes),
		"lessonType":      p.LessonType,
	}
	if p.HoursConsumed != "" {
		data["hoursConsumed"] = p.HoursConsumed
	}
	if p.HoursRefunded != "" {
		data["hoursRefunded"] = p.HoursRefunded
	}
	if p.Reason != "" {
		data["reason"] = p.Reason
	}

	recipients := []string{user.Email}
	if w.adminEmail != "" {
		recipients = append(recipients, w.adminEmail)
	}

	for _, to := range recipients {
		err := w.mailer.Send(ctx, &mailer.Email{
			To:       to,
			Subject:  subjects[kind],
			Template: string(kind),
			Data:     data,
		})
		if err != nil {
			if errors.Is(err, mailer.ErrRejected) || errors.Is(err, mailer.ErrNoRecipient) {
				w.log.Warn("NotificationWorker: %s for booking id=%d rejected for %s: %v", kind, p.BookingID, to, err)
				return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
			}
			w.log.Error("NotificationWorker: failed to send %s for booking id=%d: %v", kind, p.BookingID, err)
			return err
		}
	}

	w.log.Info("NotificationWorker: %s sent for booking id=%d", kind, p.BookingID)
	return nil
}
