package notification

import (
	"context"

	"github.com/hibiken/asynq"

	"github.com/m04kA/DrivingSchool-BookingService/internal/integrations/mailer"
	"github.com/m04kA/DrivingSchool-BookingService/internal/integrations/userservice"
)

// Enqueuer постановка задач в очередь (asynq.Client)
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// UserDirectory источник контактов пользователя
type UserDirectory interface {
	GetUserWithGracefulDegradation(ctx context.Context, userID int64) (*userservice.User, error)
}

// Mailer отправка писем
type Mailer interface {
	Send(ctx context.Context, email *mailer.Email) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
