package notification

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
)

// Dispatcher ставит уведомления в очередь asynq
// Notify никогда не возвращает ошибку: сбой очереди не должен откатывать бронирование
type Dispatcher struct {
	client   Enqueuer
	queue    string
	maxRetry int
	log      Logger
}

func NewDispatcher(client Enqueuer, queue string, maxRetry int, log Logger) *Dispatcher {
	return &Dispatcher{
		client:   client,
		queue:    queue,
		maxRetry: maxRetry,
		log:      log,
	}
}

// Notify ставит задачу отправки уведомления
func (d *Dispatcher) Notify(ctx context.Context, kind Kind, payload Payload) {
	task, err := newTask(kind, payload,
		asynq.Queue(d.queue),
		asynq.MaxRetry(d.maxRetry),
		asynq.Timeout(30*time.Second),
	)
	if err != nil {
		d.log.Error("Notify: %v", err)
		return
	}

	info, err := d.client.EnqueueContext(ctx, task)
	if err != nil {
		d.log.Error("Notify: failed to enqueue %s for booking id=%d: %v", kind, payload.BookingID, err)
		return
	}

	d.log.Info("Notify: enqueued %s for booking id=%d (task=%s)", kind, payload.BookingID, info.ID)
}

// Noop диспетчер для выключенных уведомлений
type Noop struct {
	log Logger
}

func NewNoop(log Logger) *Noop {
	return &Noop{log: log}
}

func (n *Noop) Notify(_ context.Context, kind Kind, payload Payload) {
	n.log.Info("Notify: notifications disabled, skip %s for booking id=%d", kind, payload.BookingID)
}
