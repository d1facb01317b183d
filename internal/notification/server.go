package notification

import (
	"github.com/hibiken/asynq"
)

// Server фоновый обработчик очереди уведомлений
type Server struct {
	srv    *asynq.Server
	worker *Worker
	log    Logger
}

// NewServer создает asynq-сервер для одной очереди
func NewServer(redisOpt asynq.RedisClientOpt, queue string, concurrency int, worker *Worker, log Logger) *Server {
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	return &Server{
		srv:    srv,
		worker: worker,
		log:    log,
	}
}

// Start запускает обработку задач в фоне
func (s *Server) Start() error {
	if err := s.srv.Start(s.worker.Mux()); err != nil {
		return err
	}
	s.log.Info("Notification worker started")
	return nil
}

// Shutdown дожидается текущих задач и останавливает сервер
func (s *Server) Shutdown() {
	s.srv.Shutdown()
	s.log.Info("Notification worker stopped")
}
