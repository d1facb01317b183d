package calendar

import "errors"

var (
	// ErrUnavailable возвращается, когда календарь недоступен или ответил ошибкой
	ErrUnavailable = errors.New("calendar client: upstream unavailable")

	// ErrInvalidEvent возвращается, когда событие календаря невозможно разобрать
	ErrInvalidEvent = errors.New("calendar client: invalid event")

	// ErrDisabled возвращается клиентом-заглушкой, когда интеграция выключена
	ErrDisabled = errors.New("calendar client: integration disabled")
)
