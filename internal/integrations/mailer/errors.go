package mailer

import "errors"

var (
	// ErrNoRecipient возвращается, когда у письма нет адресата
	ErrNoRecipient = errors.New("mailer client: recipient is empty")

	// ErrRejected возвращается, когда почтовый сервис отклонил письмо (повтор не поможет)
	ErrRejected = errors.New("mailer client: email rejected")

	// ErrUnavailable возвращается, когда почтовый сервис недоступен (можно повторить)
	ErrUnavailable = errors.New("mailer client: service unavailable")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("mailer client: internal error")
)
