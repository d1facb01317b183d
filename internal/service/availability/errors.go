package availability

import "errors"

var (
	// ErrInvalidTimeSlot возвращается, когда время не попадает в сетку слотов или выходит за рабочие часы
	ErrInvalidTimeSlot = errors.New("availability: invalid time slot")

	// ErrBusySource возвращается, когда не удалось получить занятые интервалы из БД
	ErrBusySource = errors.New("availability: failed to load busy intervals")
)
