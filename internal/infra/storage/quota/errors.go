package quota

import "errors"

var (
	// ErrNegativeBalance возвращается, когда изменение увело бы баланс ниже нуля
	ErrNegativeBalance = errors.New("quota.repository: balance would become negative")

	// ErrDuplicateEntry возвращается при повторном списании или возврате по одному бронированию
	ErrDuplicateEntry = errors.New("quota.repository: duplicate ledger entry for booking")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("quota.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("quota.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("quota.repository: failed to scan row")
)
