package transaction

import "errors"

var (
	// ErrTransactionNotFound возвращается, когда платежная транзакция не найдена
	ErrTransactionNotFound = errors.New("transaction.repository: transaction not found")

	// ErrDuplicateIdempotencyKey возвращается при повторном использовании ключа идемпотентности
	ErrDuplicateIdempotencyKey = errors.New("transaction.repository: duplicate idempotency key")

	// ErrLiveTransactionExists возвращается, когда у бронирования уже есть действующая транзакция
	ErrLiveTransactionExists = errors.New("transaction.repository: booking already has a live transaction")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("transaction.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("transaction.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("transaction.repository: failed to scan row")
)
