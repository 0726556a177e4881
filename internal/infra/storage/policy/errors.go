package policy

import "errors"

var (
	// ErrPolicyNotFound возвращается, когда политика не найдена
	ErrPolicyNotFound = errors.New("policy.repository: policy not found")

	// ErrDuplicatePolicy возвращается при попытке создать дубликат политики для салона и услуги
	ErrDuplicatePolicy = errors.New("policy.repository: duplicate policy for salon and service")

	// ErrVersionConflict возвращается, когда политика была изменена конкурентно
	ErrVersionConflict = errors.New("policy.repository: policy version changed concurrently")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("policy.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("policy.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("policy.repository: failed to scan row")
)
