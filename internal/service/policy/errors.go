package policy

import (
	"errors"
	"fmt"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
)

var (
	// ErrPolicyNotFound возвращается, когда у салона нет политики на указанном уровне
	ErrPolicyNotFound = fmt.Errorf("%w: policy not found", domain.ErrNotFound)

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = fmt.Errorf("%w: invalid policy data", domain.ErrValidation)

	// ErrVersionConflict возвращается, когда политика была изменена другим запросом
	ErrVersionConflict = fmt.Errorf("%w: policy was modified concurrently", domain.ErrConflict)

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)
