package conflicts

import (
	"errors"
	"fmt"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
)

var (
	// ErrInvalidInterval возвращается для пустого или перевернутого интервала
	ErrInvalidInterval = fmt.Errorf("%w: interval end must be after start", domain.ErrValidation)

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("conflicts: internal error")
)
