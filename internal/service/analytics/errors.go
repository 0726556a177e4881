package analytics

import (
	"errors"
	"fmt"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
)

var (
	// ErrInvalidInput возвращается при некорректном периоде, фильтре или часовом поясе
	ErrInvalidInput = fmt.Errorf("%w: invalid analytics request", domain.ErrValidation)

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("analytics: internal error")
)
