package catalogservice

import (
	"errors"
	"fmt"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
)

var (
	// ErrStaffNotFound возвращается, когда мастер отсутствует в каталоге
	ErrStaffNotFound = fmt.Errorf("%w: staff not found in catalog", domain.ErrNotFound)

	// ErrServiceNotFound возвращается, когда услуга отсутствует в каталоге
	ErrServiceNotFound = fmt.Errorf("%w: service not found in catalog", domain.ErrNotFound)

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("catalogservice client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от сервиса
	ErrInvalidResponse = errors.New("catalogservice client: invalid response")
)
