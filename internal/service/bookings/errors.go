package bookings

import (
	"errors"
	"fmt"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
)

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = fmt.Errorf("%w: booking not found", domain.ErrNotFound)

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = fmt.Errorf("%w: invalid input data", domain.ErrValidation)

	// ErrInvalidTransition возвращается, когда из текущего статуса нет перехода по событию
	ErrInvalidTransition = fmt.Errorf("%w: booking status does not allow this operation", domain.ErrInvalidStateTransition)

	// ErrTooEarly возвращается, когда переход допустим только после наступления времени
	// (завершение до конца визита без override, неявка до истечения периода ожидания)
	ErrTooEarly = fmt.Errorf("%w: too early for this transition", domain.ErrInvalidStateTransition)

	// ErrAlreadyCheckedIn возвращается при попытке отметить неявку после прихода клиента
	ErrAlreadyCheckedIn = fmt.Errorf("%w: client has already checked in", domain.ErrInvalidStateTransition)

	// ErrCheckInWindow возвращается, когда check-in вне окна [начало - 1ч, конец)
	ErrCheckInWindow = fmt.Errorf("%w: check-in is outside the allowed window", domain.ErrInvalidStateTransition)

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)
