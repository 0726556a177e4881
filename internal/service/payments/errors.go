package payments

import (
	"errors"
	"fmt"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
)

var (
	// ErrTransactionNotFound возвращается, когда транзакция не найдена
	ErrTransactionNotFound = fmt.Errorf("%w: transaction not found", domain.ErrNotFound)

	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = fmt.Errorf("%w: booking not found", domain.ErrNotFound)

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = fmt.Errorf("%w: invalid payment data", domain.ErrValidation)

	// ErrBookingNotPayable возвращается для отмененных бронирований и неявок
	ErrBookingNotPayable = fmt.Errorf("%w: booking cannot accept payments in its status", domain.ErrValidation)

	// ErrPaymentExists возвращается, когда у бронирования уже есть действующая транзакция
	ErrPaymentExists = fmt.Errorf("%w: booking already has a live payment", domain.ErrConflict)

	// ErrIdempotencyKeyReused возвращается, когда ключ идемпотентности уже использован с другими параметрами платежа
	ErrIdempotencyKeyReused = fmt.Errorf("%w: idempotency key was used for a different payment", domain.ErrConflict)

	// ErrInvalidTransition возвращается, когда статус транзакции не допускает операцию
	ErrInvalidTransition = fmt.Errorf("%w: payment status does not allow this operation", domain.ErrInvalidStateTransition)

	// ErrPaymentFailed возвращается, когда шлюз отклонил платеж
	ErrPaymentFailed = fmt.Errorf("%w: settlement rejected by gateway", domain.ErrPaymentFailure)

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("payments: internal error")
)
