package record_payment

import (
	"errors"
	"net/http"

	"github.com/nguessop/nguessbeauty-sub001/internal/api/handlers"
	"github.com/nguessop/nguessbeauty-sub001/internal/service/payments"
	"github.com/nguessop/nguessbeauty-sub001/internal/service/payments/models"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"

	msgInvalidBookingID    = "некорректный ID бронирования"
	msgInvalidRequestBody  = "некорректное тело запроса"
	msgMissingKey          = "заголовок Idempotency-Key обязателен"
	msgBookingNotFound     = "бронирование не найдено"
	msgInvalidInput        = "некорректные данные платежа"
	msgBookingNotPayable   = "бронирование в текущем статусе не принимает оплату"
	msgPaymentExists       = "у бронирования уже есть действующий платеж"
	msgIdempotencyKeyInUse = "ключ идемпотентности уже использован для другого бронирования"
)

type Handler struct {
	service PaymentService
	logger  Logger
}

func NewHandler(service PaymentService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings/{bookingId}/payments
// Повтор с тем же Idempotency-Key возвращает исходную транзакцию
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	bookingID, err := handlers.PathInt64(r, "bookingId")
	if err != nil {
		h.logger.Warn("POST /bookings/{id}/payments - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	key := r.Header.Get(HeaderIdempotencyKey)
	if key == "" {
		h.logger.Warn("POST /bookings/{id}/payments - Missing idempotency key: booking_id=%d", bookingID)
		handlers.RespondBadRequest(w, msgMissingKey)
		return
	}

	var req models.RecordPaymentRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings/{id}/payments - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	req.BookingID = bookingID
	req.IdempotencyKey = key

	tx, err := h.service.RecordPayment(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrBookingNotFound):
			h.logger.Warn("POST /bookings/{id}/payments - Booking not found: booking_id=%d", bookingID)
			handlers.RespondNotFound(w, msgBookingNotFound)

		case errors.Is(err, payments.ErrBookingNotPayable):
			h.logger.Warn("POST /bookings/{id}/payments - Booking not payable: booking_id=%d", bookingID)
			handlers.RespondBadRequest(w, msgBookingNotPayable)

		case errors.Is(err, payments.ErrInvalidInput):
			h.logger.Warn("POST /bookings/{id}/payments - Invalid input: booking_id=%d, error=%v", bookingID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		case errors.Is(err, payments.ErrPaymentExists):
			h.logger.Warn("POST /bookings/{id}/payments - Live payment exists: booking_id=%d", bookingID)
			handlers.RespondConflict(w, msgPaymentExists)

		case errors.Is(err, payments.ErrIdempotencyKeyReused):
			h.logger.Warn("POST /bookings/{id}/payments - Idempotency key reused: booking_id=%d", bookingID)
			handlers.RespondConflict(w, msgIdempotencyKeyInUse)

		default:
			h.logger.Error("POST /bookings/{id}/payments - Failed to record payment: booking_id=%d, error=%v",
				bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings/{id}/payments - Payment recorded: booking_id=%d, transaction_id=%s, status=%s",
		bookingID, tx.ID, tx.Status)
	handlers.RespondJSON(w, http.StatusCreated, tx)
}
