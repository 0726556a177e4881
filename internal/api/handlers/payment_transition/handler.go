package payment_transition

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/nguessop/nguessbeauty-sub001/internal/api/handlers"
	"github.com/nguessop/nguessbeauty-sub001/internal/service/payments"
	"github.com/nguessop/nguessbeauty-sub001/internal/service/payments/models"
)

const (
	msgInvalidTransactionID = "некорректный ID транзакции"
	msgInvalidRequestBody   = "некорректное тело запроса"
	msgNotFound             = "транзакция не найдена"
	msgInvalidInput         = "некорректные данные операции"
	msgInvalidTransition    = "статус транзакции не допускает эту операцию"
	msgPaymentFailed        = "платеж отклонен платежным шлюзом"
)

// Handler обработчики операций над платежной транзакцией
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

// Settle POST /api/v1/payments/{transactionId}/settlement
// Колбэк платежного шлюза; повторная доставка того же результата идемпотентна
func (h *Handler) Settle(w http.ResponseWriter, r *http.Request) {
	id, ok := h.transactionID(w, r, "settlement")
	if !ok {
		return
	}

	var req models.SettlementRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /payments/{id}/settlement - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	tx, err := h.service.ApplySettlement(r.Context(), id, &req)
	if err != nil {
		h.respondError(w, "settlement", id, err)
		return
	}

	h.logger.Info("POST /payments/{id}/settlement - Settlement applied: transaction_id=%s, status=%s", id, tx.Status)
	handlers.RespondJSON(w, http.StatusOK, tx)
}

// Refund POST /api/v1/payments/{transactionId}/refunds
func (h *Handler) Refund(w http.ResponseWriter, r *http.Request) {
	id, ok := h.transactionID(w, r, "refunds")
	if !ok {
		return
	}

	var req models.RefundRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /payments/{id}/refunds - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	res, err := h.service.Refund(r.Context(), id, req.Amount)
	if err != nil {
		h.respondError(w, "refunds", id, err)
		return
	}

	h.logger.Info("POST /payments/{id}/refunds - Refund applied: transaction_id=%s, refunded=%d, commission_reversal=%d",
		id, res.Refunded, res.CommissionReversal)
	handlers.RespondJSON(w, http.StatusOK, res)
}

// Payout POST /api/v1/payments/{transactionId}/payout
func (h *Handler) Payout(w http.ResponseWriter, r *http.Request) {
	id, ok := h.transactionID(w, r, "payout")
	if !ok {
		return
	}

	tx, err := h.service.ReleasePayout(r.Context(), id)
	if err != nil {
		h.respondError(w, "payout", id, err)
		return
	}

	h.logger.Info("POST /payments/{id}/payout - Payout released: transaction_id=%s, payout=%d", id, tx.PayoutAmount)
	handlers.RespondJSON(w, http.StatusOK, tx)
}

func (h *Handler) transactionID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["transactionId"])
	if err != nil {
		h.logger.Warn("POST /payments/{id}/%s - Invalid transaction ID: %v", name, err)
		handlers.RespondBadRequest(w, msgInvalidTransactionID)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, name string, id uuid.UUID, err error) {
	switch {
	case errors.Is(err, payments.ErrTransactionNotFound):
		h.logger.Warn("POST /payments/{id}/%s - Transaction not found: transaction_id=%s", name, id)
		handlers.RespondNotFound(w, msgNotFound)

	case errors.Is(err, payments.ErrPaymentFailed):
		h.logger.Warn("POST /payments/{id}/%s - Payment failed: transaction_id=%s, error=%v", name, id, err)
		handlers.RespondError(w, http.StatusPaymentRequired, msgPaymentFailed)

	case errors.Is(err, payments.ErrInvalidTransition):
		h.logger.Warn("POST /payments/{id}/%s - Invalid transition: transaction_id=%s, error=%v", name, id, err)
		handlers.RespondConflict(w, msgInvalidTransition)

	case errors.Is(err, payments.ErrInvalidInput):
		h.logger.Warn("POST /payments/{id}/%s - Invalid input: transaction_id=%s, error=%v", name, id, err)
		handlers.RespondBadRequest(w, msgInvalidInput)

	default:
		h.logger.Error("POST /payments/{id}/%s - Failed: transaction_id=%s, error=%v", name, id, err)
		handlers.RespondDomainError(w, err, msgInvalidInput)
	}
}
