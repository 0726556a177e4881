package get_payment

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/nguessop/nguessbeauty-sub001/internal/api/handlers"
	"github.com/nguessop/nguessbeauty-sub001/internal/service/payments"
)

const (
	msgInvalidTransactionID = "некорректный ID транзакции"
	msgNotFound             = "транзакция не найдена"
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

// Handle GET /api/v1/payments/{transactionId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["transactionId"])
	if err != nil {
		h.logger.Warn("GET /payments/{id} - Invalid transaction ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidTransactionID)
		return
	}

	tx, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, payments.ErrTransactionNotFound) {
			h.logger.Warn("GET /payments/{id} - Transaction not found: transaction_id=%s", id)
			handlers.RespondNotFound(w, msgNotFound)
			return
		}
		h.logger.Error("GET /payments/{id} - Failed to get transaction: transaction_id=%s, error=%v", id, err)
		handlers.RespondInternalError(w)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, tx)
}
