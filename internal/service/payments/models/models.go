package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
)

// MaxIdempotencyKeyLength ограничение длины ключа идемпотентности
const MaxIdempotencyKeyLength = 255

// Request модели

// RecordPaymentRequest запрос на регистрацию платежа по бронированию
type RecordPaymentRequest struct {
	BookingID      int64  `json:"-"`
	Amount         int64  `json:"amount"` // в минимальных единицах валюты
	Method         string `json:"method"` // card, cash, wallet, transfer
	IdempotencyKey string `json:"-"`      // заголовок Idempotency-Key
}

// SettlementRequest результат проведения платежа от платежного шлюза
type SettlementRequest struct {
	Success bool   `json:"success"`
	Amount  int64  `json:"amount"`
	Reason  string `json:"reason,omitempty"`
}

// RefundRequest запрос на возврат
type RefundRequest struct {
	Amount int64 `json:"amount"`
}

// Response модели

// TransactionResponse ответ с данными транзакции
type TransactionResponse struct {
	ID                 uuid.UUID  `json:"id"`
	BookingID          int64      `json:"bookingId"`
	Amount             int64      `json:"amount"`
	CommissionRate     string     `json:"commissionRate"`
	PolicyVersion      int        `json:"policyVersion"`
	CommissionAmount   int64      `json:"commissionAmount"`
	PayoutAmount       int64      `json:"payoutAmount"`
	RefundedAmount     int64      `json:"refundedAmount"`
	CommissionReversed int64      `json:"commissionReversed"`
	Method             string     `json:"method"`
	Status             string     `json:"status"`
	FailureReason      *string    `json:"failureReason,omitempty"`
	OccurredAt         time.Time  `json:"occurredAt"`
	SettledAt          *time.Time `json:"settledAt,omitempty"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// RefundResponse ответ на возврат
type RefundResponse struct {
	Transaction        TransactionResponse `json:"transaction"`
	Refunded           int64               `json:"refunded"`
	CommissionReversal int64               `json:"commissionReversal"`
	PayoutReversal     int64               `json:"payoutReversal"`
}

// Методы конвертации

// FromDomainTransaction конвертирует domain модель в DTO
func FromDomainTransaction(t *domain.Transaction) *TransactionResponse {
	if t == nil {
		return nil
	}

	return &TransactionResponse{
		ID:                 t.ID,
		BookingID:          t.BookingID,
		Amount:             t.Amount,
		CommissionRate:     t.CommissionRate.String(),
		PolicyVersion:      t.PolicyVersion,
		CommissionAmount:   t.CommissionAmount,
		PayoutAmount:       t.PayoutAmount,
		RefundedAmount:     t.RefundedAmount,
		CommissionReversed: t.CommissionReversed,
		Method:             string(t.Method),
		Status:             string(t.Status),
		FailureReason:      t.FailureReason,
		OccurredAt:         t.OccurredAt,
		SettledAt:          t.SettledAt,
		UpdatedAt:          t.UpdatedAt,
	}
}

// FromDomainRefund собирает ответ на возврат
func FromDomainRefund(t *domain.Transaction, r domain.RefundResult) *RefundResponse {
	return &RefundResponse{
		Transaction:        *FromDomainTransaction(t),
		Refunded:           r.Refunded,
		CommissionReversal: r.CommissionReversal,
		PayoutReversal:     r.PayoutReversal,
	}
}
