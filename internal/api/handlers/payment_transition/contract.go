package payment_transition

import (
	"context"

	"github.com/google/uuid"

	"github.com/nguessop/nguessbeauty-sub001/internal/service/payments/models"
)

type PaymentService interface {
	ApplySettlement(ctx context.Context, id uuid.UUID, req *models.SettlementRequest) (*models.TransactionResponse, error)
	Refund(ctx context.Context, id uuid.UUID, amount int64) (*models.RefundResponse, error)
	ReleasePayout(ctx context.Context, id uuid.UUID) (*models.TransactionResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
