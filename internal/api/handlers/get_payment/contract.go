package get_payment

import (
	"context"

	"github.com/google/uuid"

	"github.com/nguessop/nguessbeauty-sub001/internal/service/payments/models"
)

type PaymentService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.TransactionResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
