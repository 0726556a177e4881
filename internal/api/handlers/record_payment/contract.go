package record_payment

import (
	"context"

	"github.com/nguessop/nguessbeauty-sub001/internal/service/payments/models"
)

type PaymentService interface {
	RecordPayment(ctx context.Context, req *models.RecordPaymentRequest) (*models.TransactionResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
