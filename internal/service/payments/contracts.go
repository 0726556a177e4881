package payments

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
)

// TransactionRepository интерфейс репозитория платежных транзакций
type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error)
	GetLiveByBooking(ctx context.Context, bookingID int64) (*domain.Transaction, error)
	Update(ctx context.Context, tx *domain.Transaction) error
}

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error)
	UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus, at time.Time) error
}

// PolicyProvider источник действующей политики (ставка комиссии и её версия)
type PolicyProvider interface {
	Effective(ctx context.Context, salonID int64, serviceID *int64) (*domain.BookingPolicy, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Metrics интерфейс метрик платежей
type Metrics interface {
	IncPayment(status string)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
