package bookings

import (
	"context"
	"time"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
	paymentModels "github.com/nguessop/nguessbeauty-sub001/internal/service/payments/models"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	ListByFilter(ctx context.Context, filter domain.BookingFilter) ([]*domain.Booking, error)
	UpdateStatus(ctx context.Context, change domain.StatusChange) error
	SetCheckIn(ctx context.Context, id int64, at time.Time) error
}

// PolicyProvider источник действующей политики (период ожидания неявки)
type PolicyProvider interface {
	Effective(ctx context.Context, salonID int64, serviceID *int64) (*domain.BookingPolicy, error)
}

// Refunder возвращает оплату отмененного бронирования
type Refunder interface {
	RefundForBooking(ctx context.Context, bookingID int64) (*paymentModels.RefundResponse, error)
}

// Metrics интерфейс метрик жизненного цикла
type Metrics interface {
	IncBookingTransition(from, to string)
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
