package get_availability

import (
	"context"
	"time"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
)

// BookingRepository интерфейс чтения занятости мастера
type BookingRepository interface {
	FindOverlapping(ctx context.Context, staffID int64, start, end time.Time) ([]*domain.Booking, error)
}

// CatalogClient интерфейс клиента каталога мастеров и услуг
type CatalogClient interface {
	GetStaff(ctx context.Context, staffID int64) (*domain.Staff, error)
	GetService(ctx context.Context, serviceID int64) (*domain.Service, error)
}

// PolicyProvider источник действующей политики салона
type PolicyProvider interface {
	Effective(ctx context.Context, salonID int64, serviceID *int64) (*domain.BookingPolicy, error)
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
