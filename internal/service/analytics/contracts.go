package analytics

import (
	"context"
	"time"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
)

// BookingRepository интерфейс чтения бронирований для отчетов
type BookingRepository interface {
	ListByFilter(ctx context.Context, filter domain.BookingFilter) ([]*domain.Booking, error)
}

// TransactionRepository интерфейс чтения транзакций для отчетов
type TransactionRepository interface {
	ListForReport(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
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
