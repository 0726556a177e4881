package policy

import (
	"context"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
)

// PolicyRepository интерфейс репозитория политик бронирования
type PolicyRepository interface {
	Create(ctx context.Context, policy *domain.BookingPolicy) (*domain.BookingPolicy, error)
	GetBySalonAndService(ctx context.Context, salonID int64, serviceID *int64) (*domain.BookingPolicy, error)
	GetPolicyWithHierarchy(ctx context.Context, salonID int64, serviceID *int64) (*domain.BookingPolicy, error)
	GetAllBySalon(ctx context.Context, salonID int64) ([]*domain.BookingPolicy, error)
	Update(ctx context.Context, policy *domain.BookingPolicy) (*domain.BookingPolicy, error)
	DeleteBySalonAndService(ctx context.Context, salonID int64, serviceID *int64) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
