package conflicts

import (
	"context"
	"time"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
)

// BookingRepository интерфейс чтения занятости мастера
type BookingRepository interface {
	FindOverlapping(ctx context.Context, staffID int64, start, end time.Time) ([]*domain.Booking, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
