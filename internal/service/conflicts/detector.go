package conflicts

import (
	"context"
	"fmt"
	"time"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
)

// Detector проверяет пересечение интервала с активными бронированиями мастера
// Для гарантии при создании вызывается внутри транзакции после LockStaff
type Detector struct {
	bookingRepo BookingRepository
	logger      Logger
}

// NewDetector создает детектор конфликтов
func NewDetector(bookingRepo BookingRepository, logger Logger) *Detector {
	return &Detector{
		bookingRepo: bookingRepo,
		logger:      logger,
	}
}

// HasConflict возвращает true, если [start, end) пересекается хотя бы с одним
// бронированием мастера в статусе pending, confirmed или completed
func (d *Detector) HasConflict(ctx context.Context, staffID int64, start, end time.Time) (bool, error) {
	conflicting, err := d.Conflicting(ctx, staffID, start, end)
	if err != nil {
		return false, err
	}
	return len(conflicting) > 0, nil
}

// Conflicting возвращает бронирования, с которыми пересекается [start, end)
func (d *Detector) Conflicting(ctx context.Context, staffID int64, start, end time.Time) ([]*domain.Booking, error) {
	if !end.After(start) {
		return nil, ErrInvalidInterval
	}

	candidate := domain.Interval{Start: start, End: end}

	bookings, err := d.bookingRepo.FindOverlapping(ctx, staffID, start, end)
	if err != nil {
		d.logger.Error("HasConflict: repository error for staff_id=%d: %v", staffID, err)
		return nil, fmt.Errorf("%w: HasConflict - repository error: %w", ErrInternal, err)
	}

	// репозиторий уже фильтрует, но правило пересечения и занятости проверяем здесь
	result := make([]*domain.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.IsActive() && b.Interval().Overlaps(candidate) {
			result = append(result, b)
		}
	}

	if len(result) > 0 {
		d.logger.Warn("HasConflict: staff_id=%d interval %s-%s overlaps %d booking(s)",
			staffID, start.Format(time.RFC3339), end.Format(time.RFC3339), len(result))
	}
	return result, nil
}
