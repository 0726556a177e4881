package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
	bookingRepo "github.com/nguessop/nguessbeauty-sub001/internal/infra/storage/booking"
)

// BookingRepository реализация репозитория бронирований в памяти
// Возвращает те же ошибки, что и postgres-репозиторий
type BookingRepository struct {
	store *Store
}

// NewBookingRepository создает репозиторий бронирований поверх store
func NewBookingRepository(store *Store) *BookingRepository {
	return &BookingRepository{store: store}
}

// Create сохраняет бронирование, проверяя пересечение так же, как exclusion constraint в postgres
func (r *BookingRepository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if booking.IsActive() {
		for _, existing := range s.bookings {
			if existing.StaffID == booking.StaffID && existing.IsActive() && existing.Interval().Overlaps(booking.Interval()) {
				return nil, fmt.Errorf("%w: Create - staff_id=%d overlaps booking id=%d",
					bookingRepo.ErrSlotNotAvailable, booking.StaffID, existing.ID)
			}
		}
	}

	s.nextBookingID++
	booking.ID = s.nextBookingID
	stored := booking.Clone()
	s.bookings[stored.ID] = stored

	id := stored.ID
	s.record(ctx, func() { delete(s.bookings, id) })

	return booking, nil
}

// GetByID получает бронирование по ID
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	return b.Clone(), nil
}

// GetByIDForUpdate в памяти не блокирует строку: изменения защищены CAS в UpdateStatus
func (r *BookingRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	return r.GetByID(ctx, id)
}

// LockStaff берет блокировку календаря мастера до завершения транзакции
func (r *BookingRepository) LockStaff(ctx context.Context, staffID int64) error {
	if err := r.store.lockStaff(ctx, staffID); err != nil {
		return fmt.Errorf("%w: LockStaff - staff_id=%d: %w", bookingRepo.ErrTransaction, staffID, err)
	}
	return nil
}

// FindOverlapping возвращает активные бронирования мастера, пересекающиеся с [start, end)
func (r *BookingRepository) FindOverlapping(ctx context.Context, staffID int64, start, end time.Time) ([]*domain.Booking, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	window := domain.Interval{Start: start, End: end}
	result := make([]*domain.Booking, 0)
	for _, b := range s.bookings {
		if b.StaffID == staffID && b.IsActive() && b.Interval().Overlaps(window) {
			result = append(result, b.Clone())
		}
	}

	sortBookings(result)
	return result, nil
}

// ListByFilter получает бронирования по фильтру
func (r *BookingRepository) ListByFilter(ctx context.Context, filter domain.BookingFilter) ([]*domain.Booking, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Booking, 0)
	for _, b := range s.bookings {
		if filter.Matches(b) {
			result = append(result, b.Clone())
		}
	}

	sortBookings(result)
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

// ListNoShowCandidates возвращает подтвержденные бронирования без check-in, начавшиеся до startedBefore
func (r *BookingRepository) ListNoShowCandidates(ctx context.Context, startedBefore time.Time, after *domain.BookingCursor, limit int) ([]*domain.Booking, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Booking, 0)
	for _, b := range s.bookings {
		if b.Status == domain.StatusConfirmed && !b.IsCheckedIn() && !b.StartTime.After(startedBefore) && after.After(b) {
			result = append(result, b.Clone())
		}
	}

	sortBookings(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// UpdateStatus выполняет compare-and-swap перехода статуса
func (r *BookingRepository) UpdateStatus(ctx context.Context, change domain.StatusChange) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[change.BookingID]
	if !ok {
		return bookingRepo.ErrBookingNotFound
	}
	if b.Status != change.From {
		return bookingRepo.ErrStatusMismatch
	}
	if change.RequireNotCheckedIn && b.IsCheckedIn() {
		return bookingRepo.ErrStatusMismatch
	}

	prev := b.Clone()
	s.record(ctx, func() { s.bookings[prev.ID] = prev })

	b.Status = change.To
	b.UpdatedAt = change.At
	if change.To == domain.StatusCancelled {
		b.CancelledBy = change.ActorID
		b.CancelledReason = change.Reason
		b.CancelledAt = change.CancelledAt
	}
	return nil
}

// SetCheckIn отмечает приход клиента на подтвержденное бронирование
func (r *BookingRepository) SetCheckIn(ctx context.Context, id int64, at time.Time) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return bookingRepo.ErrBookingNotFound
	}
	if b.Status != domain.StatusConfirmed || b.IsCheckedIn() {
		return bookingRepo.ErrStatusMismatch
	}

	prev := b.Clone()
	s.record(ctx, func() { s.bookings[prev.ID] = prev })

	checkedIn := at
	b.CheckedInAt = &checkedIn
	b.UpdatedAt = at
	return nil
}

// UpdatePaymentStatus обновляет зеркальный статус оплаты бронирования
func (r *BookingRepository) UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus, at time.Time) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return bookingRepo.ErrBookingNotFound
	}

	prev := b.Clone()
	s.record(ctx, func() { s.bookings[prev.ID] = prev })

	b.PaymentStatus = status
	b.UpdatedAt = at
	return nil
}

func sortBookings(bookings []*domain.Booking) {
	sort.Slice(bookings, func(i, j int) bool {
		if bookings[i].StartTime.Equal(bookings[j].StartTime) {
			return bookings[i].ID < bookings[j].ID
		}
		return bookings[i].StartTime.Before(bookings[j].StartTime)
	})
}
