package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
	bookingRepo "github.com/nguessop/nguessbeauty-sub001/internal/infra/storage/booking"
	"github.com/nguessop/nguessbeauty-sub001/internal/service/bookings/models"
)

// Service сервис жизненного цикла бронирований
// Все переходы выполняются как compare-and-swap по статусу
type Service struct {
	bookingRepo  BookingRepository
	policies     PolicyProvider
	refunder     Refunder
	metrics      Metrics
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	bookingRepo BookingRepository,
	policies PolicyProvider,
	refunder Refunder,
	metrics Metrics,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo:  bookingRepo,
		policies:     policies,
		refunder:     refunder,
		metrics:      metrics,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени
func (s *Service) WithTimeProvider(tp TimeProvider) *Service {
	s.timeProvider = tp
	return s
}

// GetByID получает бронирование по ID
func (s *Service) GetByID(ctx context.Context, id int64) (*models.BookingResponse, error) {
	s.logger.Info("GetByID: fetching booking id=%d", id)

	booking, err := s.get(ctx, "GetByID", id)
	if err != nil {
		return nil, err
	}

	return models.FromDomainBooking(booking), nil
}

// ListSalonBookings получает бронирования салона с фильтрацией
// По умолчанию возвращаются только бронирования, занимающие календарь
func (s *Service) ListSalonBookings(ctx context.Context, req *models.ListSalonBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("ListSalonBookings: fetching bookings for salon=%d, staff=%v, status=%v, includeInactive=%t",
		req.SalonID, req.StaffID, req.Status, req.IncludeInactive)

	if req.From != nil && req.To != nil && !req.To.After(*req.From) {
		s.logger.Warn("ListSalonBookings: invalid period for salon=%d", req.SalonID)
		return nil, fmt.Errorf("%w: period end must be after start", ErrInvalidInput)
	}

	filter, err := req.ToDomainFilter()
	if err != nil {
		s.logger.Warn("ListSalonBookings: invalid filter for salon=%d: %v", req.SalonID, err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	bookings, err := s.bookingRepo.ListByFilter(ctx, filter)
	if err != nil {
		s.logger.Error("ListSalonBookings: repository error for salon=%d: %v", req.SalonID, err)
		return nil, fmt.Errorf("%w: ListSalonBookings - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("ListSalonBookings: fetched %d bookings for salon=%d", len(bookings), req.SalonID)
	return models.FromDomainBookingList(bookings), nil
}

// ListClientBookings получает историю бронирований клиента, включая отмененные
func (s *Service) ListClientBookings(ctx context.Context, req *models.ListClientBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("ListClientBookings: fetching bookings for client=%d, status=%v", req.ClientID, req.Status)

	clientID := req.ClientID
	filter := domain.BookingFilter{ClientID: &clientID, IncludeInactive: true}
	if req.Status != nil {
		status, err := domain.ParseBookingStatus(*req.Status)
		if err != nil {
			s.logger.Warn("ListClientBookings: invalid status=%s for client=%d", *req.Status, req.ClientID)
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		filter.Status = &status
	}

	bookings, err := s.bookingRepo.ListByFilter(ctx, filter)
	if err != nil {
		s.logger.Error("ListClientBookings: repository error for client=%d: %v", req.ClientID, err)
		return nil, fmt.Errorf("%w: ListClientBookings - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainBookingList(bookings), nil
}

// Confirm подтверждает бронирование: pending -> confirmed
func (s *Service) Confirm(ctx context.Context, id int64, userID int64) (*models.BookingResponse, error) {
	s.logger.Info("Confirm: confirming booking id=%d by user=%d", id, userID)

	booking, err := s.transition(ctx, "Confirm", id, domain.EventConfirm, transitionParams{actorID: &userID})
	if err != nil {
		return nil, err
	}
	return models.FromDomainBooking(booking), nil
}

// Cancel отменяет бронирование: pending|confirmed -> cancelled
// После отмены оплаченный остаток возвращается отдельной операцией. Статус оплаты
// перечитывается уже после CAS, поэтому платеж, проведенный во время отмены, тоже возвращается.
// Отмена не откатывается при ошибке возврата.
func (s *Service) Cancel(ctx context.Context, id int64, req *models.CancelBookingRequest) (*models.CancelResult, error) {
	s.logger.Info("Cancel: cancelling booking id=%d by user=%d", id, req.UserID)

	if req.Reason != nil && len(*req.Reason) > domain.MaxCancelledReasonLength {
		s.logger.Warn("Cancel: reason too long for booking id=%d", id)
		return nil, fmt.Errorf("%w: reason must be at most %d characters", ErrInvalidInput, domain.MaxCancelledReasonLength)
	}

	userID := req.UserID
	booking, err := s.transition(ctx, "Cancel", id, domain.EventCancel, transitionParams{
		actorID: &userID,
		reason:  req.Reason,
	})
	if err != nil {
		return nil, err
	}

	result := &models.CancelResult{Booking: *models.FromDomainBooking(booking)}

	// RefundForBooking сам проверяет актуальный статус транзакции
	refund, err := s.refunder.RefundForBooking(ctx, booking.ID)
	if err != nil {
		s.logger.Error("Cancel: booking id=%d cancelled but refund failed: %v", booking.ID, err)
		result.RefundError = err
		return result, nil
	}
	if refund != nil {
		s.logger.Info("Cancel: refunded %d for booking id=%d", refund.Refunded, booking.ID)
		result.Refund = refund
		result.Booking.PaymentStatus = refund.Transaction.Status
	}

	return result, nil
}

// Complete завершает визит: confirmed -> completed
// Без override допустимо только после окончания визита
func (s *Service) Complete(ctx context.Context, id int64, req *models.CompleteBookingRequest) (*models.BookingResponse, error) {
	s.logger.Info("Complete: completing booking id=%d by user=%d, override=%t", id, req.UserID, req.Override)

	userID := req.UserID
	booking, err := s.transition(ctx, "Complete", id, domain.EventComplete, transitionParams{
		actorID: &userID,
		guard: func(_ context.Context, b *domain.Booking, now time.Time) error {
			if req.Override || !now.Before(b.EndTime) {
				return nil
			}
			return fmt.Errorf("%w: booking ends at %s", ErrTooEarly, b.EndTime.Format(time.RFC3339))
		},
	})
	if err != nil {
		return nil, err
	}
	return models.FromDomainBooking(booking), nil
}

// MarkNoShow отмечает неявку: confirmed -> no_show
// Допустимо после начала визита плюс период ожидания политики, если клиент не отметился
func (s *Service) MarkNoShow(ctx context.Context, id int64, actorID *int64) (*models.BookingResponse, error) {
	s.logger.Info("MarkNoShow: booking id=%d, actor=%v", id, actorID)

	booking, err := s.transition(ctx, "MarkNoShow", id, domain.EventMarkNoShow, transitionParams{
		actorID:             actorID,
		requireNotCheckedIn: true,
		guard: func(ctx context.Context, b *domain.Booking, now time.Time) error {
			if b.IsCheckedIn() {
				return ErrAlreadyCheckedIn
			}
			serviceID := b.ServiceID
			policy, err := s.policies.Effective(ctx, b.SalonID, &serviceID)
			if err != nil {
				return fmt.Errorf("%w: get policy: %v", ErrInternal, err)
			}
			deadline := b.StartTime.Add(policy.Grace())
			if now.Before(deadline) {
				return fmt.Errorf("%w: grace period ends at %s", ErrTooEarly, deadline.Format(time.RFC3339))
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return models.FromDomainBooking(booking), nil
}

// CheckIn отмечает приход клиента на подтвержденное бронирование
// Окно: [начало - 1ч, конец). Повторный check-in возвращает бронирование без изменений.
func (s *Service) CheckIn(ctx context.Context, id int64, userID int64) (*models.BookingResponse, error) {
	s.logger.Info("CheckIn: booking id=%d by user=%d", id, userID)

	now := s.timeProvider.Now().UTC()

	booking, err := s.get(ctx, "CheckIn", id)
	if err != nil {
		return nil, err
	}

	if booking.Status != domain.StatusConfirmed {
		s.logger.Warn("CheckIn: booking id=%d is %s", id, booking.Status)
		return nil, fmt.Errorf("%w: cannot check in booking in status %s", ErrInvalidTransition, booking.Status)
	}
	if booking.IsCheckedIn() {
		return models.FromDomainBooking(booking), nil
	}

	opensAt := booking.StartTime.Add(-domain.CheckInWindowMinutes * time.Minute)
	if now.Before(opensAt) || !now.Before(booking.EndTime) {
		s.logger.Warn("CheckIn: booking id=%d outside check-in window", id)
		return nil, ErrCheckInWindow
	}

	if err := s.bookingRepo.SetCheckIn(ctx, id, now); err != nil {
		if errors.Is(err, bookingRepo.ErrStatusMismatch) {
			s.logger.Warn("CheckIn: booking id=%d changed concurrently", id)
			return nil, fmt.Errorf("%w: booking changed concurrently", ErrInvalidTransition)
		}
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			return nil, ErrBookingNotFound
		}
		s.logger.Error("CheckIn: repository error for booking id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: CheckIn - repository error: %v", ErrInternal, err)
	}

	booking.CheckedInAt = &now
	booking.UpdatedAt = now

	s.logger.Info("CheckIn: booking id=%d checked in", id)
	return models.FromDomainBooking(booking), nil
}

type transitionParams struct {
	actorID *int64
	reason  *string
	guard   func(ctx context.Context, b *domain.Booking, now time.Time) error

	// requireNotCheckedIn переносит проверку check-in в сам CAS
	requireNotCheckedIn bool
}

// transition применяет событие к бронированию через compare-and-swap
// Бронирование не меняется, если перехода нет, guard отказал или статус изменился конкурентно
func (s *Service) transition(ctx context.Context, method string, id int64, event domain.BookingEvent, p transitionParams) (*domain.Booking, error) {
	now := s.timeProvider.Now().UTC()

	// 1. Получаем текущее состояние
	booking, err := s.get(ctx, method, id)
	if err != nil {
		return nil, err
	}

	// 2. Проверяем наличие перехода
	next, err := booking.Status.Next(event)
	if err != nil {
		s.logger.Warn("%s: booking id=%d: %v", method, id, err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}

	// 3. Проверяем временные условия перехода
	if p.guard != nil {
		if err := p.guard(ctx, booking, now); err != nil {
			if errors.Is(err, ErrInternal) {
				s.logger.Error("%s: booking id=%d: %v", method, id, err)
			} else {
				s.logger.Warn("%s: booking id=%d: %v", method, id, err)
			}
			return nil, err
		}
	}

	// 4. CAS по статусу
	change := domain.StatusChange{
		BookingID: id,
		From:      booking.Status,
		To:        next,
		At:        now,

		RequireNotCheckedIn: p.requireNotCheckedIn,
	}
	if next == domain.StatusCancelled {
		change.ActorID = p.actorID
		change.Reason = p.reason
		change.CancelledAt = &now
	}

	if err := s.bookingRepo.UpdateStatus(ctx, change); err != nil {
		switch {
		case errors.Is(err, bookingRepo.ErrStatusMismatch):
			if p.requireNotCheckedIn && s.checkedInConcurrently(ctx, id) {
				s.logger.Warn("%s: booking id=%d checked in concurrently", method, id)
				return nil, ErrAlreadyCheckedIn
			}
			s.logger.Warn("%s: booking id=%d changed concurrently (expected %s)", method, id, booking.Status)
			return nil, fmt.Errorf("%w: booking status changed concurrently", ErrInvalidTransition)
		case errors.Is(err, bookingRepo.ErrBookingNotFound):
			return nil, ErrBookingNotFound
		}
		s.logger.Error("%s: repository error for booking id=%d: %v", method, id, err)
		return nil, fmt.Errorf("%w: %s - repository error: %v", ErrInternal, method, err)
	}

	s.metrics.IncBookingTransition(string(change.From), string(change.To))

	booking.Status = next
	booking.UpdatedAt = now
	if next == domain.StatusCancelled {
		booking.CancelledBy = change.ActorID
		booking.CancelledReason = change.Reason
		booking.CancelledAt = change.CancelledAt
	}

	s.logger.Info("%s: booking id=%d %s -> %s", method, id, change.From, change.To)
	return booking, nil
}

// checkedInConcurrently перечитывает бронирование после неудачного CAS
func (s *Service) checkedInConcurrently(ctx context.Context, id int64) bool {
	current, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return false
	}
	return current.Status == domain.StatusConfirmed && current.IsCheckedIn()
}

func (s *Service) get(ctx context.Context, method string, id int64) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("%s: booking id=%d not found", method, id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("%s: repository error for booking id=%d: %v", method, id, err)
		return nil, fmt.Errorf("%w: %s - repository error: %v", ErrInternal, method, err)
	}
	return booking, nil
}
