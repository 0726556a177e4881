package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
	"github.com/nguessop/nguessbeauty-sub001/internal/service/analytics/models"
)

// Service сервис аналитики
// Ничего не хранит: каждый запрос пересчитывает снимок из истории
type Service struct {
	bookingRepo     BookingRepository
	transactionRepo TransactionRepository
	txManager       TransactionManager
	timeProvider    TimeProvider
	logger          Logger
}

// NewService создает новый экземпляр сервиса аналитики
func NewService(
	bookingRepo BookingRepository,
	transactionRepo TransactionRepository,
	txManager TransactionManager,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo:     bookingRepo,
		transactionRepo: transactionRepo,
		txManager:       txManager,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// WithTimeProvider подменяет источник времени
func (s *Service) WithTimeProvider(tp TimeProvider) *Service {
	s.timeProvider = tp
	return s
}

// GetAnalytics рассчитывает снимок за период с фильтрами
func (s *Service) GetAnalytics(ctx context.Context, req *models.GetAnalyticsRequest) (*models.AnalyticsResponse, error) {
	s.logger.Info("GetAnalytics: period=%s..%s, salon=%v, staff=%v, service=%v",
		req.From.Format(time.RFC3339), req.To.Format(time.RFC3339), req.SalonID, req.StaffID, req.ServiceID)

	// 1. Часовой пояс для распределения по часам
	loc := time.UTC
	if req.Timezone != "" {
		l, err := time.LoadLocation(req.Timezone)
		if err != nil {
			s.logger.Warn("GetAnalytics: unknown timezone %q", req.Timezone)
			return nil, fmt.Errorf("%w: unknown timezone %q", ErrInvalidInput, req.Timezone)
		}
		loc = l
	}

	// 2. Период; AsOf по умолчанию min(To, now)
	period := domain.Period{From: req.From.UTC(), To: req.To.UTC()}
	if req.AsOf != nil {
		period.AsOf = req.AsOf.UTC()
	} else {
		period.AsOf = s.timeProvider.Now().UTC()
		if period.To.Before(period.AsOf) {
			period.AsOf = period.To
		}
	}
	if err := period.Validate(); err != nil {
		s.logger.Warn("GetAnalytics: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	filter := domain.AnalyticsFilter{
		SalonID:   req.SalonID,
		StaffID:   req.StaffID,
		ServiceID: req.ServiceID,
	}

	// 3. Читаем историю в одной read-only транзакции, чтобы данные были согласованы
	var (
		bookings     []*domain.Booking
		transactions []*domain.Transaction
	)
	err := s.txManager.DoReadOnly(ctx, func(txCtx context.Context) error {
		var err error
		bookings, err = s.bookingRepo.ListByFilter(txCtx, filter.BookingFilter(period))
		if err != nil {
			return fmt.Errorf("%w: GetAnalytics - list bookings: %v", ErrInternal, err)
		}
		transactions, err = s.transactionRepo.ListForReport(txCtx, filter.TransactionFilter(period))
		if err != nil {
			return fmt.Errorf("%w: GetAnalytics - list transactions: %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("GetAnalytics: %v", err)
		return nil, err
	}

	// 4. Чистый расчет
	snapshot := Compute(bookings, transactions, period, filter, loc)

	s.logger.Info("GetAnalytics: %d bookings, %d transactions, revenue=%d",
		snapshot.BookingCount, snapshot.TransactionCount, snapshot.Revenue)
	return models.FromDomainSnapshot(snapshot), nil
}
