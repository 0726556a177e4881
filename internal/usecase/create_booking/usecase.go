package create_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
	bookingRepo "github.com/nguessop/nguessbeauty-sub001/internal/infra/storage/booking"
	"github.com/nguessop/nguessbeauty-sub001/internal/integrations/catalogservice"
	"github.com/nguessop/nguessbeauty-sub001/pkg/txmanager"
)

// UseCase use case для создания бронирования
type UseCase struct {
	bookingRepo   BookingRepository
	conflicts     ConflictDetector
	catalog       CatalogClient
	policies      PolicyProvider
	txManager     TransactionManager
	metrics       Metrics
	timeProvider  TimeProvider
	pastTolerance time.Duration
	logger        Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	conflicts ConflictDetector,
	catalog CatalogClient,
	policies PolicyProvider,
	txManager TransactionManager,
	metrics Metrics,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:   bookingRepo,
		conflicts:     conflicts,
		catalog:       catalog,
		policies:      policies,
		txManager:     txManager,
		metrics:       metrics,
		timeProvider:  &RealTimeProvider{},
		pastTolerance: domain.DefaultPastToleranceMinutes * time.Minute,
		logger:        logger,
	}
}

// WithTimeProvider подменяет источник времени
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// WithPastTolerance задает допустимое опоздание времени начала относительно now
func (uc *UseCase) WithPastTolerance(d time.Duration) *UseCase {
	uc.pastTolerance = d
	return uc
}

// Execute выполняет use case создания бронирования
// Проверка конфликта и вставка выполняются в одной сериализуемой транзакции
// под блокировкой календаря мастера, поэтому из двух конкурентных запросов
// на пересекающиеся интервалы успешен ровно один.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: staff=%d, service=%d, client=%d, start=%s",
		req.StaffID, req.ServiceID, req.ClientID, req.StartTime.Format(time.RFC3339))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время
	now := uc.timeProvider.Now()

	// 3. Получаем мастера и услугу
	staff, err := uc.catalog.GetStaff(ctx, req.StaffID)
	if err != nil {
		if errors.Is(err, catalogservice.ErrStaffNotFound) {
			uc.logger.Warn("CreateBooking: staff id=%d not found", req.StaffID)
			return nil, ErrStaffNotFound
		}
		uc.logger.Error("CreateBooking: failed to get staff id=%d: %v", req.StaffID, err)
		return nil, fmt.Errorf("%w: failed to get staff: %v", ErrInternal, err)
	}

	service, err := uc.catalog.GetService(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, catalogservice.ErrServiceNotFound) {
			uc.logger.Warn("CreateBooking: service id=%d not found", req.ServiceID)
			return nil, ErrServiceNotFound
		}
		uc.logger.Error("CreateBooking: failed to get service id=%d: %v", req.ServiceID, err)
		return nil, fmt.Errorf("%w: failed to get service: %v", ErrInternal, err)
	}

	if err := service.Validate(); err != nil {
		uc.logger.Error("CreateBooking: invalid catalog data for service id=%d: %v", service.ID, err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	// 4. Проверяем, что мастер выполняет услугу
	if !service.IsStaffEligible(staff.ID) {
		uc.logger.Warn("CreateBooking: staff id=%d is not eligible for service id=%d", staff.ID, service.ID)
		return nil, ErrStaffNotEligible
	}

	loc, err := staff.Location()
	if err != nil {
		uc.logger.Error("CreateBooking: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	// 5. Действующая политика
	serviceID := service.ID
	policy, err := uc.policies.Effective(ctx, staff.SalonID, &serviceID)
	if err != nil {
		uc.logger.Error("CreateBooking: failed to get policy: %v", err)
		return nil, fmt.Errorf("%w: failed to get policy: %v", ErrInternal, err)
	}

	// 6. Строим бронирование: время окончания выводится из длительности услуги
	booking, err := domain.NewBooking(domain.NewBookingParams{
		SalonID:         staff.SalonID,
		StaffID:         staff.ID,
		ServiceID:       service.ID,
		ServiceVersion:  service.Version,
		ClientID:        req.ClientID,
		StartTime:       req.StartTime,
		DurationMinutes: service.DurationMinutes,
		Price:           service.Price,
		CreatedBy:       req.CreatedBy,
		Now:             now,
	})
	if err != nil {
		uc.logger.Warn("CreateBooking: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	// 7. Время начала относительно now и ограничений политики
	if err := validateTiming(booking.StartTime, now, loc, policy, uc.pastTolerance); err != nil {
		uc.logger.Warn("CreateBooking: timing validation failed: %v", err)
		return nil, err
	}

	// 8. Визит внутри рабочего окна мастера
	if err := validateWorkingHours(staff, booking.Interval(), loc); err != nil {
		if errors.Is(err, ErrInternal) {
			uc.logger.Error("CreateBooking: %v", err)
		} else {
			uc.logger.Warn("CreateBooking: %v", err)
		}
		return nil, err
	}

	var result *domain.Booking

	// 9. Блокировка календаря, проверка конфликта и вставка атомарно
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 9.1. Блокировка календаря мастера до конца транзакции
		if err := uc.bookingRepo.LockStaff(txCtx, booking.StaffID); err != nil {
			if txmanager.IsRetryable(err) {
				return err
			}
			return fmt.Errorf("%w: failed to lock staff calendar: %v", ErrInternal, err)
		}

		// 9.2. Проверка пересечения
		conflict, err := uc.conflicts.HasConflict(txCtx, booking.StaffID, booking.StartTime, booking.EndTime)
		if err != nil {
			// ошибка сериализации на чтении FOR UPDATE тоже повторяется
			if txmanager.IsRetryable(err) {
				return err
			}
			return fmt.Errorf("%w: failed to check conflicts: %v", ErrInternal, err)
		}
		if conflict {
			return ErrSlotNotAvailable
		}

		// 9.3. Вставка (exclusion constraint в postgres - последняя линия защиты)
		created, err := uc.bookingRepo.Create(txCtx, booking)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrSlotNotAvailable) {
				return ErrSlotNotAvailable
			}
			// ошибка сериализации должна дойти до txmanager для повтора
			if txmanager.IsRetryable(err) {
				return err
			}
			return fmt.Errorf("%w: failed to create booking: %v", ErrInternal, err)
		}

		result = created
		return nil
	})

	if err != nil {
		switch {
		case errors.Is(err, ErrSlotNotAvailable), errors.Is(err, txmanager.ErrSerialization):
			uc.metrics.IncBookingConflict()
			uc.logger.Warn("CreateBooking: slot %s-%s not available for staff=%d",
				booking.StartTime.Format(time.RFC3339), booking.EndTime.Format(time.RFC3339), booking.StaffID)
			return nil, ErrSlotNotAvailable
		case errors.Is(err, ErrInternal):
			uc.logger.Error("CreateBooking: %v", err)
			return nil, err
		}
		uc.logger.Error("CreateBooking: transaction failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	uc.metrics.IncBookingCreated()
	uc.logger.Info("CreateBooking: successfully created booking id=%d", result.ID)

	return &Response{
		ID:              result.ID,
		SalonID:         result.SalonID,
		StaffID:         result.StaffID,
		ServiceID:       result.ServiceID,
		ServiceVersion:  result.ServiceVersion,
		ClientID:        result.ClientID,
		StartTime:       result.StartTime,
		EndTime:         result.EndTime,
		DurationMinutes: result.DurationMinutes,
		Price:           result.Price,
		Status:          string(result.Status),
		PaymentStatus:   string(result.PaymentStatus),
		CreatedBy:       result.CreatedBy,
		CreatedAt:       result.CreatedAt,
		UpdatedAt:       result.UpdatedAt,
	}, nil
}
