package get_availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
	"github.com/nguessop/nguessbeauty-sub001/internal/integrations/catalogservice"
)

// UseCase use case для получения свободных слотов мастера на дату
// Только чтение, безопасен для конкурентного вызова
type UseCase struct {
	bookingRepo  BookingRepository
	catalog      CatalogClient
	policies     PolicyProvider
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	catalog CatalogClient,
	policies PolicyProvider,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		catalog:      catalog,
		policies:     policies,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute выполняет use case получения свободных слотов
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailability: staff=%d, service=%d, date=%s, buffer=%v",
		req.StaffID, req.ServiceID, req.Date.Format(domain.DateFormat), req.BufferMinutes)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailability: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время
	now := uc.timeProvider.Now()

	// 3. Получаем мастера и услугу из каталога
	staff, service, err := uc.loadCatalog(ctx, req)
	if err != nil {
		return nil, err
	}

	// 4. Проверяем, что мастер выполняет услугу
	if !service.IsStaffEligible(staff.ID) {
		uc.logger.Warn("GetAvailability: staff id=%d is not eligible for service id=%d", staff.ID, service.ID)
		return nil, ErrStaffNotEligible
	}

	loc, err := staff.Location()
	if err != nil {
		uc.logger.Error("GetAvailability: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	// 5. Действующая политика: услуга > салон > значения по умолчанию
	serviceID := service.ID
	policy, err := uc.policies.Effective(ctx, staff.SalonID, &serviceID)
	if err != nil {
		uc.logger.Error("GetAvailability: failed to get policy: %v", err)
		return nil, fmt.Errorf("%w: failed to get policy: %v", ErrInternal, err)
	}

	buffer := policy.BufferMinutes
	if req.BufferMinutes != nil {
		buffer = *req.BufferMinutes
	}

	day := time.Date(req.Date.Year(), req.Date.Month(), req.Date.Day(), 0, 0, 0, 0, loc)
	resp := &Response{
		StaffID:            staff.ID,
		ServiceID:          service.ID,
		Date:               day,
		Timezone:           loc.String(),
		DurationMinutes:    service.DurationMinutes,
		GranularityMinutes: policy.SlotGranularityMinutes,
		BufferMinutes:      buffer,
		Slots:              []time.Time{},
	}

	// 6. Положение даты относительно сегодня в часовом поясе мастера
	relation, err := relateDay(day, now, loc, policy.AdvanceBookingDays)
	if err != nil {
		uc.logger.Warn("GetAvailability: date validation failed: %v", err)
		return nil, err
	}
	if relation == dayPast {
		uc.logger.Info("GetAvailability: date %s is in the past", day.Format(domain.DateFormat))
		return resp, nil
	}

	// 7. Расписание дня: окна работы и закрытия
	schedule, err := staff.ScheduleOn(day, loc)
	if err != nil {
		uc.logger.Error("GetAvailability: invalid schedule for staff id=%d: %v", staff.ID, err)
		return nil, fmt.Errorf("%w: invalid staff schedule: %v", ErrInternal, err)
	}
	if len(schedule.Open()) == 0 {
		uc.logger.Info("GetAvailability: staff id=%d does not work on %s", staff.ID, day.Format(domain.DateFormat))
		return resp, nil
	}

	// 8. Занятость: активные бронирования, пересекающие день, с зазором
	bufferDuration := time.Duration(buffer) * time.Minute
	dayEnd := day.AddDate(0, 0, 1)
	bookings, err := uc.bookingRepo.FindOverlapping(ctx, staff.ID, day.Add(-bufferDuration), dayEnd.Add(bufferDuration))
	if err != nil {
		uc.logger.Error("GetAvailability: failed to get bookings: %v", err)
		return nil, fmt.Errorf("%w: failed to get bookings: %v", ErrInternal, err)
	}

	// 9. Минимальное время до начала (для сегодняшнего дня отсекает прошедшие слоты)
	notBefore := now.Add(policy.MinNotice())

	// 10. Генерируем слоты
	resp.Slots = generateSlots(schedule, busyIntervals(bookings, bufferDuration),
		service.Duration(), policy.Granularity(), notBefore)

	uc.logger.Info("GetAvailability: %d free slots for staff=%d, service=%d on %s",
		len(resp.Slots), staff.ID, service.ID, day.Format(domain.DateFormat))
	return resp, nil
}

func (uc *UseCase) loadCatalog(ctx context.Context, req *Request) (*domain.Staff, *domain.Service, error) {
	staff, err := uc.catalog.GetStaff(ctx, req.StaffID)
	if err != nil {
		if errors.Is(err, catalogservice.ErrStaffNotFound) {
			uc.logger.Warn("GetAvailability: staff id=%d not found", req.StaffID)
			return nil, nil, ErrStaffNotFound
		}
		uc.logger.Error("GetAvailability: failed to get staff id=%d: %v", req.StaffID, err)
		return nil, nil, fmt.Errorf("%w: failed to get staff: %v", ErrInternal, err)
	}

	service, err := uc.catalog.GetService(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, catalogservice.ErrServiceNotFound) {
			uc.logger.Warn("GetAvailability: service id=%d not found", req.ServiceID)
			return nil, nil, ErrServiceNotFound
		}
		uc.logger.Error("GetAvailability: failed to get service id=%d: %v", req.ServiceID, err)
		return nil, nil, fmt.Errorf("%w: failed to get service: %v", ErrInternal, err)
	}

	if err := service.Validate(); err != nil {
		uc.logger.Error("GetAvailability: invalid catalog data for service id=%d: %v", service.ID, err)
		return nil, nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	return staff, service, nil
}
