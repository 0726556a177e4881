package policy

import (
	"context"
	"errors"
	"fmt"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
	policyRepo "github.com/nguessop/nguessbeauty-sub001/internal/infra/storage/policy"
	"github.com/nguessop/nguessbeauty-sub001/internal/service/policy/models"
)

// Service сервис для работы с политиками бронирования салонов
type Service struct {
	policyRepo PolicyRepository
	defaults   domain.PolicyDefaults
	logger     Logger
}

// NewService создает новый экземпляр сервиса политик
// defaults используются, когда у салона нет ни одной сохраненной политики
func NewService(policyRepo PolicyRepository, defaults domain.PolicyDefaults, logger Logger) *Service {
	return &Service{
		policyRepo: policyRepo,
		defaults:   defaults,
		logger:     logger,
	}
}

// Effective возвращает действующую политику с учетом иерархии
// Приоритет: услуга > салон > встроенные значения по умолчанию
func (s *Service) Effective(ctx context.Context, salonID int64, serviceID *int64) (*domain.BookingPolicy, error) {
	p, err := s.policyRepo.GetPolicyWithHierarchy(ctx, salonID, serviceID)
	if err != nil {
		if errors.Is(err, policyRepo.ErrPolicyNotFound) {
			return s.defaults.Policy(salonID), nil
		}
		s.logger.Error("Effective: repository error for salon=%d, service=%v: %v", salonID, serviceID, err)
		return nil, fmt.Errorf("%w: Effective - repository error: %v", ErrInternal, err)
	}
	return p, nil
}

// Get получает действующую политику салона (или услуги салона)
func (s *Service) Get(ctx context.Context, req *models.GetPolicyRequest) (*models.PolicyResponse, error) {
	s.logger.Info("Get: fetching policy for salon=%d, service=%v", req.SalonID, req.ServiceID)

	p, err := s.Effective(ctx, req.SalonID, req.ServiceID)
	if err != nil {
		return nil, err
	}

	resp := models.FromDomainPolicy(p)
	s.logger.Info("Get: resolved policy for salon=%d (level: %s, version: %d)", req.SalonID, resp.Level, resp.Version)
	return resp, nil
}

// List получает все сохраненные политики салона
func (s *Service) List(ctx context.Context, salonID int64) (*models.PolicyListResponse, error) {
	s.logger.Info("List: fetching policies for salon=%d", salonID)

	policies, err := s.policyRepo.GetAllBySalon(ctx, salonID)
	if err != nil {
		s.logger.Error("List: repository error for salon=%d: %v", salonID, err)
		return nil, fmt.Errorf("%w: List - repository error: %v", ErrInternal, err)
	}

	resp := &models.PolicyListResponse{Policies: make([]models.PolicyResponse, 0, len(policies))}
	for _, p := range policies {
		resp.Policies = append(resp.Policies, *models.FromDomainPolicy(p))
	}
	return resp, nil
}

// Update изменяет политику уровня (salonId, serviceId)
// Если политики на этом уровне нет, она создается с наследованием значений от действующей
func (s *Service) Update(ctx context.Context, req *models.UpdatePolicyRequest) (*models.PolicyResponse, error) {
	s.logger.Info("Update: updating policy for salon=%d, service=%v by user=%d",
		req.SalonID, req.ServiceID, req.UserID)

	// 1. Проверяем, что есть что обновлять
	if !req.HasChanges() {
		s.logger.Warn("Update: empty update for salon=%d, service=%v", req.SalonID, req.ServiceID)
		return nil, fmt.Errorf("%w: no fields to update", ErrInvalidInput)
	}

	// 2. Ищем политику ровно этого уровня
	existing, err := s.policyRepo.GetBySalonAndService(ctx, req.SalonID, req.ServiceID)
	if err != nil && !errors.Is(err, policyRepo.ErrPolicyNotFound) {
		s.logger.Error("Update: failed to get policy: %v", err)
		return nil, fmt.Errorf("%w: Update - repository error: %v", ErrInternal, err)
	}

	if existing == nil {
		return s.create(ctx, req)
	}

	// 3. Optimistic locking: версия из запроса должна совпадать с текущей
	if req.Version != nil && *req.Version != existing.Version {
		s.logger.Warn("Update: version mismatch for policy id=%d (expected %d, actual %d)",
			existing.ID, *req.Version, existing.Version)
		return nil, ErrVersionConflict
	}

	// 4. Применяем изменения и валидируем
	req.ApplyTo(existing)
	if err := existing.Validate(); err != nil {
		s.logger.Warn("Update: validation failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	// 5. Сохраняем
	updated, err := s.policyRepo.Update(ctx, existing)
	if err != nil {
		switch {
		case errors.Is(err, policyRepo.ErrVersionConflict):
			s.logger.Warn("Update: policy id=%d was modified concurrently", existing.ID)
			return nil, ErrVersionConflict
		case errors.Is(err, policyRepo.ErrPolicyNotFound):
			s.logger.Warn("Update: policy id=%d disappeared during update", existing.ID)
			return nil, ErrVersionConflict
		}
		s.logger.Error("Update: repository error for policy id=%d: %v", existing.ID, err)
		return nil, fmt.Errorf("%w: Update - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("Update: successfully updated policy id=%d to version %d", updated.ID, updated.Version)
	return models.FromDomainPolicy(updated), nil
}

// create создает политику уровня, наследуя незаданные поля от действующей политики
func (s *Service) create(ctx context.Context, req *models.UpdatePolicyRequest) (*models.PolicyResponse, error) {
	base, err := s.Effective(ctx, req.SalonID, req.ServiceID)
	if err != nil {
		return nil, err
	}

	p := &domain.BookingPolicy{
		SalonID:                 req.SalonID,
		ServiceID:               req.ServiceID,
		SlotGranularityMinutes:  base.SlotGranularityMinutes,
		NoShowGraceMinutes:      base.NoShowGraceMinutes,
		BufferMinutes:           base.BufferMinutes,
		MinBookingNoticeMinutes: base.MinBookingNoticeMinutes,
		AdvanceBookingDays:      base.AdvanceBookingDays,
		CommissionRate:          base.CommissionRate,
	}
	req.ApplyTo(p)

	if err := p.Validate(); err != nil {
		s.logger.Warn("Update: validation failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	created, err := s.policyRepo.Create(ctx, p)
	if err != nil {
		if errors.Is(err, policyRepo.ErrDuplicatePolicy) {
			s.logger.Warn("Update: policy for salon=%d, service=%v was created concurrently", req.SalonID, req.ServiceID)
			return nil, ErrVersionConflict
		}
		s.logger.Error("Update: repository error on create: %v", err)
		return nil, fmt.Errorf("%w: Update - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("Update: created policy id=%d for salon=%d, service=%v", created.ID, req.SalonID, req.ServiceID)
	return models.FromDomainPolicy(created), nil
}

// Reset удаляет политику уровня (salonId, serviceId), после чего действует уровень выше
func (s *Service) Reset(ctx context.Context, salonID int64, serviceID *int64) error {
	s.logger.Info("Reset: deleting policy for salon=%d, service=%v", salonID, serviceID)

	if err := s.policyRepo.DeleteBySalonAndService(ctx, salonID, serviceID); err != nil {
		if errors.Is(err, policyRepo.ErrPolicyNotFound) {
			s.logger.Warn("Reset: policy not found for salon=%d, service=%v", salonID, serviceID)
			return ErrPolicyNotFound
		}
		s.logger.Error("Reset: repository error: %v", err)
		return fmt.Errorf("%w: Reset - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("Reset: deleted policy for salon=%d, service=%v", salonID, serviceID)
	return nil
}
