package memory

import (
	"context"
	"sort"
	"time"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
	policyRepo "github.com/nguessop/nguessbeauty-sub001/internal/infra/storage/policy"
)

// PolicyRepository реализация репозитория политик в памяти
type PolicyRepository struct {
	store *Store
	now   func() time.Time
}

// NewPolicyRepository создает репозиторий политик поверх store
func NewPolicyRepository(store *Store) *PolicyRepository {
	return &PolicyRepository{store: store, now: time.Now}
}

// Create создает новую политику (версия 1)
func (r *PolicyRepository) Create(ctx context.Context, policy *domain.BookingPolicy) (*domain.BookingPolicy, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.find(policy.SalonID, policy.ServiceID) != nil {
		return nil, policyRepo.ErrDuplicatePolicy
	}

	now := r.now().UTC()
	s.nextPolicyID++
	policy.ID = s.nextPolicyID
	policy.Version = 1
	policy.CreatedAt = now
	policy.UpdatedAt = now

	stored := clonePolicy(policy)
	s.policies[stored.ID] = stored

	id := stored.ID
	s.record(ctx, func() { delete(s.policies, id) })

	return policy, nil
}

// GetByID получает политику по ID
func (r *PolicyRepository) GetByID(ctx context.Context, id int64) (*domain.BookingPolicy, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.policies[id]
	if !ok {
		return nil, policyRepo.ErrPolicyNotFound
	}
	return clonePolicy(p), nil
}

// GetBySalonAndService получает политику ровно для указанного уровня иерархии
func (r *PolicyRepository) GetBySalonAndService(ctx context.Context, salonID int64, serviceID *int64) (*domain.BookingPolicy, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p := r.find(salonID, serviceID); p != nil {
		return clonePolicy(p), nil
	}
	return nil, policyRepo.ErrPolicyNotFound
}

// GetPolicyWithHierarchy получает политику услуги, иначе общую политику салона
func (r *PolicyRepository) GetPolicyWithHierarchy(ctx context.Context, salonID int64, serviceID *int64) (*domain.BookingPolicy, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	if serviceID != nil {
		if p := r.find(salonID, serviceID); p != nil {
			return clonePolicy(p), nil
		}
	}
	if p := r.find(salonID, nil); p != nil {
		return clonePolicy(p), nil
	}
	return nil, policyRepo.ErrPolicyNotFound
}

// GetAllBySalon получает все политики салона, общая первой
func (r *PolicyRepository) GetAllBySalon(ctx context.Context, salonID int64) ([]*domain.BookingPolicy, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.BookingPolicy, 0)
	for _, p := range s.policies {
		if p.SalonID == salonID {
			result = append(result, clonePolicy(p))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i].ServiceID, result[j].ServiceID
		if a == nil || b == nil {
			return a == nil && b != nil
		}
		return *a < *b
	})
	return result, nil
}

// Update обновляет политику с optimistic locking по версии
func (r *PolicyRepository) Update(ctx context.Context, policy *domain.BookingPolicy) (*domain.BookingPolicy, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.policies[policy.ID]
	if !ok {
		return nil, policyRepo.ErrPolicyNotFound
	}
	if existing.Version != policy.Version {
		return nil, policyRepo.ErrVersionConflict
	}

	prev := clonePolicy(existing)
	s.record(ctx, func() { s.policies[prev.ID] = prev })

	policy.SalonID = existing.SalonID
	policy.ServiceID = existing.ServiceID
	policy.Version = existing.Version + 1
	policy.CreatedAt = existing.CreatedAt
	policy.UpdatedAt = r.now().UTC()

	s.policies[policy.ID] = clonePolicy(policy)
	return policy, nil
}

// DeleteBySalonAndService удаляет политику уровня (salonID, serviceID)
func (r *PolicyRepository) DeleteBySalonAndService(ctx context.Context, salonID int64, serviceID *int64) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	p := r.find(salonID, serviceID)
	if p == nil {
		return policyRepo.ErrPolicyNotFound
	}

	prev := clonePolicy(p)
	delete(s.policies, p.ID)
	s.record(ctx, func() { s.policies[prev.ID] = prev })

	return nil
}

// find ищет политику уровня; вызывается под s.mu
func (r *PolicyRepository) find(salonID int64, serviceID *int64) *domain.BookingPolicy {
	for _, p := range r.store.policies {
		if p.SalonID != salonID {
			continue
		}
		if serviceID == nil && p.ServiceID == nil {
			return p
		}
		if serviceID != nil && p.ServiceID != nil && *serviceID == *p.ServiceID {
			return p
		}
	}
	return nil
}

func clonePolicy(p *domain.BookingPolicy) *domain.BookingPolicy {
	c := *p
	if p.ServiceID != nil {
		v := *p.ServiceID
		c.ServiceID = &v
	}
	return &c
}
