package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
)

// Уровни иерархии политики
const (
	LevelService = "service"
	LevelSalon   = "salon"
	LevelDefault = "default"
)

// Request модели

// GetPolicyRequest запрос на получение действующей политики
type GetPolicyRequest struct {
	SalonID   int64  `json:"salonId"`
	ServiceID *int64 `json:"serviceId,omitempty"` // nil = общая политика салона
}

// UpdatePolicyRequest запрос на изменение политики уровня (salonId, serviceId)
// Все поля опциональны - обновляются только переданные значения,
// остальные наследуются от действующей политики
type UpdatePolicyRequest struct {
	UserID                  int64            `json:"-"`
	SalonID                 int64            `json:"-"`
	ServiceID               *int64           `json:"-"`
	SlotGranularityMinutes  *int             `json:"slotGranularityMinutes,omitempty"`
	NoShowGraceMinutes      *int             `json:"noShowGraceMinutes,omitempty"`
	BufferMinutes           *int             `json:"bufferMinutes,omitempty"`
	MinBookingNoticeMinutes *int             `json:"minBookingNoticeMinutes,omitempty"`
	AdvanceBookingDays      *int             `json:"advanceBookingDays,omitempty"`
	CommissionRate          *decimal.Decimal `json:"commissionRate,omitempty"`
	Version                 *int             `json:"version,omitempty"` // ожидаемая версия (optimistic locking)
}

// HasChanges возвращает true, если в запросе есть хотя бы одно поле политики
func (r *UpdatePolicyRequest) HasChanges() bool {
	return r.SlotGranularityMinutes != nil || r.NoShowGraceMinutes != nil || r.BufferMinutes != nil ||
		r.MinBookingNoticeMinutes != nil || r.AdvanceBookingDays != nil || r.CommissionRate != nil
}

// ApplyTo применяет переданные поля к политике
func (r *UpdatePolicyRequest) ApplyTo(p *domain.BookingPolicy) {
	if r.SlotGranularityMinutes != nil {
		p.SlotGranularityMinutes = *r.SlotGranularityMinutes
	}
	if r.NoShowGraceMinutes != nil {
		p.NoShowGraceMinutes = *r.NoShowGraceMinutes
	}
	if r.BufferMinutes != nil {
		p.BufferMinutes = *r.BufferMinutes
	}
	if r.MinBookingNoticeMinutes != nil {
		p.MinBookingNoticeMinutes = *r.MinBookingNoticeMinutes
	}
	if r.AdvanceBookingDays != nil {
		p.AdvanceBookingDays = *r.AdvanceBookingDays
	}
	if r.CommissionRate != nil {
		p.CommissionRate = *r.CommissionRate
	}
}

// Response модели

// PolicyResponse ответ с данными политики
type PolicyResponse struct {
	ID                      int64           `json:"id,omitempty"`
	SalonID                 int64           `json:"salonId"`
	ServiceID               *int64          `json:"serviceId,omitempty"`
	Level                   string          `json:"level"`
	SlotGranularityMinutes  int             `json:"slotGranularityMinutes"`
	NoShowGraceMinutes      int             `json:"noShowGraceMinutes"`
	BufferMinutes           int             `json:"bufferMinutes"`
	MinBookingNoticeMinutes int             `json:"minBookingNoticeMinutes"`
	AdvanceBookingDays      int             `json:"advanceBookingDays"`
	CommissionRate          decimal.Decimal `json:"commissionRate"`
	Version                 int             `json:"version"`
	UpdatedAt               *time.Time      `json:"updatedAt,omitempty"`
}

// PolicyListResponse ответ со списком политик салона
type PolicyListResponse struct {
	Policies []PolicyResponse `json:"policies"`
}

// Методы конвертации

// FromDomainPolicy конвертирует domain модель в DTO
func FromDomainPolicy(p *domain.BookingPolicy) *PolicyResponse {
	if p == nil {
		return nil
	}

	resp := &PolicyResponse{
		ID:                      p.ID,
		SalonID:                 p.SalonID,
		ServiceID:               p.ServiceID,
		Level:                   Level(p),
		SlotGranularityMinutes:  p.SlotGranularityMinutes,
		NoShowGraceMinutes:      p.NoShowGraceMinutes,
		BufferMinutes:           p.BufferMinutes,
		MinBookingNoticeMinutes: p.MinBookingNoticeMinutes,
		AdvanceBookingDays:      p.AdvanceBookingDays,
		CommissionRate:          p.CommissionRate,
		Version:                 p.Version,
	}
	if !p.UpdatedAt.IsZero() {
		updatedAt := p.UpdatedAt
		resp.UpdatedAt = &updatedAt
	}
	return resp
}

// Level возвращает уровень иерархии, с которого взята политика
func Level(p *domain.BookingPolicy) string {
	switch {
	case p.ID == 0:
		return LevelDefault
	case p.IsServiceSpecific():
		return LevelService
	default:
		return LevelSalon
	}
}
