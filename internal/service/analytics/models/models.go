package models

import (
	"time"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
)

// Request модели

// GetAnalyticsRequest запрос на расчет аналитики за период [From, To)
type GetAnalyticsRequest struct {
	From      time.Time
	To        time.Time
	AsOf      *time.Time // по умолчанию min(To, now)
	SalonID   *int64
	StaffID   *int64
	ServiceID *int64
	Timezone  string // IANA, для распределения по часам; по умолчанию UTC
}

// Response модели

// AnalyticsResponse снимок аналитики
type AnalyticsResponse struct {
	From             time.Time      `json:"from"`
	To               time.Time      `json:"to"`
	AsOf             time.Time      `json:"asOf"`
	SalonID          *int64         `json:"salonId,omitempty"`
	StaffID          *int64         `json:"staffId,omitempty"`
	ServiceID        *int64         `json:"serviceId,omitempty"`
	Timezone         string         `json:"timezone"`
	Revenue          int64          `json:"revenue"`
	Commission       int64          `json:"commission"`
	Payout           int64          `json:"payout"`
	TransactionCount int            `json:"transactionCount"`
	BookingCount     int            `json:"bookingCount"`
	CountsByStatus   map[string]int `json:"countsByStatus"`
	NoShowRate       float64        `json:"noShowRate"`
	PeakHours        [24]int        `json:"peakHours"`
}

// Методы конвертации

// FromDomainSnapshot конвертирует снимок в DTO
func FromDomainSnapshot(s domain.AnalyticsSnapshot) *AnalyticsResponse {
	counts := make(map[string]int, len(s.CountsByStatus))
	for status, n := range s.CountsByStatus {
		counts[string(status)] = n
	}

	return &AnalyticsResponse{
		From:             s.Period.From,
		To:               s.Period.To,
		AsOf:             s.Period.AsOf,
		SalonID:          s.Filter.SalonID,
		StaffID:          s.Filter.StaffID,
		ServiceID:        s.Filter.ServiceID,
		Timezone:         s.Timezone,
		Revenue:          s.Revenue,
		Commission:       s.Commission,
		Payout:           s.Payout,
		TransactionCount: s.TransactionCount,
		BookingCount:     s.BookingCount,
		CountsByStatus:   counts,
		NoShowRate:       s.NoShowRate,
		PeakHours:        s.PeakHours,
	}
}
