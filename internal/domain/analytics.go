package domain

import (
	"fmt"
	"time"
)

// Period is the reporting window [From, To). AsOf fixes "now" for the
// confirmed-in-past part of the no-show rate so results are reproducible.
type Period struct {
	From time.Time
	To   time.Time
	AsOf time.Time
}

// Validate checks the window
func (p Period) Validate() error {
	if p.From.IsZero() || p.To.IsZero() {
		return fmt.Errorf("%w: period bounds are required", ErrValidation)
	}
	if !p.To.After(p.From) {
		return fmt.Errorf("%w: period end must be after start", ErrValidation)
	}
	if p.AsOf.IsZero() {
		return fmt.Errorf("%w: asOf is required", ErrValidation)
	}
	return nil
}

// Contains reports whether t is in [From, To)
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.From) && t.Before(p.To)
}

// AnalyticsFilter narrows a snapshot to a salon, staff member or service
type AnalyticsFilter struct {
	SalonID   *int64
	StaffID   *int64
	ServiceID *int64
}

// BookingFilter converts to a booking listing filter over the period
func (f AnalyticsFilter) BookingFilter(p Period) BookingFilter {
	from, to := p.From, p.To
	return BookingFilter{
		SalonID:         f.SalonID,
		StaffID:         f.StaffID,
		ServiceID:       f.ServiceID,
		From:            &from,
		To:              &to,
		IncludeInactive: true,
	}
}

// TransactionFilter converts to a transaction reporting filter over the period
func (f AnalyticsFilter) TransactionFilter(p Period) TransactionFilter {
	from, to := p.From, p.To
	return TransactionFilter{
		SalonID:   f.SalonID,
		StaffID:   f.StaffID,
		ServiceID: f.ServiceID,
		From:      &from,
		To:        &to,
	}
}

// AnalyticsSnapshot is derived data. It is never stored and can always be
// recomputed from bookings and transactions.
type AnalyticsSnapshot struct {
	Period   Period
	Filter   AnalyticsFilter
	Timezone string

	Revenue          int64 // net of refunds
	Commission       int64 // net of reversals
	Payout           int64
	TransactionCount int

	BookingCount   int
	CountsByStatus map[BookingStatus]int
	NoShowRate     float64
	PeakHours      [24]int
}
