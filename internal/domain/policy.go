package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// BookingPolicy represents the scheduling and commission policy of a salon.
// Supports hierarchical configuration:
// 1. Service-specific (salon_id, service_id)
// 2. Salon-wide (salon_id, NULL)
// 3. Built-in defaults
type BookingPolicy struct {
	ID                      int64
	SalonID                 int64
	ServiceID               *int64 // NULL = policy for all services of the salon
	SlotGranularityMinutes  int
	NoShowGraceMinutes      int
	BufferMinutes           int
	MinBookingNoticeMinutes int
	AdvanceBookingDays      int // 0 = unlimited
	CommissionRate          decimal.Decimal
	Version                 int // incremented on every update
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// IsSalonWide returns true if this policy applies to every service of the salon
func (p *BookingPolicy) IsSalonWide() bool {
	return p.ServiceID == nil
}

// IsServiceSpecific returns true if this policy overrides a single service
func (p *BookingPolicy) IsServiceSpecific() bool {
	return p.ServiceID != nil
}

// HasAdvanceBookingLimit returns true if there's a limit on how far in advance bookings can be made
func (p *BookingPolicy) HasAdvanceBookingLimit() bool {
	return p.AdvanceBookingDays > 0
}

// Granularity returns the slot step as a duration
func (p *BookingPolicy) Granularity() time.Duration {
	return time.Duration(p.SlotGranularityMinutes) * time.Minute
}

// Grace returns the no-show grace period as a duration
func (p *BookingPolicy) Grace() time.Duration {
	return time.Duration(p.NoShowGraceMinutes) * time.Minute
}

// Buffer returns the default buffer around existing bookings
func (p *BookingPolicy) Buffer() time.Duration {
	return time.Duration(p.BufferMinutes) * time.Minute
}

// MinNotice returns the minimum booking notice as a duration
func (p *BookingPolicy) MinNotice() time.Duration {
	return time.Duration(p.MinBookingNoticeMinutes) * time.Minute
}

// Commission returns the versioned commission part of the policy
func (p *BookingPolicy) Commission() CommissionPolicy {
	return CommissionPolicy{Rate: p.CommissionRate, Version: p.Version, PolicyID: p.ID}
}

// Validate checks business limits of the policy
func (p *BookingPolicy) Validate() error {
	if p.SlotGranularityMinutes < MinSlotGranularityMinutes || p.SlotGranularityMinutes > MaxSlotGranularityMinutes {
		return fmt.Errorf("%w: slot granularity must be between %d and %d minutes",
			ErrValidation, MinSlotGranularityMinutes, MaxSlotGranularityMinutes)
	}
	if p.NoShowGraceMinutes < 0 || p.NoShowGraceMinutes > MaxNoShowGraceMinutes {
		return fmt.Errorf("%w: no-show grace must be between 0 and %d minutes", ErrValidation, MaxNoShowGraceMinutes)
	}
	if p.BufferMinutes < 0 || p.BufferMinutes > MaxBufferMinutes {
		return fmt.Errorf("%w: buffer must be between 0 and %d minutes", ErrValidation, MaxBufferMinutes)
	}
	if p.MinBookingNoticeMinutes < 0 || p.MinBookingNoticeMinutes > MaxBookingNoticeMinutes {
		return fmt.Errorf("%w: booking notice must be between 0 and %d minutes", ErrValidation, MaxBookingNoticeMinutes)
	}
	if p.AdvanceBookingDays < 0 || p.AdvanceBookingDays > MaxAdvanceBookingDays {
		return fmt.Errorf("%w: advance booking days must be between 0 and %d", ErrValidation, MaxAdvanceBookingDays)
	}
	return p.Commission().Validate()
}

// CommissionPolicy is the versioned commission rate attached to a transaction
type CommissionPolicy struct {
	Rate     decimal.Decimal
	Version  int
	PolicyID int64 // 0 = built-in default
}

// Validate checks that the rate is within [0, 1]
func (c CommissionPolicy) Validate() error {
	if c.Rate.IsNegative() || c.Rate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: commission rate must be between 0 and 1", ErrValidation)
	}
	return nil
}

// PolicyDefaults are the built-in values used when a salon has no policy
type PolicyDefaults struct {
	SlotGranularityMinutes  int
	NoShowGraceMinutes      int
	BufferMinutes           int
	MinBookingNoticeMinutes int
	AdvanceBookingDays      int
	CommissionRate          decimal.Decimal
}

// DefaultPolicyDefaults returns the compiled-in defaults
func DefaultPolicyDefaults() PolicyDefaults {
	return PolicyDefaults{
		SlotGranularityMinutes:  DefaultSlotGranularityMinutes,
		NoShowGraceMinutes:      DefaultNoShowGraceMinutes,
		BufferMinutes:           DefaultBufferMinutes,
		MinBookingNoticeMinutes: DefaultMinBookingNoticeMinutes,
		AdvanceBookingDays:      DefaultAdvanceBookingDays,
		CommissionRate:          decimal.RequireFromString(DefaultCommissionRate),
	}
}

// Policy builds an unsaved salon policy from the defaults
func (d PolicyDefaults) Policy(salonID int64) *BookingPolicy {
	return &BookingPolicy{
		SalonID:                 salonID,
		SlotGranularityMinutes:  d.SlotGranularityMinutes,
		NoShowGraceMinutes:      d.NoShowGraceMinutes,
		BufferMinutes:           d.BufferMinutes,
		MinBookingNoticeMinutes: d.MinBookingNoticeMinutes,
		AdvanceBookingDays:      d.AdvanceBookingDays,
		CommissionRate:          d.CommissionRate,
	}
}
