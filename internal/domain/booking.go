package domain

import (
	"fmt"
	"time"
)

// BookingStatus represents the lifecycle status of a booking
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
	StatusNoShow    BookingStatus = "no_show"
)

// BookingEvent is a lifecycle command applied to a booking
type BookingEvent string

const (
	EventConfirm    BookingEvent = "confirm"
	EventCancel     BookingEvent = "cancel"
	EventComplete   BookingEvent = "complete"
	EventMarkNoShow BookingEvent = "mark_no_show"
)

// bookingTransitions is the complete edge list of the booking state machine.
// Anything not listed here is rejected.
var bookingTransitions = map[BookingStatus]map[BookingEvent]BookingStatus{
	StatusPending: {
		EventConfirm: StatusConfirmed,
		EventCancel:  StatusCancelled,
	},
	StatusConfirmed: {
		EventCancel:     StatusCancelled,
		EventComplete:   StatusCompleted,
		EventMarkNoShow: StatusNoShow,
	},
}

// ParseBookingStatus validates a raw status value
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("%w: unknown booking status %q", ErrValidation, s)
	}
	return status, nil
}

// IsValid returns true for a known status
func (s BookingStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// OccupiesCalendar returns true if a booking in this status blocks the staff calendar
func (s BookingStatus) OccupiesCalendar() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusCompleted
}

// IsTerminal returns true if no further transitions are possible
func (s BookingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

// Next returns the status reached by applying event, or ErrInvalidStateTransition
func (s BookingStatus) Next(event BookingEvent) (BookingStatus, error) {
	if next, ok := bookingTransitions[s][event]; ok {
		return next, nil
	}
	return s, fmt.Errorf("%w: cannot %s booking in status %s", ErrInvalidStateTransition, event, s)
}

// PaymentStatus mirrors the state of the booking's payment transaction
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentSettled  PaymentStatus = "settled"
	PaymentFailed   PaymentStatus = "failed"
)

// Booking represents a client appointment with one staff member for one service
type Booking struct {
	ID              int64
	SalonID         int64
	StaffID         int64
	ServiceID       int64
	ServiceVersion  int
	ClientID        int64
	StartTime       time.Time
	EndTime         time.Time // always StartTime + DurationMinutes
	DurationMinutes int
	Price           int64 // minor currency units, denormalized from the service
	Status          BookingStatus
	PaymentStatus   PaymentStatus

	CreatedBy       int64
	CancelledBy     *int64
	CancelledReason *string
	CancelledAt     *time.Time
	CheckedInAt     *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBookingParams input for NewBooking
type NewBookingParams struct {
	SalonID         int64
	StaffID         int64
	ServiceID       int64
	ServiceVersion  int
	ClientID        int64
	StartTime       time.Time
	DurationMinutes int
	Price           int64
	CreatedBy       int64
	Now             time.Time
}

// NewBooking builds a pending booking and derives its end time
func NewBooking(p NewBookingParams) (*Booking, error) {
	if p.DurationMinutes <= 0 {
		return nil, fmt.Errorf("%w: service duration must be positive", ErrValidation)
	}
	if p.Price < 0 {
		return nil, fmt.Errorf("%w: service price must not be negative", ErrValidation)
	}
	if p.StartTime.IsZero() {
		return nil, fmt.Errorf("%w: start time is required", ErrValidation)
	}

	start := p.StartTime.UTC()
	now := p.Now.UTC()

	return &Booking{
		SalonID:         p.SalonID,
		StaffID:         p.StaffID,
		ServiceID:       p.ServiceID,
		ServiceVersion:  p.ServiceVersion,
		ClientID:        p.ClientID,
		StartTime:       start,
		EndTime:         start.Add(time.Duration(p.DurationMinutes) * time.Minute),
		DurationMinutes: p.DurationMinutes,
		Price:           p.Price,
		Status:          StatusPending,
		PaymentStatus:   PaymentUnpaid,
		CreatedBy:       p.CreatedBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Interval returns the occupied range [StartTime, EndTime)
func (b *Booking) Interval() Interval {
	return Interval{Start: b.StartTime, End: b.EndTime}
}

// IsActive returns true if the booking occupies the staff calendar
func (b *Booking) IsActive() bool {
	return b.Status.OccupiesCalendar()
}

// IsCheckedIn returns true if the client has checked in
func (b *Booking) IsCheckedIn() bool {
	return b.CheckedInAt != nil
}

// Clone returns a deep copy, so stored bookings are never shared with callers
func (b *Booking) Clone() *Booking {
	c := *b
	if b.CancelledBy != nil {
		v := *b.CancelledBy
		c.CancelledBy = &v
	}
	if b.CancelledReason != nil {
		v := *b.CancelledReason
		c.CancelledReason = &v
	}
	if b.CancelledAt != nil {
		v := *b.CancelledAt
		c.CancelledAt = &v
	}
	if b.CheckedInAt != nil {
		v := *b.CheckedInAt
		c.CheckedInAt = &v
	}
	return &c
}

// StatusChange describes a compare-and-swap status update
type StatusChange struct {
	BookingID   int64
	From        BookingStatus
	To          BookingStatus
	At          time.Time
	ActorID     *int64
	Reason      *string
	CancelledAt *time.Time

	// RequireNotCheckedIn makes the swap fail if the client has checked in,
	// even when the status still matches From.
	RequireNotCheckedIn bool
}

// BookingCursor is a keyset position in (StartTime, ID) order
type BookingCursor struct {
	StartTime time.Time
	ID        int64
}

// CursorOf returns the position right after b
func CursorOf(b *Booking) *BookingCursor {
	return &BookingCursor{StartTime: b.StartTime, ID: b.ID}
}

// After reports whether b comes strictly after the cursor
func (c *BookingCursor) After(b *Booking) bool {
	if c == nil {
		return true
	}
	if b.StartTime.Equal(c.StartTime) {
		return b.ID > c.ID
	}
	return b.StartTime.After(c.StartTime)
}

// BookingFilter filters booking listings. Time bounds apply to StartTime
// as [From, To).
type BookingFilter struct {
	SalonID         *int64
	StaffID         *int64
	ServiceID       *int64
	ClientID        *int64
	From            *time.Time
	To              *time.Time
	Status          *BookingStatus
	IncludeInactive bool // include cancelled and no_show bookings
	Limit           int  // 0 = no limit
}

// Matches reports whether b passes the filter
func (f BookingFilter) Matches(b *Booking) bool {
	if f.SalonID != nil && b.SalonID != *f.SalonID {
		return false
	}
	if f.StaffID != nil && b.StaffID != *f.StaffID {
		return false
	}
	if f.ServiceID != nil && b.ServiceID != *f.ServiceID {
		return false
	}
	if f.ClientID != nil && b.ClientID != *f.ClientID {
		return false
	}
	if f.From != nil && b.StartTime.Before(*f.From) {
		return false
	}
	if f.To != nil && !b.StartTime.Before(*f.To) {
		return false
	}
	if f.Status != nil {
		return b.Status == *f.Status
	}
	if !f.IncludeInactive && !b.IsActive() {
		return false
	}
	return true
}
