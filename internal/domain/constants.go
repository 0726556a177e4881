package domain

// Default policy values
const (
	DefaultSlotGranularityMinutes  = 15
	DefaultNoShowGraceMinutes      = 15
	DefaultBufferMinutes           = 0
	DefaultMinBookingNoticeMinutes = 0
	DefaultAdvanceBookingDays      = 0 // 0 = unlimited
	DefaultCommissionRate          = "0.10"
	DefaultPastToleranceMinutes    = 5
)

// Business validation constants
const (
	MinSlotGranularityMinutes = 5
	MaxSlotGranularityMinutes = 240
	MaxNoShowGraceMinutes     = 240
	MaxBufferMinutes          = 120
	MaxBookingNoticeMinutes   = 10080 // 1 week
	MaxAdvanceBookingDays     = 365
	MaxCancelledReasonLength  = 500
	MaxBufferRequestMinutes   = 120
	CheckInWindowMinutes      = 60 // check-in opens this long before the start
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// InactiveStatuses bookings that no longer occupy the calendar
var InactiveStatuses = []BookingStatus{
	StatusCancelled,
	StatusNoShow,
}

// ActiveStatuses bookings that occupy the calendar
var ActiveStatuses = []BookingStatus{
	StatusPending,
	StatusConfirmed,
	StatusCompleted,
}

// AllStatuses every booking status, in lifecycle order
var AllStatuses = []BookingStatus{
	StatusPending,
	StatusConfirmed,
	StatusCompleted,
	StatusCancelled,
	StatusNoShow,
}
