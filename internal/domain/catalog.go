package domain

import (
	"fmt"
	"time"

	"github.com/nguessop/nguessbeauty-sub001/pkg/types"
)

// Service is a bookable catalog entry. Read-only for this module.
type Service struct {
	ID               int64
	SalonID          int64
	Name             string
	DurationMinutes  int
	Price            int64 // minor currency units
	Category         string
	EligibleStaffIDs []int64
	Version          int
}

// Duration returns the service length
func (s *Service) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}

// IsStaffEligible returns true if staffID may perform the service
func (s *Service) IsStaffEligible(staffID int64) bool {
	for _, id := range s.EligibleStaffIDs {
		if id == staffID {
			return true
		}
	}
	return false
}

// Validate checks catalog data before it is used for scheduling
func (s *Service) Validate() error {
	if s.DurationMinutes <= 0 {
		return fmt.Errorf("%w: service %d has non-positive duration", ErrValidation, s.ID)
	}
	if s.Price < 0 {
		return fmt.Errorf("%w: service %d has negative price", ErrValidation, s.ID)
	}
	if len(s.EligibleStaffIDs) == 0 {
		return fmt.Errorf("%w: service %d has no eligible staff", ErrValidation, s.ID)
	}
	return nil
}

// WorkingInterval is a recurring weekly window in the staff's local time
type WorkingInterval struct {
	Weekday time.Weekday
	Start   types.TimeString
	End     types.TimeString
}

// ExceptionKind distinguishes closures from extra opening hours
type ExceptionKind string

const (
	ExceptionClosure    ExceptionKind = "closure"
	ExceptionExtraHours ExceptionKind = "extra_hours"
)

// ScheduleException overrides the weekly schedule on one date.
// A closure without Start/End closes the whole day.
type ScheduleException struct {
	Date  time.Time // only the calendar date is used
	Kind  ExceptionKind
	Start *types.TimeString
	End   *types.TimeString
}

// IsWholeDay returns true if the exception has no time range
func (e ScheduleException) IsWholeDay() bool {
	return e.Start == nil || e.End == nil
}

// Staff is a person whose calendar is booked. Read-only for this module.
type Staff struct {
	ID           int64
	SalonID      int64
	Name         string
	Timezone     string // IANA, empty = UTC
	WorkingHours []WorkingInterval
	Exceptions   []ScheduleException
}

// Location resolves the staff timezone
func (s *Staff) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: staff %d has unknown timezone %q", ErrValidation, s.ID, s.Timezone)
	}
	return loc, nil
}

// DaySchedule is the resolved schedule of one staff member on one date
type DaySchedule struct {
	// Windows are the opening windows (weekly hours and extra hours). Each
	// window start anchors the slot grid.
	Windows []Interval
	// Closed are ranges removed by closure exceptions
	Closed []Interval
}

// Open returns the windows with closures removed, merged and sorted
func (d DaySchedule) Open() []Interval {
	return SubtractAll(d.Windows, d.Closed)
}

// ScheduleOn resolves working hours and exceptions for date in loc
func (s *Staff) ScheduleOn(date time.Time, loc *time.Location) (DaySchedule, error) {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, loc)

	var schedule DaySchedule

	for _, wi := range s.WorkingHours {
		if wi.Weekday != day.Weekday() {
			continue
		}
		in, err := timeRange(day, wi.Start, wi.End, loc)
		if err != nil {
			return DaySchedule{}, fmt.Errorf("staff %d working hours: %w", s.ID, err)
		}
		schedule.Windows = append(schedule.Windows, in)
	}

	for _, ex := range s.Exceptions {
		ey, em, ed := ex.Date.Date()
		if ey != y || em != m || ed != d {
			continue
		}

		switch ex.Kind {
		case ExceptionExtraHours:
			if ex.IsWholeDay() {
				return DaySchedule{}, fmt.Errorf("%w: staff %d extra hours without time range", ErrValidation, s.ID)
			}
			in, err := timeRange(day, *ex.Start, *ex.End, loc)
			if err != nil {
				return DaySchedule{}, fmt.Errorf("staff %d extra hours: %w", s.ID, err)
			}
			schedule.Windows = append(schedule.Windows, in)
		case ExceptionClosure:
			if ex.IsWholeDay() {
				schedule.Closed = append(schedule.Closed, Interval{Start: day, End: day.AddDate(0, 0, 1)})
				continue
			}
			in, err := timeRange(day, *ex.Start, *ex.End, loc)
			if err != nil {
				return DaySchedule{}, fmt.Errorf("staff %d closure: %w", s.ID, err)
			}
			schedule.Closed = append(schedule.Closed, in)
		default:
			return DaySchedule{}, fmt.Errorf("%w: staff %d unknown exception kind %q", ErrValidation, s.ID, ex.Kind)
		}
	}

	return schedule, nil
}

func timeRange(day time.Time, start, end types.TimeString, loc *time.Location) (Interval, error) {
	from, err := start.On(day, loc)
	if err != nil {
		return Interval{}, fmt.Errorf("%w: start %q: %v", ErrValidation, start, err)
	}
	to, err := end.On(day, loc)
	if err != nil {
		return Interval{}, fmt.Errorf("%w: end %q: %v", ErrValidation, end, err)
	}
	if !to.After(from) {
		return Interval{}, fmt.Errorf("%w: range %s-%s is empty", ErrValidation, start, end)
	}
	return Interval{Start: from, End: to}, nil
}
