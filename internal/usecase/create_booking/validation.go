package create_booking

import (
	"fmt"
	"time"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.StaffID <= 0 {
		return fmt.Errorf("%w: staffID must be positive", ErrInvalidInput)
	}

	if req.ServiceID <= 0 {
		return fmt.Errorf("%w: serviceID must be positive", ErrInvalidInput)
	}

	if req.ClientID <= 0 {
		return fmt.Errorf("%w: clientID must be positive", ErrInvalidInput)
	}

	if req.StartTime.IsZero() {
		return fmt.Errorf("%w: startTime is required", ErrInvalidInput)
	}

	if !req.StartTime.Truncate(time.Minute).Equal(req.StartTime) {
		return fmt.Errorf("%w: startTime must be on a whole minute", ErrInvalidInput)
	}

	return nil
}

// validateTiming проверяет время начала относительно now и политики
// pastTolerance допускает небольшое расхождение часов клиента и сервера
func validateTiming(start, now time.Time, loc *time.Location, policy *domain.BookingPolicy, pastTolerance time.Duration) error {
	if start.Before(now.Add(-pastTolerance)) {
		return ErrStartInPast
	}

	if policy.MinBookingNoticeMinutes > 0 && !start.After(now.Add(policy.MinNotice())) {
		return fmt.Errorf("%w: bookings require %d minutes notice", ErrTooLateToBook, policy.MinBookingNoticeMinutes)
	}

	if policy.HasAdvanceBookingLimit() {
		localNow := now.In(loc)
		localStart := start.In(loc)
		today := time.Date(localNow.Year(), localNow.Month(), localNow.Day(), 0, 0, 0, 0, loc)
		day := time.Date(localStart.Year(), localStart.Month(), localStart.Day(), 0, 0, 0, 0, loc)
		if day.After(today.AddDate(0, 0, policy.AdvanceBookingDays)) {
			return fmt.Errorf("%w: can only book %d days in advance", ErrDateTooFarInFuture, policy.AdvanceBookingDays)
		}
	}

	return nil
}

// validateWorkingHours проверяет, что визит целиком лежит в одном открытом окне мастера
func validateWorkingHours(staff *domain.Staff, visit domain.Interval, loc *time.Location) error {
	localStart := visit.Start.In(loc)
	schedule, err := staff.ScheduleOn(localStart, loc)
	if err != nil {
		return fmt.Errorf("%w: invalid staff schedule: %v", ErrInternal, err)
	}

	for _, open := range schedule.Open() {
		if open.Contains(visit) {
			return nil
		}
	}
	return ErrOutsideWorkingHours
}
