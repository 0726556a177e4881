package get_availability

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

	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	if req.BufferMinutes != nil && (*req.BufferMinutes < 0 || *req.BufferMinutes > domain.MaxBufferRequestMinutes) {
		return fmt.Errorf("%w: bufferMinutes must be between 0 and %d", ErrInvalidInput, domain.MaxBufferRequestMinutes)
	}

	return nil
}

// dayRelation положение запрошенной даты относительно сегодняшнего дня мастера
type dayRelation int

const (
	dayPast dayRelation = iota
	dayToday
	dayFuture
)

// relateDay сравнивает календарную дату day с now в часовом поясе loc
// и проверяет ограничение advanceBookingDays (0 = без ограничений)
func relateDay(day time.Time, now time.Time, loc *time.Location, advanceBookingDays int) (dayRelation, error) {
	localNow := now.In(loc)
	today := time.Date(localNow.Year(), localNow.Month(), localNow.Day(), 0, 0, 0, 0, loc)
	target := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)

	switch {
	case target.Before(today):
		return dayPast, nil
	case target.Equal(today):
		return dayToday, nil
	}

	if advanceBookingDays > 0 && target.After(today.AddDate(0, 0, advanceBookingDays)) {
		return dayFuture, fmt.Errorf("%w: can only book %d days in advance", ErrDateTooFarInFuture, advanceBookingDays)
	}
	return dayFuture, nil
}
