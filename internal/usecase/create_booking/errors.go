package create_booking

import (
	"errors"
	"fmt"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
)

var (
	// ErrStaffNotFound возвращается, когда мастер не найден в каталоге
	ErrStaffNotFound = fmt.Errorf("%w: create_booking: staff not found", domain.ErrNotFound)

	// ErrServiceNotFound возвращается, когда услуга не найдена в каталоге
	ErrServiceNotFound = fmt.Errorf("%w: create_booking: service not found", domain.ErrNotFound)

	// ErrStaffNotEligible возвращается, когда мастер не выполняет услугу
	ErrStaffNotEligible = fmt.Errorf("%w: create_booking: staff is not eligible for this service", domain.ErrValidation)

	// ErrStartInPast возвращается, когда время начала уже прошло
	ErrStartInPast = fmt.Errorf("%w: create_booking: start time is in the past", domain.ErrValidation)

	// ErrTooLateToBook возвращается, когда нарушено минимальное время до начала (minBookingNoticeMinutes)
	ErrTooLateToBook = fmt.Errorf("%w: create_booking: too late to book this slot", domain.ErrValidation)

	// ErrDateTooFarInFuture возвращается, когда дата превышает ограничение advanceBookingDays
	ErrDateTooFarInFuture = fmt.Errorf("%w: create_booking: date is too far in the future", domain.ErrValidation)

	// ErrOutsideWorkingHours возвращается, когда интервал визита не лежит в одном окне работы мастера
	ErrOutsideWorkingHours = fmt.Errorf("%w: create_booking: outside staff working hours", domain.ErrValidation)

	// ErrSlotNotAvailable возвращается, когда интервал пересекается с активным бронированием мастера
	ErrSlotNotAvailable = fmt.Errorf("%w: create_booking: slot is not available", domain.ErrConflict)

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = fmt.Errorf("%w: create_booking: invalid input data", domain.ErrValidation)

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)
