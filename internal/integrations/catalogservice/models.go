package catalogservice

import (
	"fmt"
	"time"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
	"github.com/nguessop/nguessbeauty-sub001/pkg/types"
)

// Staff модель мастера из CatalogService
type Staff struct {
	ID           int64               `json:"id"`
	SalonID      int64               `json:"salon_id"`
	Name         string              `json:"name"`
	Timezone     string              `json:"timezone"`
	WorkingHours []WorkingInterval   `json:"working_hours"`
	Exceptions   []ScheduleException `json:"exceptions"`
}

// WorkingInterval еженедельный интервал работы (weekday: 0 = воскресенье)
type WorkingInterval struct {
	Weekday int              `json:"weekday"`
	Start   types.TimeString `json:"start"`
	End     types.TimeString `json:"end"`
}

// ScheduleException исключение из расписания на дату (YYYY-MM-DD)
type ScheduleException struct {
	Date  string            `json:"date"`
	Kind  string            `json:"kind"`
	Start *types.TimeString `json:"start,omitempty"`
	End   *types.TimeString `json:"end,omitempty"`
}

// Service модель услуги из CatalogService
type Service struct {
	ID               int64   `json:"id"`
	SalonID          int64   `json:"salon_id"`
	Name             string  `json:"name"`
	DurationMinutes  int     `json:"duration_minutes"`
	Price            int64   `json:"price"`
	Category         string  `json:"category"`
	EligibleStaffIDs []int64 `json:"eligible_staff_ids"`
	Version          int     `json:"version"`
}

// ErrorResponse модель ошибки от CatalogService
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ToDomain конвертирует ответ каталога в доменную модель мастера
func (s *Staff) ToDomain() (*domain.Staff, error) {
	staff := &domain.Staff{
		ID:       s.ID,
		SalonID:  s.SalonID,
		Name:     s.Name,
		Timezone: s.Timezone,
	}

	for _, wi := range s.WorkingHours {
		if wi.Weekday < 0 || wi.Weekday > 6 {
			return nil, fmt.Errorf("%w: staff %d weekday %d out of range", ErrInvalidResponse, s.ID, wi.Weekday)
		}
		if err := wi.Start.Validate(); err != nil {
			return nil, fmt.Errorf("%w: staff %d working hours start: %v", ErrInvalidResponse, s.ID, err)
		}
		if err := wi.End.Validate(); err != nil {
			return nil, fmt.Errorf("%w: staff %d working hours end: %v", ErrInvalidResponse, s.ID, err)
		}
		staff.WorkingHours = append(staff.WorkingHours, domain.WorkingInterval{
			Weekday: time.Weekday(wi.Weekday),
			Start:   wi.Start,
			End:     wi.End,
		})
	}

	for _, ex := range s.Exceptions {
		date, err := time.Parse(domain.DateFormat, ex.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: staff %d exception date %q: %v", ErrInvalidResponse, s.ID, ex.Date, err)
		}
		kind := domain.ExceptionKind(ex.Kind)
		if kind != domain.ExceptionClosure && kind != domain.ExceptionExtraHours {
			return nil, fmt.Errorf("%w: staff %d exception kind %q", ErrInvalidResponse, s.ID, ex.Kind)
		}
		staff.Exceptions = append(staff.Exceptions, domain.ScheduleException{
			Date:  date,
			Kind:  kind,
			Start: ex.Start,
			End:   ex.End,
		})
	}

	return staff, nil
}

// ToDomain конвертирует ответ каталога в доменную модель услуги
func (s *Service) ToDomain() *domain.Service {
	return &domain.Service{
		ID:               s.ID,
		SalonID:          s.SalonID,
		Name:             s.Name,
		DurationMinutes:  s.DurationMinutes,
		Price:            s.Price,
		Category:         s.Category,
		EligibleStaffIDs: append([]int64(nil), s.EligibleStaffIDs...),
		Version:          s.Version,
	}
}
