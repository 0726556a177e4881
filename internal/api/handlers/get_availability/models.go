package get_availability

import (
	"time"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
	getAvailability "github.com/nguessop/nguessbeauty-sub001/internal/usecase/get_availability"
)

// AvailabilityResponse HTTP response model
type AvailabilityResponse struct {
	StaffID            int64  `json:"staffId"`
	ServiceID          int64  `json:"serviceId"`
	Date               string `json:"date"`
	Timezone           string `json:"timezone"`
	DurationMinutes    int    `json:"durationMinutes"`
	GranularityMinutes int    `json:"granularityMinutes"`
	BufferMinutes      int    `json:"bufferMinutes"`
	Slots              []Slot `json:"slots"`
}

// Slot свободный слот: время начала и окончания визита
type Slot struct {
	StartTime string `json:"startTime"` // RFC3339 в часовом поясе мастера
	EndTime   string `json:"endTime"`
}

// ToUseCaseRequest создает запрос use case из параметров запроса
func ToUseCaseRequest(staffID, serviceID int64, dateStr string, bufferMinutes *int) (*getAvailability.Request, error) {
	date, err := time.Parse(domain.DateFormat, dateStr)
	if err != nil {
		return nil, err
	}

	return &getAvailability.Request{
		StaffID:       staffID,
		ServiceID:     serviceID,
		Date:          date,
		BufferMinutes: bufferMinutes,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailability.Response) *AvailabilityResponse {
	duration := time.Duration(resp.DurationMinutes) * time.Minute

	slots := make([]Slot, len(resp.Slots))
	for i, start := range resp.Slots {
		slots[i] = Slot{
			StartTime: start.Format(time.RFC3339),
			EndTime:   start.Add(duration).Format(time.RFC3339),
		}
	}

	return &AvailabilityResponse{
		StaffID:            resp.StaffID,
		ServiceID:          resp.ServiceID,
		Date:               resp.Date.Format(domain.DateFormat),
		Timezone:           resp.Timezone,
		DurationMinutes:    resp.DurationMinutes,
		GranularityMinutes: resp.GranularityMinutes,
		BufferMinutes:      resp.BufferMinutes,
		Slots:              slots,
	}
}
