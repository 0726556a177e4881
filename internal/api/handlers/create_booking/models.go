package create_booking

import (
	"time"

	createBooking "github.com/nguessop/nguessbeauty-sub001/internal/usecase/create_booking"
)

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	StaffID   int64  `json:"staffId"`
	ServiceID int64  `json:"serviceId"`
	StartTime string `json:"startTime"`          // RFC3339, "2026-03-02T10:00:00+01:00"
	ClientID  *int64 `json:"clientId,omitempty"` // по умолчанию автор запроса
}

// BookingResponse HTTP response model
type BookingResponse struct {
	ID              int64  `json:"id"`
	SalonID         int64  `json:"salonId"`
	StaffID         int64  `json:"staffId"`
	ServiceID       int64  `json:"serviceId"`
	ServiceVersion  int    `json:"serviceVersion"`
	ClientID        int64  `json:"clientId"`
	StartTime       string `json:"startTime"`
	EndTime         string `json:"endTime"`
	DurationMinutes int    `json:"durationMinutes"`
	Price           int64  `json:"price"`
	Status          string `json:"status"`
	PaymentStatus   string `json:"paymentStatus"`
	CreatedBy       int64  `json:"createdBy"`
	CreatedAt       string `json:"createdAt"`
	UpdatedAt       string `json:"updatedAt"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest(userID int64) (*createBooking.Request, error) {
	startTime, err := time.Parse(time.RFC3339, r.StartTime)
	if err != nil {
		return nil, err
	}

	clientID := userID
	if r.ClientID != nil {
		clientID = *r.ClientID
	}

	return &createBooking.Request{
		StaffID:   r.StaffID,
		ServiceID: r.ServiceID,
		ClientID:  clientID,
		StartTime: startTime,
		CreatedBy: userID,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createBooking.Response) *BookingResponse {
	return &BookingResponse{
		ID:              resp.ID,
		SalonID:         resp.SalonID,
		StaffID:         resp.StaffID,
		ServiceID:       resp.ServiceID,
		ServiceVersion:  resp.ServiceVersion,
		ClientID:        resp.ClientID,
		StartTime:       resp.StartTime.Format(time.RFC3339),
		EndTime:         resp.EndTime.Format(time.RFC3339),
		DurationMinutes: resp.DurationMinutes,
		Price:           resp.Price,
		Status:          resp.Status,
		PaymentStatus:   resp.PaymentStatus,
		CreatedBy:       resp.CreatedBy,
		CreatedAt:       resp.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       resp.UpdatedAt.Format(time.RFC3339),
	}
}
