package models

import (
	"time"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
	paymentModels "github.com/nguessop/nguessbeauty-sub001/internal/service/payments/models"
)

// Request модели

// CancelBookingRequest запрос на отмену бронирования
type CancelBookingRequest struct {
	UserID int64   `json:"-"`
	Reason *string `json:"reason,omitempty"`
}

// CompleteBookingRequest запрос на завершение визита
type CompleteBookingRequest struct {
	UserID   int64 `json:"-"`
	Override bool  `json:"override,omitempty"` // мастер завершает визит раньше времени окончания
}

// ListSalonBookingsRequest запрос на получение бронирований салона
type ListSalonBookingsRequest struct {
	SalonID         int64      `json:"salonId"`
	StaffID         *int64     `json:"staffId,omitempty"`
	ServiceID       *int64     `json:"serviceId,omitempty"`
	From            *time.Time `json:"from,omitempty"` // начало периода по времени начала визита
	To              *time.Time `json:"to,omitempty"`   // конец периода (не включительно)
	Status          *string    `json:"status,omitempty"`
	IncludeInactive bool       `json:"includeInactive,omitempty"` // включить отмененные и неявки
	Limit           int        `json:"limit,omitempty"`
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *ListSalonBookingsRequest) ToDomainFilter() (domain.BookingFilter, error) {
	salonID := r.SalonID
	filter := domain.BookingFilter{
		SalonID:         &salonID,
		StaffID:         r.StaffID,
		ServiceID:       r.ServiceID,
		From:            r.From,
		To:              r.To,
		IncludeInactive: r.IncludeInactive,
		Limit:           r.Limit,
	}

	if r.Status != nil {
		status, err := domain.ParseBookingStatus(*r.Status)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}

	return filter, nil
}

// ListClientBookingsRequest запрос на получение истории бронирований клиента
type ListClientBookingsRequest struct {
	ClientID int64   `json:"clientId"`
	Status   *string `json:"status,omitempty"`
}

// Response модели

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID              int64      `json:"id"`
	SalonID         int64      `json:"salonId"`
	StaffID         int64      `json:"staffId"`
	ServiceID       int64      `json:"serviceId"`
	ServiceVersion  int        `json:"serviceVersion"`
	ClientID        int64      `json:"clientId"`
	StartTime       time.Time  `json:"startTime"`
	EndTime         time.Time  `json:"endTime"`
	DurationMinutes int        `json:"durationMinutes"`
	Price           int64      `json:"price"`
	Status          string     `json:"status"`
	PaymentStatus   string     `json:"paymentStatus"`
	CreatedBy       int64      `json:"createdBy"`
	CancelledBy     *int64     `json:"cancelledBy,omitempty"`
	CancelledReason *string    `json:"cancelledReason,omitempty"`
	CancelledAt     *time.Time `json:"cancelledAt,omitempty"`
	CheckedInAt     *time.Time `json:"checkedInAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// BookingListResponse ответ со списком бронирований
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
}

// CancelResult результат отмены
// Отмена остается в силе, даже если возврат оплаты не удался: ошибка возврата
// передается в RefundError
type CancelResult struct {
	Booking     BookingResponse               `json:"booking"`
	Refund      *paymentModels.RefundResponse `json:"refund,omitempty"`
	RefundError error                         `json:"-"`
}

// Методы конвертации

// FromDomainBooking конвертирует domain модель в DTO
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	if b == nil {
		return nil
	}

	return &BookingResponse{
		ID:              b.ID,
		SalonID:         b.SalonID,
		StaffID:         b.StaffID,
		ServiceID:       b.ServiceID,
		ServiceVersion:  b.ServiceVersion,
		ClientID:        b.ClientID,
		StartTime:       b.StartTime,
		EndTime:         b.EndTime,
		DurationMinutes: b.DurationMinutes,
		Price:           b.Price,
		Status:          string(b.Status),
		PaymentStatus:   string(b.PaymentStatus),
		CreatedBy:       b.CreatedBy,
		CancelledBy:     b.CancelledBy,
		CancelledReason: b.CancelledReason,
		CancelledAt:     b.CancelledAt,
		CheckedInAt:     b.CheckedInAt,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

// FromDomainBookingList конвертирует список domain моделей в DTO
func FromDomainBookingList(bookings []*domain.Booking) *BookingListResponse {
	resp := &BookingListResponse{
		Bookings: make([]BookingResponse, 0, len(bookings)),
	}

	for _, booking := range bookings {
		if bookingResp := FromDomainBooking(booking); bookingResp != nil {
			resp.Bookings = append(resp.Bookings, *bookingResp)
		}
	}

	return resp
}
