package cancel_booking

import (
	"github.com/nguessop/nguessbeauty-sub001/internal/service/bookings/models"
	paymentModels "github.com/nguessop/nguessbeauty-sub001/internal/service/payments/models"
)

// CancelBookingRequest HTTP request model
type CancelBookingRequest struct {
	Reason *string `json:"reason,omitempty"`
}

// CancelBookingResponse HTTP response model
// refundError заполнен, если отмена прошла, а возврат оплаты нет
type CancelBookingResponse struct {
	Booking     models.BookingResponse        `json:"booking"`
	Refund      *paymentModels.RefundResponse `json:"refund,omitempty"`
	RefundError *string                       `json:"refundError,omitempty"`
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *CancelBookingRequest) ToServiceRequest(userID int64) *models.CancelBookingRequest {
	return &models.CancelBookingRequest{
		UserID: userID,
		Reason: r.Reason,
	}
}

// FromServiceResult конвертирует результат отмены в HTTP response
func FromServiceResult(res *models.CancelResult) *CancelBookingResponse {
	resp := &CancelBookingResponse{
		Booking: res.Booking,
		Refund:  res.Refund,
	}
	if res.RefundError != nil {
		msg := res.RefundError.Error()
		resp.RefundError = &msg
	}
	return resp
}
