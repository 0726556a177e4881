package get_salon_bookings

import (
	"context"

	"github.com/nguessop/nguessbeauty-sub001/internal/service/bookings/models"
)

type BookingService interface {
	ListSalonBookings(ctx context.Context, req *models.ListSalonBookingsRequest) (*models.BookingListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
