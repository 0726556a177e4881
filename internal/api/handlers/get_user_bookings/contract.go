package get_user_bookings

import (
	"context"

	"github.com/nguessop/nguessbeauty-sub001/internal/service/bookings/models"
)

type BookingService interface {
	ListClientBookings(ctx context.Context, req *models.ListClientBookingsRequest) (*models.BookingListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
