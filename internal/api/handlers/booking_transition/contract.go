package booking_transition

import (
	"context"

	"github.com/nguessop/nguessbeauty-sub001/internal/service/bookings/models"
)

type BookingService interface {
	Confirm(ctx context.Context, id int64, userID int64) (*models.BookingResponse, error)
	Complete(ctx context.Context, id int64, req *models.CompleteBookingRequest) (*models.BookingResponse, error)
	MarkNoShow(ctx context.Context, id int64, actorID *int64) (*models.BookingResponse, error)
	CheckIn(ctx context.Context, id int64, userID int64) (*models.BookingResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
