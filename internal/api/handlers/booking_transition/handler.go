package booking_transition

import (
	"context"
	"errors"
	"net/http"

	"github.com/nguessop/nguessbeauty-sub001/internal/api/handlers"
	"github.com/nguessop/nguessbeauty-sub001/internal/api/middleware"
	"github.com/nguessop/nguessbeauty-sub001/internal/service/bookings"
	"github.com/nguessop/nguessbeauty-sub001/internal/service/bookings/models"
)

const (
	msgInvalidBookingID   = "некорректный ID бронирования"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgNotFound           = "бронирование не найдено"
	msgInvalidTransition  = "текущий статус бронирования не допускает эту операцию"
	msgTooEarly           = "операция еще недоступна"
	msgAlreadyCheckedIn   = "клиент уже отметил приход"
	msgCheckInWindow      = "check-in доступен с часа до начала визита и до его окончания"
)

// Handler обработчики переходов жизненного цикла бронирования
type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

type action func(ctx context.Context, bookingID, userID int64) (*models.BookingResponse, error)

// Confirm POST /api/v1/bookings/{bookingId}/confirm
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, "confirm", func(ctx context.Context, bookingID, userID int64) (*models.BookingResponse, error) {
		return h.service.Confirm(ctx, bookingID, userID)
	})
}

// Complete POST /api/v1/bookings/{bookingId}/complete
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	var req CompleteBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings/{id}/complete - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	h.handle(w, r, "complete", func(ctx context.Context, bookingID, userID int64) (*models.BookingResponse, error) {
		return h.service.Complete(ctx, bookingID, &models.CompleteBookingRequest{
			UserID:   userID,
			Override: req.Override,
		})
	})
}

// MarkNoShow POST /api/v1/bookings/{bookingId}/no-show
func (h *Handler) MarkNoShow(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, "no-show", func(ctx context.Context, bookingID, userID int64) (*models.BookingResponse, error) {
		return h.service.MarkNoShow(ctx, bookingID, &userID)
	})
}

// CheckIn POST /api/v1/bookings/{bookingId}/check-in
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, "check-in", func(ctx context.Context, bookingID, userID int64) (*models.BookingResponse, error) {
		return h.service.CheckIn(ctx, bookingID, userID)
	})
}

func (h *Handler) handle(w http.ResponseWriter, r *http.Request, name string, do action) {
	bookingID, err := handlers.PathInt64(r, "bookingId")
	if err != nil {
		h.logger.Warn("POST /bookings/{id}/%s - Invalid booking ID: %v", name, err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /bookings/{id}/%s - Missing user ID", name)
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	booking, err := do(r.Context(), bookingID, userID)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrBookingNotFound):
			h.logger.Warn("POST /bookings/{id}/%s - Booking not found: booking_id=%d", name, bookingID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, bookings.ErrTooEarly):
			h.logger.Warn("POST /bookings/{id}/%s - Too early: booking_id=%d, error=%v", name, bookingID, err)
			handlers.RespondConflict(w, msgTooEarly)

		case errors.Is(err, bookings.ErrAlreadyCheckedIn):
			h.logger.Warn("POST /bookings/{id}/%s - Already checked in: booking_id=%d", name, bookingID)
			handlers.RespondConflict(w, msgAlreadyCheckedIn)

		case errors.Is(err, bookings.ErrCheckInWindow):
			h.logger.Warn("POST /bookings/{id}/%s - Outside check-in window: booking_id=%d", name, bookingID)
			handlers.RespondConflict(w, msgCheckInWindow)

		case errors.Is(err, bookings.ErrInvalidTransition):
			h.logger.Warn("POST /bookings/{id}/%s - Invalid transition: booking_id=%d, error=%v", name, bookingID, err)
			handlers.RespondConflict(w, msgInvalidTransition)

		default:
			h.logger.Error("POST /bookings/{id}/%s - Failed: booking_id=%d, error=%v", name, bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings/{id}/%s - Booking updated: booking_id=%d, status=%s, user_id=%d",
		name, bookingID, booking.Status, userID)
	handlers.RespondJSON(w, http.StatusOK, booking)
}
