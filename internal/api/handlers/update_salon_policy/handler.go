package update_salon_policy

import (
	"errors"
	"net/http"

	"github.com/nguessop/nguessbeauty-sub001/internal/api/handlers"
	"github.com/nguessop/nguessbeauty-sub001/internal/api/middleware"
	"github.com/nguessop/nguessbeauty-sub001/internal/service/policy"
	"github.com/nguessop/nguessbeauty-sub001/internal/service/policy/models"
)

const (
	msgInvalidSalonID     = "некорректный ID салона"
	msgInvalidServiceID   = "некорректный ID услуги"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgInvalidData        = "некорректные данные политики"
	msgVersionConflict    = "политика была изменена другим запросом"
	msgNotFound           = "политика не найдена"
)

type Handler struct {
	service PolicyService
	logger  Logger
}

func NewHandler(service PolicyService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle PUT /api/v1/salons/{salonId}/policy
// Query params: serviceId (опционально) - изменяется политика уровня услуги
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	salonID, err := handlers.PathInt64(r, "salonId")
	if err != nil {
		h.logger.Warn("PUT /salons/{id}/policy - Invalid salon ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidSalonID)
		return
	}

	serviceID, err := handlers.QueryInt64(r, "serviceId")
	if err != nil {
		h.logger.Warn("PUT /salons/{id}/policy - Invalid service ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidServiceID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("PUT /salons/{id}/policy - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req models.UpdatePolicyRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PUT /salons/{id}/policy - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	req.UserID = userID
	req.SalonID = salonID
	req.ServiceID = serviceID

	result, err := h.service.Update(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, policy.ErrInvalidInput):
			h.logger.Warn("PUT /salons/{id}/policy - Invalid data: salon_id=%d, error=%v", salonID, err)
			handlers.RespondBadRequest(w, msgInvalidData)

		case errors.Is(err, policy.ErrVersionConflict):
			h.logger.Warn("PUT /salons/{id}/policy - Version conflict: salon_id=%d, service_id=%v", salonID, serviceID)
			handlers.RespondConflict(w, msgVersionConflict)

		case errors.Is(err, policy.ErrPolicyNotFound):
			h.logger.Warn("PUT /salons/{id}/policy - Policy not found: salon_id=%d, service_id=%v", salonID, serviceID)
			handlers.RespondNotFound(w, msgNotFound)

		default:
			h.logger.Error("PUT /salons/{id}/policy - Failed to update policy: salon_id=%d, error=%v",
				salonID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PUT /salons/{id}/policy - Policy updated: salon_id=%d, policy_id=%d, version=%d, user_id=%d",
		salonID, result.ID, result.Version, userID)
	handlers.RespondJSON(w, http.StatusOK, result)
}
