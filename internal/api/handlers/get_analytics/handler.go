package get_analytics

import (
	"errors"
	"net/http"

	"github.com/nguessop/nguessbeauty-sub001/internal/api/handlers"
	"github.com/nguessop/nguessbeauty-sub001/internal/service/analytics"
)

const (
	msgInvalidParams = "некорректные параметры запроса"
)

type Handler struct {
	service AnalyticsService
	logger  Logger
}

func NewHandler(service AnalyticsService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/analytics
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	req, err := ToServiceRequest(r)
	if err != nil {
		h.logger.Warn("GET /analytics - Invalid parameters: %v", err)
		handlers.RespondBadRequest(w, msgInvalidParams)
		return
	}

	snapshot, err := h.service.GetAnalytics(r.Context(), req)
	if err != nil {
		if errors.Is(err, analytics.ErrInvalidInput) {
			h.logger.Warn("GET /analytics - Invalid request: %v", err)
			handlers.RespondBadRequest(w, msgInvalidParams)
			return
		}
		h.logger.Error("GET /analytics - Failed to compute analytics: %v", err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /analytics - Snapshot computed: bookings=%d, transactions=%d",
		snapshot.BookingCount, snapshot.TransactionCount)
	handlers.RespondJSON(w, http.StatusOK, snapshot)
}
