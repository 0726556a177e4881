package get_salon_bookings

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/nguessop/nguessbeauty-sub001/internal/api/handlers"
	"github.com/nguessop/nguessbeauty-sub001/internal/service/bookings/models"
)

// ToServiceRequest формирует запрос к сервису из query параметров
// Query params: staffId, serviceId, from, to (RFC3339), status, includeInactive, limit
func ToServiceRequest(salonID int64, r *http.Request) (*models.ListSalonBookingsRequest, error) {
	req := &models.ListSalonBookingsRequest{SalonID: salonID}

	var err error
	if req.StaffID, err = handlers.QueryInt64(r, "staffId"); err != nil {
		return nil, err
	}
	if req.ServiceID, err = handlers.QueryInt64(r, "serviceId"); err != nil {
		return nil, err
	}
	if req.From, err = handlers.QueryTime(r, "from"); err != nil {
		return nil, err
	}
	if req.To, err = handlers.QueryTime(r, "to"); err != nil {
		return nil, err
	}

	query := r.URL.Query()
	if status := query.Get("status"); status != "" {
		req.Status = &status
	}

	if raw := query.Get("includeInactive"); raw != "" {
		includeInactive, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid includeInactive value: %w", err)
		}
		req.IncludeInactive = includeInactive
	}

	limit, err := handlers.QueryInt(r, "limit")
	if err != nil {
		return nil, err
	}
	if limit != nil {
		req.Limit = *limit
	}

	return req, nil
}
