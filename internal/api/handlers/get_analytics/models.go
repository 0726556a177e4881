package get_analytics

import (
	"errors"
	"net/http"

	"github.com/nguessop/nguessbeauty-sub001/internal/api/handlers"
	"github.com/nguessop/nguessbeauty-sub001/internal/service/analytics/models"
)

var errMissingPeriod = errors.New("from and to are required")

// ToServiceRequest формирует запрос к сервису из query параметров
// Query params: from, to (RFC3339, обязательные), asOf, salonId, staffId, serviceId, tz
func ToServiceRequest(r *http.Request) (*models.GetAnalyticsRequest, error) {
	from, err := handlers.QueryTime(r, "from")
	if err != nil {
		return nil, err
	}
	to, err := handlers.QueryTime(r, "to")
	if err != nil {
		return nil, err
	}
	if from == nil || to == nil {
		return nil, errMissingPeriod
	}

	req := &models.GetAnalyticsRequest{
		From:     *from,
		To:       *to,
		Timezone: r.URL.Query().Get("tz"),
	}
	if req.AsOf, err = handlers.QueryTime(r, "asOf"); err != nil {
		return nil, err
	}
	if req.SalonID, err = handlers.QueryInt64(r, "salonId"); err != nil {
		return nil, err
	}
	if req.StaffID, err = handlers.QueryInt64(r, "staffId"); err != nil {
		return nil, err
	}
	if req.ServiceID, err = handlers.QueryInt64(r, "serviceId"); err != nil {
		return nil, err
	}

	return req, nil
}
