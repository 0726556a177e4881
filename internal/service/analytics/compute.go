package analytics

import (
	"time"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
)

// Compute строит снимок аналитики из истории бронирований и транзакций
// Чистая функция: одинаковые входные данные всегда дают одинаковый результат.
// Бронирования, не подходящие под период и фильтр, игнорируются. Транзакции
// должны быть уже отобраны по атрибутам бронирования (ListForReport делает join),
// здесь повторно проверяются только период расчета и атрибуты известных бронирований.
func Compute(
	bookings []*domain.Booking,
	transactions []*domain.Transaction,
	period domain.Period,
	filter domain.AnalyticsFilter,
	loc *time.Location,
) domain.AnalyticsSnapshot {
	if loc == nil {
		loc = time.UTC
	}

	snapshot := domain.AnalyticsSnapshot{
		Period:         period,
		Filter:         filter,
		Timezone:       loc.String(),
		CountsByStatus: make(map[domain.BookingStatus]int, len(domain.AllStatuses)),
	}
	for _, status := range domain.AllStatuses {
		snapshot.CountsByStatus[status] = 0
	}

	bookingFilter := filter.BookingFilter(period)
	byID := make(map[int64]*domain.Booking, len(bookings))

	var confirmedInPast int
	for _, b := range bookings {
		byID[b.ID] = b
		if !bookingFilter.Matches(b) {
			continue
		}

		snapshot.BookingCount++
		snapshot.CountsByStatus[b.Status]++

		if b.Status == domain.StatusConfirmed && b.StartTime.Before(period.AsOf) {
			confirmedInPast++
		}
		if b.Status != domain.StatusCancelled {
			snapshot.PeakHours[b.StartTime.In(loc).Hour()]++
		}
	}

	noShows := snapshot.CountsByStatus[domain.StatusNoShow]
	denominator := snapshot.CountsByStatus[domain.StatusCompleted] +
		snapshot.CountsByStatus[domain.StatusCancelled] +
		noShows +
		confirmedInPast
	if denominator > 0 {
		snapshot.NoShowRate = float64(noShows) / float64(denominator)
	}

	txFilter := filter.TransactionFilter(period)
	for _, t := range transactions {
		if !t.CountsAsRevenue() || t.SettledAt == nil || !period.Contains(*t.SettledAt) {
			continue
		}
		if b, ok := byID[t.BookingID]; ok && !txFilter.Matches(t, b) {
			continue
		}
		snapshot.TransactionCount++
		snapshot.Revenue += t.NetAmount()
		snapshot.Commission += t.NetCommission()
		snapshot.Payout += t.NetPayout()
	}

	return snapshot
}
