package get_availability

import (
	"sort"
	"time"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
)

// busyIntervals возвращает занятые интервалы активных бронирований, расширенные на buffer с обеих сторон
func busyIntervals(bookings []*domain.Booking, buffer time.Duration) []domain.Interval {
	busy := make([]domain.Interval, 0, len(bookings))
	for _, b := range bookings {
		if !b.IsActive() {
			continue
		}
		busy = append(busy, b.Interval().Expand(buffer))
	}
	return busy
}

// generateSlots строит свободные времена начала
//
// Сетка с шагом granularity отсчитывается от начала каждого окна работы.
// Кандидат попадает в результат, если [start, start+duration) целиком лежит
// в одном свободном интервале и start строго позже notBefore.
func generateSlots(
	schedule domain.DaySchedule,
	busy []domain.Interval,
	duration time.Duration,
	granularity time.Duration,
	notBefore time.Time,
) []time.Time {
	free := domain.SubtractAll(schedule.Open(), busy)
	if len(free) == 0 || duration <= 0 || granularity <= 0 {
		return []time.Time{}
	}

	seen := make(map[int64]bool)
	slots := make([]time.Time, 0)

	for _, window := range schedule.Windows {
		for start := window.Start; !start.Add(duration).After(window.End); start = start.Add(granularity) {
			if !start.After(notBefore) {
				continue
			}
			candidate := domain.NewInterval(start, duration)
			if !fitsFree(free, candidate) {
				continue
			}
			key := start.UnixNano()
			if seen[key] {
				continue
			}
			seen[key] = true
			slots = append(slots, start)
		}
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].Before(slots[j]) })
	return slots
}

// fitsFree проверяет, что candidate лежит внутри одного свободного интервала
func fitsFree(free []domain.Interval, candidate domain.Interval) bool {
	for _, f := range free {
		if f.Contains(candidate) {
			return true
		}
	}
	return false
}
