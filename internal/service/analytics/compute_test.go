package analytics

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
	"github.com/nguessop/nguessbeauty-sub001/pkg/ptr"
)

func march(day, hour int) time.Time {
	return time.Date(2026, 3, day, hour, 0, 0, 0, time.UTC)
}

func bookingAt(id, salonID, staffID int64, start time.Time, status domain.BookingStatus) *domain.Booking {
	return &domain.Booking{
		ID:              id,
		SalonID:         salonID,
		StaffID:         staffID,
		ServiceID:       42,
		ClientID:        100,
		StartTime:       start,
		EndTime:         start.Add(time.Hour),
		DurationMinutes: 60,
		Price:           5000,
		Status:          status,
	}
}

func settled(bookingID, amount int64, status domain.TransactionStatus, at time.Time) *domain.Transaction {
	commission, payout := domain.ComputeCommission(amount, decimal.RequireFromString("0.10"))
	return &domain.Transaction{
		ID:               uuid.New(),
		BookingID:        bookingID,
		Amount:           amount,
		CommissionRate:   decimal.RequireFromString("0.10"),
		CommissionAmount: commission,
		PayoutAmount:     payout,
		Method:           domain.MethodCard,
		Status:           status,
		SettledAt:        &at,
	}
}

type dataset struct {
	bookings     []*domain.Booking
	transactions []*domain.Transaction
}

func marchDataset() dataset {
	bookings := []*domain.Booking{
		bookingAt(1, 1, 7, march(3, 10), domain.StatusCompleted),
		bookingAt(2, 1, 8, march(5, 14), domain.StatusCompleted),
		bookingAt(3, 1, 7, march(6, 10), domain.StatusCancelled),
		bookingAt(4, 1, 7, march(7, 10), domain.StatusNoShow),
		bookingAt(5, 1, 7, march(10, 11), domain.StatusConfirmed),
		bookingAt(6, 1, 8, march(25, 11), domain.StatusConfirmed),
		bookingAt(7, 1, 7, march(26, 10), domain.StatusPending),
		bookingAt(8, 1, 7, time.Date(2026, 2, 20, 10, 0, 0, 0, time.UTC), domain.StatusCompleted),
		bookingAt(9, 2, 9, march(4, 9), domain.StatusCompleted),
	}

	partial := settled(2, 2000, domain.TransactionPaid, march(5, 15))
	partial.RefundedAmount = 1000
	partial.CommissionReversed = 100

	failed := settled(3, 5000, domain.TransactionFailed, march(6, 9))
	failed.SettledAt = nil

	pending := settled(7, 5000, domain.TransactionPending, march(26, 9))
	pending.SettledAt = nil

	transactions := []*domain.Transaction{
		settled(1, 5000, domain.TransactionPaid, march(3, 11)),
		partial,
		failed,
		pending,
		settled(8, 5000, domain.TransactionSettled, time.Date(2026, 2, 20, 11, 0, 0, 0, time.UTC)),
		settled(9, 5000, domain.TransactionPaid, march(4, 10)),
	}

	return dataset{bookings: bookings, transactions: transactions}
}

var marchPeriod = domain.Period{
	From: march(1, 0),
	To:   time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	AsOf: march(20, 0),
}

func TestCompute_SalonSnapshot(t *testing.T) {
	data := marchDataset()
	filter := domain.AnalyticsFilter{SalonID: ptr.Ptr[int64](1)}

	snapshot := Compute(data.bookings, data.transactions, marchPeriod, filter, time.UTC)

	assert.Equal(t, 7, snapshot.BookingCount)
	assert.Equal(t, map[domain.BookingStatus]int{
		domain.StatusPending:   1,
		domain.StatusConfirmed: 2,
		domain.StatusCompleted: 2,
		domain.StatusCancelled: 1,
		domain.StatusNoShow:    1,
	}, snapshot.CountsByStatus)

	// completed 2 + cancelled 1 + no_show 1 + confirmed в прошлом 1
	assert.InDelta(t, 0.2, snapshot.NoShowRate, 1e-9)

	assert.Equal(t, 2, snapshot.TransactionCount)
	assert.Equal(t, int64(6000), snapshot.Revenue)
	assert.Equal(t, int64(600), snapshot.Commission)
	assert.Equal(t, int64(5400), snapshot.Payout)

	assert.Equal(t, 3, snapshot.PeakHours[10])
	assert.Equal(t, 2, snapshot.PeakHours[11])
	assert.Equal(t, 1, snapshot.PeakHours[14])
	assert.Equal(t, "UTC", snapshot.Timezone)
}

func TestCompute_StaffFilter(t *testing.T) {
	data := marchDataset()
	filter := domain.AnalyticsFilter{SalonID: ptr.Ptr[int64](1), StaffID: ptr.Ptr[int64](8)}

	snapshot := Compute(data.bookings, data.transactions, marchPeriod, filter, time.UTC)

	assert.Equal(t, 2, snapshot.BookingCount)
	assert.Equal(t, 1, snapshot.TransactionCount)
	assert.Equal(t, int64(1000), snapshot.Revenue)
	assert.Equal(t, int64(100), snapshot.Commission)
	assert.Equal(t, int64(900), snapshot.Payout)
	assert.Zero(t, snapshot.NoShowRate)
}

func TestCompute_PeakHoursInTimezone(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	data := marchDataset()
	snapshot := Compute(data.bookings, nil, marchPeriod, domain.AnalyticsFilter{SalonID: ptr.Ptr[int64](1)}, paris)

	// до 29 марта Париж в UTC+1
	assert.Equal(t, 3, snapshot.PeakHours[11])
	assert.Equal(t, 2, snapshot.PeakHours[12])
	assert.Equal(t, 1, snapshot.PeakHours[15])
	assert.Zero(t, snapshot.PeakHours[10])
	assert.Equal(t, "Europe/Paris", snapshot.Timezone)
}

func TestCompute_Empty(t *testing.T) {
	snapshot := Compute(nil, nil, marchPeriod, domain.AnalyticsFilter{}, nil)

	assert.Zero(t, snapshot.BookingCount)
	assert.Zero(t, snapshot.Revenue)
	assert.Zero(t, snapshot.NoShowRate)
	assert.Len(t, snapshot.CountsByStatus, len(domain.AllStatuses))
	for _, status := range domain.AllStatuses {
		assert.Equal(t, 0, snapshot.CountsByStatus[status])
	}
}

func TestCompute_IsDeterministic(t *testing.T) {
	data := marchDataset()
	filter := domain.AnalyticsFilter{SalonID: ptr.Ptr[int64](1)}

	first := Compute(data.bookings, data.transactions, marchPeriod, filter, time.UTC)
	second := Compute(data.bookings, data.transactions, marchPeriod, filter, time.UTC)
	assert.Equal(t, first, second)
}

func TestCompute_NoShowRate(t *testing.T) {
	tests := []struct {
		name            string
		completed       int
		cancelled       int
		noShow          int
		confirmedPast   int
		confirmedFuture int
		want            float64
	}{
		{name: "ten completed two cancelled one no-show", completed: 10, cancelled: 2, noShow: 1, want: 1.0 / 13},
		{name: "past confirmed counts in denominator", completed: 1, noShow: 1, confirmedPast: 2, want: 0.25},
		{name: "future confirmed is ignored", completed: 3, noShow: 1, confirmedFuture: 4, want: 0.25},
		{name: "only no-shows", noShow: 2, want: 1},
		{name: "nothing finished", confirmedFuture: 3, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				bookings []*domain.Booking
				id       int64
			)
			add := func(n int, start time.Time, status domain.BookingStatus) {
				for i := 0; i < n; i++ {
					id++
					bookings = append(bookings, bookingAt(id, 1, id, start, status))
				}
			}
			add(tt.completed, march(3, 10), domain.StatusCompleted)
			add(tt.cancelled, march(4, 10), domain.StatusCancelled)
			add(tt.noShow, march(5, 10), domain.StatusNoShow)
			add(tt.confirmedPast, march(10, 10), domain.StatusConfirmed)
			add(tt.confirmedFuture, march(25, 10), domain.StatusConfirmed)

			snapshot := Compute(bookings, nil, marchPeriod, domain.AnalyticsFilter{SalonID: ptr.Ptr[int64](1)}, time.UTC)
			assert.InDelta(t, tt.want, snapshot.NoShowRate, 1e-9)
		})
	}
}
