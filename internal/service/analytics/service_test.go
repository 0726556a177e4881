package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
	"github.com/nguessop/nguessbeauty-sub001/internal/infra/storage/memory"
	"github.com/nguessop/nguessbeauty-sub001/internal/service/analytics/models"
	"github.com/nguessop/nguessbeauty-sub001/pkg/logger"
	"github.com/nguessop/nguessbeauty-sub001/pkg/ptr"
)

type fixedTime struct{ t time.Time }

func (f fixedTime) Now() time.Time { return f.t }

func newTestService(t *testing.T, now time.Time) *Service {
	t.Helper()

	store := memory.NewStore()
	bookings := memory.NewBookingRepository(store)
	transactions := memory.NewTransactionRepository(store)

	data := marchDataset()
	for _, b := range data.bookings {
		b.ID = 0
		_, err := bookings.Create(context.Background(), b)
		require.NoError(t, err)
	}
	for _, tx := range data.transactions {
		tx.IdempotencyKey = tx.ID.String()
		_, err := transactions.Create(context.Background(), tx)
		require.NoError(t, err)
	}

	return NewService(bookings, transactions, memory.NewTransactionManager(store), logger.Nop()).
		WithTimeProvider(fixedTime{now})
}

func TestGetAnalytics(t *testing.T) {
	svc := newTestService(t, march(20, 0))

	resp, err := svc.GetAnalytics(context.Background(), &models.GetAnalyticsRequest{
		From:    marchPeriod.From,
		To:      marchPeriod.To,
		SalonID: ptr.Ptr[int64](1),
	})
	require.NoError(t, err)

	assert.Equal(t, march(20, 0), resp.AsOf)
	assert.Equal(t, 7, resp.BookingCount)
	assert.Equal(t, int64(6000), resp.Revenue)
	assert.Equal(t, int64(600), resp.Commission)
	assert.Equal(t, 1, resp.CountsByStatus["no_show"])
	assert.InDelta(t, 0.2, resp.NoShowRate, 1e-9)
}

func TestGetAnalytics_AsOfDefaultsToPeriodEnd(t *testing.T) {
	svc := newTestService(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))

	resp, err := svc.GetAnalytics(context.Background(), &models.GetAnalyticsRequest{
		From:    marchPeriod.From,
		To:      marchPeriod.To,
		SalonID: ptr.Ptr[int64](1),
	})
	require.NoError(t, err)

	assert.Equal(t, marchPeriod.To, resp.AsOf)
	// оба подтвержденных бронирования уже в прошлом: 2 + 1 + 1 + 2
	assert.InDelta(t, 1.0/6.0, resp.NoShowRate, 1e-9)
}

func TestGetAnalytics_InvalidInput(t *testing.T) {
	svc := newTestService(t, march(20, 0))

	tests := []struct {
		name string
		req  *models.GetAnalyticsRequest
	}{
		{
			name: "empty period",
			req:  &models.GetAnalyticsRequest{From: marchPeriod.To, To: marchPeriod.From},
		},
		{
			name: "missing bounds",
			req:  &models.GetAnalyticsRequest{To: marchPeriod.To},
		},
		{
			name: "unknown timezone",
			req:  &models.GetAnalyticsRequest{From: marchPeriod.From, To: marchPeriod.To, Timezone: "Mars/Olympus"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GetAnalytics(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}
