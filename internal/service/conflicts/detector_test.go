package conflicts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
	"github.com/nguessop/nguessbeauty-sub001/internal/infra/storage/memory"
	"github.com/nguessop/nguessbeauty-sub001/pkg/logger"
	"github.com/nguessop/nguessbeauty-sub001/pkg/txmanager"
)

var day = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func seed(t *testing.T, repo *memory.BookingRepository, staffID int64, start time.Time, minutes int, status domain.BookingStatus) {
	t.Helper()
	b, err := domain.NewBooking(domain.NewBookingParams{
		SalonID: 1, StaffID: staffID, ServiceID: 1, ClientID: 1,
		StartTime: start, DurationMinutes: minutes, Price: 1000, Now: day,
	})
	require.NoError(t, err)
	b.Status = status
	_, err = repo.Create(context.Background(), b)
	require.NoError(t, err)
}

func TestDetector_HasConflict(t *testing.T) {
	repo := memory.NewBookingRepository(memory.NewStore())
	seed(t, repo, 1, at(10, 0), 90, domain.StatusConfirmed)
	seed(t, repo, 1, at(14, 0), 60, domain.StatusCancelled)
	seed(t, repo, 1, at(16, 0), 60, domain.StatusNoShow)
	seed(t, repo, 2, at(9, 0), 60, domain.StatusPending)

	d := NewDetector(repo, logger.Nop())

	tests := []struct {
		name     string
		staffID  int64
		start    time.Time
		end      time.Time
		conflict bool
	}{
		{"touching before is free", 1, at(9, 0), at(10, 0), false},
		{"touching after is free", 1, at(11, 30), at(12, 30), false},
		{"overlap start", 1, at(9, 30), at(10, 30), true},
		{"contained", 1, at(10, 15), at(10, 45), true},
		{"covering", 1, at(9, 0), at(12, 0), true},
		{"cancelled does not occupy", 1, at(14, 0), at(15, 0), false},
		{"no show does not occupy", 1, at(16, 0), at(17, 0), false},
		{"other staff", 1, at(9, 0), at(9, 30), false},
		{"pending occupies", 2, at(9, 30), at(10, 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.HasConflict(context.Background(), tt.staffID, tt.start, tt.end)
			require.NoError(t, err)
			assert.Equal(t, tt.conflict, got)
		})
	}
}

func TestDetector_InvalidInterval(t *testing.T) {
	d := NewDetector(memory.NewBookingRepository(memory.NewStore()), logger.Nop())

	_, err := d.HasConflict(context.Background(), 1, at(10, 0), at(10, 0))
	assert.True(t, errors.Is(err, ErrInvalidInterval))
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

type serializationFailingRepo struct{}

func (serializationFailingRepo) FindOverlapping(context.Context, int64, time.Time, time.Time) ([]*domain.Booking, error) {
	return nil, &pq.Error{Code: "40001", Message: "could not serialize access due to read/write dependencies among transactions"}
}

func TestDetector_SerializationFailureStaysRetryable(t *testing.T) {
	d := NewDetector(serializationFailingRepo{}, logger.Nop())

	_, err := d.HasConflict(context.Background(), 1, at(10, 0), at(11, 0))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInternal))
	assert.True(t, txmanager.IsRetryable(err))
}
