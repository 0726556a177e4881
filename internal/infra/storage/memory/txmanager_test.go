package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
	bookingRepo "github.com/nguessop/nguessbeauty-sub001/internal/infra/storage/booking"
)

var start = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func newBooking(t *testing.T, staffID int64, at time.Time) *domain.Booking {
	t.Helper()
	b, err := domain.NewBooking(domain.NewBookingParams{
		SalonID:         1,
		StaffID:         staffID,
		ServiceID:       42,
		ClientID:        100,
		StartTime:       at,
		DurationMinutes: 60,
		Price:           5000,
		CreatedBy:       100,
		Now:             at.Add(-time.Hour),
	})
	require.NoError(t, err)
	return b
}

func TestTransactionManager_RollbackUndoesWrites(t *testing.T) {
	store := NewStore()
	repo := NewBookingRepository(store)
	tm := NewTransactionManager(store)
	ctx := context.Background()

	existing, err := repo.Create(ctx, newBooking(t, 7, start))
	require.NoError(t, err)

	errAbort := errors.New("abort")
	var createdID int64
	err = tm.Do(ctx, func(txCtx context.Context) error {
		created, err := repo.Create(txCtx, newBooking(t, 7, start.Add(2*time.Hour)))
		if err != nil {
			return err
		}
		createdID = created.ID

		if err := repo.UpdateStatus(txCtx, domain.StatusChange{
			BookingID: existing.ID,
			From:      domain.StatusPending,
			To:        domain.StatusCancelled,
			At:        start,
		}); err != nil {
			return err
		}
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	_, err = repo.GetByID(ctx, createdID)
	assert.ErrorIs(t, err, bookingRepo.ErrBookingNotFound)

	restored, err := repo.GetByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, restored.Status)
	assert.Nil(t, restored.CancelledAt)
}

func TestBookingRepository_CreateRejectsOverlap(t *testing.T) {
	store := NewStore()
	repo := NewBookingRepository(store)
	ctx := context.Background()

	_, err := repo.Create(ctx, newBooking(t, 7, start))
	require.NoError(t, err)

	_, err = repo.Create(ctx, newBooking(t, 7, start.Add(30*time.Minute)))
	assert.ErrorIs(t, err, bookingRepo.ErrSlotNotAvailable)

	// другой мастер и смежный интервал не конфликтуют
	_, err = repo.Create(ctx, newBooking(t, 8, start))
	assert.NoError(t, err)
	_, err = repo.Create(ctx, newBooking(t, 7, start.Add(time.Hour)))
	assert.NoError(t, err)
}

func TestBookingRepository_UpdateStatusIsCompareAndSwap(t *testing.T) {
	store := NewStore()
	repo := NewBookingRepository(store)
	ctx := context.Background()

	b, err := repo.Create(ctx, newBooking(t, 7, start))
	require.NoError(t, err)

	err = repo.UpdateStatus(ctx, domain.StatusChange{BookingID: b.ID, From: domain.StatusConfirmed, To: domain.StatusCompleted, At: start})
	assert.ErrorIs(t, err, bookingRepo.ErrStatusMismatch)

	err = repo.UpdateStatus(ctx, domain.StatusChange{BookingID: b.ID, From: domain.StatusPending, To: domain.StatusConfirmed, At: start})
	require.NoError(t, err)

	stored, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, stored.Status)
}

func TestLockStaff_SerializesTransactions(t *testing.T) {
	store := NewStore()
	repo := NewBookingRepository(store)
	tm := NewTransactionManager(store)

	err := repo.LockStaff(context.Background(), 7)
	assert.ErrorIs(t, err, ErrNoTransaction)

	var (
		mu     sync.Mutex
		inside int
		peak   int
		wg     sync.WaitGroup
	)

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := tm.DoSerializable(context.Background(), func(txCtx context.Context) error {
				if err := repo.LockStaff(txCtx, 7); err != nil {
					return err
				}
				// повторная блокировка в той же транзакции не ждет
				if err := repo.LockStaff(txCtx, 7); err != nil {
					return err
				}

				mu.Lock()
				inside++
				if inside > peak {
					peak = inside
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}

	wg.Wait()
	assert.Equal(t, 1, peak)
}

func TestLockStaff_ContextCancelled(t *testing.T) {
	store := NewStore()
	repo := NewBookingRepository(store)
	tm := NewTransactionManager(store)

	locked := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = tm.Do(context.Background(), func(txCtx context.Context) error {
			if err := repo.LockStaff(txCtx, 7); err != nil {
				return err
			}
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := tm.Do(ctx, func(txCtx context.Context) error {
		return repo.LockStaff(txCtx, 7)
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, bookingRepo.ErrTransaction)

	close(release)
}
