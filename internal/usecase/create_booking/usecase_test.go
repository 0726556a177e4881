package create_booking

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
	"github.com/nguessop/nguessbeauty-sub001/internal/infra/storage/memory"
	"github.com/nguessop/nguessbeauty-sub001/internal/integrations/catalogservice"
	"github.com/nguessop/nguessbeauty-sub001/internal/service/conflicts"
	"github.com/nguessop/nguessbeauty-sub001/internal/service/policy"
	policyModels "github.com/nguessop/nguessbeauty-sub001/internal/service/policy/models"
	"github.com/nguessop/nguessbeauty-sub001/pkg/logger"
	"github.com/nguessop/nguessbeauty-sub001/pkg/ptr"
	"github.com/nguessop/nguessbeauty-sub001/pkg/txmanager"
)

const (
	salonID   int64 = 1
	staffID   int64 = 7
	serviceID int64 = 42
	clientID  int64 = 100
)

type fixedTime struct{ t time.Time }

func (f fixedTime) Now() time.Time { return f.t }

type fakeCatalog struct {
	staff   *domain.Staff
	service *domain.Service
}

func (f *fakeCatalog) GetStaff(_ context.Context, id int64) (*domain.Staff, error) {
	if f.staff == nil || f.staff.ID != id {
		return nil, catalogservice.ErrStaffNotFound
	}
	return f.staff, nil
}

func (f *fakeCatalog) GetService(_ context.Context, id int64) (*domain.Service, error) {
	if f.service == nil || f.service.ID != id {
		return nil, catalogservice.ErrServiceNotFound
	}
	return f.service, nil
}

type countingMetrics struct {
	created   atomic.Int64
	conflicts atomic.Int64
}

func (m *countingMetrics) IncBookingCreated()  { m.created.Add(1) }
func (m *countingMetrics) IncBookingConflict() { m.conflicts.Add(1) }

type fixture struct {
	uc       *UseCase
	store    *memory.Store
	bookings *memory.BookingRepository
	policies *policy.Service
	catalog  *fakeCatalog
	metrics  *countingMetrics
}

// понедельник 2 марта 2026, мастер работает 09:00-18:00 UTC
var monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return monday.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()

	store := memory.NewStore()
	bookings := memory.NewBookingRepository(store)
	policies := policy.NewService(memory.NewPolicyRepository(store), domain.DefaultPolicyDefaults(), logger.Nop())
	detector := conflicts.NewDetector(bookings, logger.Nop())
	metrics := &countingMetrics{}

	catalog := &fakeCatalog{
		staff: &domain.Staff{
			ID:      staffID,
			SalonID: salonID,
			WorkingHours: []domain.WorkingInterval{
				{Weekday: time.Monday, Start: "09:00", End: "18:00"},
			},
		},
		service: &domain.Service{
			ID:               serviceID,
			SalonID:          salonID,
			DurationMinutes:  60,
			Price:            5000,
			EligibleStaffIDs: []int64{staffID},
			Version:          3,
		},
	}

	uc := NewUseCase(bookings, detector, catalog, policies, memory.NewTransactionManager(store), metrics, logger.Nop()).
		WithTimeProvider(fixedTime{now})

	return &fixture{uc: uc, store: store, bookings: bookings, policies: policies, catalog: catalog, metrics: metrics}
}

func request(start time.Time) *Request {
	return &Request{
		StaffID:   staffID,
		ServiceID: serviceID,
		ClientID:  clientID,
		StartTime: start,
		CreatedBy: clientID,
	}
}

func TestExecute_Success(t *testing.T) {
	now := monday.AddDate(0, 0, -1)
	f := newFixture(t, now)

	resp, err := f.uc.Execute(context.Background(), request(at(10, 0)))
	require.NoError(t, err)

	assert.NotZero(t, resp.ID)
	assert.Equal(t, salonID, resp.SalonID)
	assert.Equal(t, at(11, 0), resp.EndTime)
	assert.Equal(t, 60, resp.DurationMinutes)
	assert.Equal(t, int64(5000), resp.Price)
	assert.Equal(t, 3, resp.ServiceVersion)
	assert.Equal(t, string(domain.StatusPending), resp.Status)
	assert.Equal(t, string(domain.PaymentUnpaid), resp.PaymentStatus)
	assert.Equal(t, now, resp.CreatedAt)
	assert.Equal(t, int64(1), f.metrics.created.Load())

	stored, err := f.bookings.GetByID(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Status)
}

func TestExecute_Conflicts(t *testing.T) {
	tests := []struct {
		name     string
		start    time.Time
		conflict bool
	}{
		{name: "same interval", start: at(10, 0), conflict: true},
		{name: "overlaps end", start: at(10, 30), conflict: true},
		{name: "overlaps start", start: at(9, 30), conflict: true},
		{name: "touches end", start: at(11, 0), conflict: false},
		{name: "touches start", start: at(9, 0), conflict: false},
		{name: "off grid start", start: at(11, 7), conflict: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, monday.AddDate(0, 0, -1))
			_, err := f.uc.Execute(context.Background(), request(at(10, 0)))
			require.NoError(t, err)

			_, err = f.uc.Execute(context.Background(), request(tt.start))
			if tt.conflict {
				require.ErrorIs(t, err, ErrSlotNotAvailable)
				assert.ErrorIs(t, err, domain.ErrConflict)
				assert.Equal(t, int64(1), f.metrics.conflicts.Load())
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestExecute_CancelledBookingFreesSlot(t *testing.T) {
	f := newFixture(t, monday.AddDate(0, 0, -1))
	resp, err := f.uc.Execute(context.Background(), request(at(10, 0)))
	require.NoError(t, err)

	require.NoError(t, f.bookings.UpdateStatus(context.Background(), domain.StatusChange{
		BookingID: resp.ID,
		From:      domain.StatusPending,
		To:        domain.StatusCancelled,
		At:        monday,
	}))

	_, err = f.uc.Execute(context.Background(), request(at(10, 0)))
	require.NoError(t, err)
}

func TestExecute_ConcurrentRequests_OneWins(t *testing.T) {
	f := newFixture(t, monday.AddDate(0, 0, -1))

	const workers = 16
	var (
		wg        sync.WaitGroup
		succeeded atomic.Int64
		conflicts atomic.Int64
		start     = make(chan struct{})
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			// часть запросов пересекается частично
			begin := at(10, 0)
			if i%2 == 1 {
				begin = at(10, 30)
			}
			_, err := f.uc.Execute(context.Background(), request(begin))
			switch {
			case err == nil:
				succeeded.Add(1)
			case assert.ErrorIs(t, err, ErrSlotNotAvailable):
				conflicts.Add(1)
			}
		}(i)
	}

	close(start)
	wg.Wait()

	assert.Equal(t, int64(1), succeeded.Load())
	assert.Equal(t, int64(workers-1), conflicts.Load())

	staff := staffID
	active, err := f.bookings.ListByFilter(context.Background(), domain.BookingFilter{StaffID: &staff})
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestExecute_Timing(t *testing.T) {
	tests := []struct {
		name    string
		now     time.Time
		start   time.Time
		policy  *policyModels.UpdatePolicyRequest
		wantErr error
	}{
		{
			name:    "start in the past",
			now:     at(11, 0),
			start:   at(10, 0),
			wantErr: ErrStartInPast,
		},
		{
			name:  "slight clock skew tolerated",
			now:   at(10, 3),
			start: at(10, 0),
		},
		{
			name:  "min notice violated",
			now:   at(9, 30),
			start: at(10, 0),
			policy: &policyModels.UpdatePolicyRequest{
				SalonID:                 salonID,
				MinBookingNoticeMinutes: ptr.Ptr(60),
			},
			wantErr: ErrTooLateToBook,
		},
		{
			name:  "min notice satisfied",
			now:   at(8, 0),
			start: at(10, 0),
			policy: &policyModels.UpdatePolicyRequest{
				SalonID:                 salonID,
				MinBookingNoticeMinutes: ptr.Ptr(60),
			},
		},
		{
			name:  "too far in advance",
			now:   monday.AddDate(0, 0, -8),
			start: at(10, 0),
			policy: &policyModels.UpdatePolicyRequest{
				SalonID:            salonID,
				AdvanceBookingDays: ptr.Ptr(7),
			},
			wantErr: ErrDateTooFarInFuture,
		},
		{
			name:    "before opening",
			now:     monday.AddDate(0, 0, -1),
			start:   at(8, 30),
			wantErr: ErrOutsideWorkingHours,
		},
		{
			name:    "runs past closing",
			now:     monday.AddDate(0, 0, -1),
			start:   at(17, 30),
			wantErr: ErrOutsideWorkingHours,
		},
		{
			name:    "non working day",
			now:     monday.AddDate(0, 0, -1),
			start:   at(34, 0),
			wantErr: ErrOutsideWorkingHours,
		},
		{
			name:    "seconds in start time",
			now:     monday.AddDate(0, 0, -1),
			start:   at(10, 0).Add(30 * time.Second),
			wantErr: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.now)
			if tt.policy != nil {
				_, err := f.policies.Update(context.Background(), tt.policy)
				require.NoError(t, err)
			}

			_, err := f.uc.Execute(context.Background(), request(tt.start))
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestExecute_CatalogErrors(t *testing.T) {
	t.Run("staff not found", func(t *testing.T) {
		f := newFixture(t, monday.AddDate(0, 0, -1))
		req := request(at(10, 0))
		req.StaffID = 999

		_, err := f.uc.Execute(context.Background(), req)
		assert.ErrorIs(t, err, ErrStaffNotFound)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("service not found", func(t *testing.T) {
		f := newFixture(t, monday.AddDate(0, 0, -1))
		req := request(at(10, 0))
		req.ServiceID = 999

		_, err := f.uc.Execute(context.Background(), req)
		assert.ErrorIs(t, err, ErrServiceNotFound)
	})

	t.Run("staff not eligible", func(t *testing.T) {
		f := newFixture(t, monday.AddDate(0, 0, -1))
		f.catalog.service.EligibleStaffIDs = []int64{8}

		_, err := f.uc.Execute(context.Background(), request(at(10, 0)))
		assert.ErrorIs(t, err, ErrStaffNotEligible)
	})

	t.Run("invalid catalog data", func(t *testing.T) {
		f := newFixture(t, monday.AddDate(0, 0, -1))
		f.catalog.service.DurationMinutes = 0

		_, err := f.uc.Execute(context.Background(), request(at(10, 0)))
		assert.ErrorIs(t, err, ErrInternal)
	})
}

// retryingTxManager повторяет транзакцию на ошибках сериализации, как txmanager.DoSerializable
type retryingTxManager struct {
	inner    *memory.TransactionManager
	attempts int
}

func (m *retryingTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for i := 0; i < txmanager.DefaultMaxRetries; i++ {
		m.attempts++
		err = m.inner.DoSerializable(ctx, fn)
		if err == nil || !txmanager.IsRetryable(err) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", txmanager.ErrSerialization, err)
}

// flakyDetector отдает ошибку сериализации postgres заданное число раз
type flakyDetector struct {
	inner    ConflictDetector
	failures int
}

func (d *flakyDetector) HasConflict(ctx context.Context, staffID int64, start, end time.Time) (bool, error) {
	if d.failures > 0 {
		d.failures--
		return false, fmt.Errorf("%w: HasConflict - repository error: %w", conflicts.ErrInternal,
			&pq.Error{Code: "40001", Message: "could not serialize access"})
	}
	return d.inner.HasConflict(ctx, staffID, start, end)
}

func TestExecute_SerializationFailureOnOverlapReadIsRetried(t *testing.T) {
	now := monday.AddDate(0, 0, -1)
	f := newFixture(t, now)

	tx := &retryingTxManager{inner: memory.NewTransactionManager(f.store)}
	detector := &flakyDetector{inner: conflicts.NewDetector(f.bookings, logger.Nop()), failures: 2}
	uc := NewUseCase(f.bookings, detector, f.catalog, f.policies, tx, f.metrics, logger.Nop()).
		WithTimeProvider(fixedTime{now})

	resp, err := uc.Execute(context.Background(), request(at(10, 0)))
	require.NoError(t, err)
	assert.NotZero(t, resp.ID)
	assert.Equal(t, 3, tx.attempts)
}

func TestExecute_SerializationFailureExhaustedIsConflict(t *testing.T) {
	now := monday.AddDate(0, 0, -1)
	f := newFixture(t, now)

	tx := &retryingTxManager{inner: memory.NewTransactionManager(f.store)}
	detector := &flakyDetector{inner: conflicts.NewDetector(f.bookings, logger.Nop()), failures: 10}
	uc := NewUseCase(f.bookings, detector, f.catalog, f.policies, tx, f.metrics, logger.Nop()).
		WithTimeProvider(fixedTime{now})

	_, err := uc.Execute(context.Background(), request(at(10, 0)))
	require.ErrorIs(t, err, ErrSlotNotAvailable)
	assert.NotErrorIs(t, err, ErrInternal)
	assert.Equal(t, txmanager.DefaultMaxRetries, tx.attempts)
}
