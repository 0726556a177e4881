package get_availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
	"github.com/nguessop/nguessbeauty-sub001/internal/infra/storage/memory"
	"github.com/nguessop/nguessbeauty-sub001/internal/integrations/catalogservice"
	"github.com/nguessop/nguessbeauty-sub001/internal/service/policy"
	policyModels "github.com/nguessop/nguessbeauty-sub001/internal/service/policy/models"
	"github.com/nguessop/nguessbeauty-sub001/pkg/logger"
	"github.com/nguessop/nguessbeauty-sub001/pkg/ptr"
	"github.com/nguessop/nguessbeauty-sub001/pkg/types"
)

const (
	salonID   int64 = 1
	staffID   int64 = 7
	serviceID int64 = 42
)

type fixedTime struct{ t time.Time }

func (f fixedTime) Now() time.Time { return f.t }

type fakeCatalog struct {
	staff    map[int64]*domain.Staff
	services map[int64]*domain.Service
	err      error
}

func (f *fakeCatalog) GetStaff(_ context.Context, id int64) (*domain.Staff, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.staff[id]
	if !ok {
		return nil, catalogservice.ErrStaffNotFound
	}
	return s, nil
}

func (f *fakeCatalog) GetService(_ context.Context, id int64) (*domain.Service, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.services[id]
	if !ok {
		return nil, catalogservice.ErrServiceNotFound
	}
	return s, nil
}

type fixture struct {
	uc       *UseCase
	bookings *memory.BookingRepository
	policies *policy.Service
	catalog  *fakeCatalog
}

// мастер работает по понедельникам 09:00-12:30 UTC, услуга 60 минут
func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()

	store := memory.NewStore()
	bookings := memory.NewBookingRepository(store)
	policies := policy.NewService(memory.NewPolicyRepository(store), domain.DefaultPolicyDefaults(), logger.Nop())

	catalog := &fakeCatalog{
		staff: map[int64]*domain.Staff{
			staffID: {
				ID:      staffID,
				SalonID: salonID,
				WorkingHours: []domain.WorkingInterval{
					{Weekday: time.Monday, Start: "09:00", End: "12:30"},
				},
			},
		},
		services: map[int64]*domain.Service{
			serviceID: {
				ID:               serviceID,
				SalonID:          salonID,
				DurationMinutes:  60,
				Price:            5000,
				EligibleStaffIDs: []int64{staffID},
				Version:          1,
			},
		},
	}

	uc := NewUseCase(bookings, catalog, policies, logger.Nop()).WithTimeProvider(fixedTime{now})
	return &fixture{uc: uc, bookings: bookings, policies: policies, catalog: catalog}
}

func (f *fixture) setGranularity(t *testing.T, minutes int) {
	t.Helper()
	_, err := f.policies.Update(context.Background(), &policyModels.UpdatePolicyRequest{
		SalonID:                salonID,
		SlotGranularityMinutes: ptr.Ptr(minutes),
	})
	require.NoError(t, err)
}

func (f *fixture) book(t *testing.T, start time.Time, minutes int, status domain.BookingStatus) {
	t.Helper()
	b, err := domain.NewBooking(domain.NewBookingParams{
		SalonID:         salonID,
		StaffID:         staffID,
		ServiceID:       serviceID,
		ClientID:        100,
		StartTime:       start,
		DurationMinutes: minutes,
		Price:           5000,
		CreatedBy:       100,
		Now:             start.Add(-48 * time.Hour),
	})
	require.NoError(t, err)
	b.Status = status
	_, err = f.bookings.Create(context.Background(), b)
	require.NoError(t, err)
}

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 2, hour, minute, 0, 0, time.UTC)
}

var monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func TestExecute_ExistingBookingBlocksOverlappingSlots(t *testing.T) {
	f := newFixture(t, monday.AddDate(0, 0, -1))
	f.setGranularity(t, 30)
	f.book(t, at(10, 0), 90, domain.StatusConfirmed)

	resp, err := f.uc.Execute(context.Background(), &Request{StaffID: staffID, ServiceID: serviceID, Date: monday})
	require.NoError(t, err)

	assert.Equal(t, []time.Time{at(9, 0), at(11, 30)}, resp.Slots)
	assert.Equal(t, 30, resp.GranularityMinutes)
	assert.Equal(t, 60, resp.DurationMinutes)
	assert.Equal(t, "UTC", resp.Timezone)
}

func TestExecute_InactiveBookingsDoNotBlock(t *testing.T) {
	f := newFixture(t, monday.AddDate(0, 0, -1))
	f.setGranularity(t, 30)
	f.book(t, at(10, 0), 90, domain.StatusCancelled)
	f.book(t, at(9, 0), 60, domain.StatusNoShow)

	resp, err := f.uc.Execute(context.Background(), &Request{StaffID: staffID, ServiceID: serviceID, Date: monday})
	require.NoError(t, err)

	assert.Equal(t, []time.Time{at(9, 0), at(9, 30), at(10, 0), at(10, 30), at(11, 0), at(11, 30)}, resp.Slots)
}

func TestExecute_DefaultGranularity(t *testing.T) {
	f := newFixture(t, monday.AddDate(0, 0, -1))

	resp, err := f.uc.Execute(context.Background(), &Request{StaffID: staffID, ServiceID: serviceID, Date: monday})
	require.NoError(t, err)

	// шаг 15 минут: 09:00 ... 11:30
	require.Len(t, resp.Slots, 11)
	assert.Equal(t, at(9, 0), resp.Slots[0])
	assert.Equal(t, at(11, 30), resp.Slots[len(resp.Slots)-1])
}

func TestExecute_Buffer(t *testing.T) {
	f := newFixture(t, monday.AddDate(0, 0, -1))
	f.setGranularity(t, 30)
	f.book(t, at(10, 0), 60, domain.StatusConfirmed)

	resp, err := f.uc.Execute(context.Background(), &Request{
		StaffID:       staffID,
		ServiceID:     serviceID,
		Date:          monday,
		BufferMinutes: ptr.Ptr(15),
	})
	require.NoError(t, err)

	// занято 09:45-11:15: 09:00 упирается в зазор, 11:00 тоже
	assert.Equal(t, []time.Time{at(11, 30)}, resp.Slots)
	assert.Equal(t, 15, resp.BufferMinutes)
}

func TestExecute_Today_SkipsPastStarts(t *testing.T) {
	f := newFixture(t, at(10, 10))
	f.setGranularity(t, 30)

	resp, err := f.uc.Execute(context.Background(), &Request{StaffID: staffID, ServiceID: serviceID, Date: monday})
	require.NoError(t, err)

	assert.Equal(t, []time.Time{at(10, 30), at(11, 0), at(11, 30)}, resp.Slots)
}

func TestExecute_Today_MinNotice(t *testing.T) {
	f := newFixture(t, at(9, 0))
	_, err := f.policies.Update(context.Background(), &policyModels.UpdatePolicyRequest{
		SalonID:                 salonID,
		SlotGranularityMinutes:  ptr.Ptr(30),
		MinBookingNoticeMinutes: ptr.Ptr(90),
	})
	require.NoError(t, err)

	resp, err := f.uc.Execute(context.Background(), &Request{StaffID: staffID, ServiceID: serviceID, Date: monday})
	require.NoError(t, err)

	// 10:30 ровно на границе уведомления и отсекается
	assert.Equal(t, []time.Time{at(11, 0), at(11, 30)}, resp.Slots)
}

func TestExecute_PastDate_Empty(t *testing.T) {
	f := newFixture(t, monday.AddDate(0, 0, 1))

	resp, err := f.uc.Execute(context.Background(), &Request{StaffID: staffID, ServiceID: serviceID, Date: monday})
	require.NoError(t, err)
	assert.Empty(t, resp.Slots)
}

func TestExecute_AdvanceBookingLimit(t *testing.T) {
	f := newFixture(t, monday.AddDate(0, 0, -10))
	_, err := f.policies.Update(context.Background(), &policyModels.UpdatePolicyRequest{
		SalonID:            salonID,
		AdvanceBookingDays: ptr.Ptr(7),
	})
	require.NoError(t, err)

	_, err = f.uc.Execute(context.Background(), &Request{StaffID: staffID, ServiceID: serviceID, Date: monday})
	require.ErrorIs(t, err, ErrDateTooFarInFuture)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestExecute_NonWorkingDay(t *testing.T) {
	f := newFixture(t, monday.AddDate(0, 0, -1))

	resp, err := f.uc.Execute(context.Background(), &Request{StaffID: staffID, ServiceID: serviceID, Date: monday.AddDate(0, 0, 1)})
	require.NoError(t, err)
	assert.Empty(t, resp.Slots)
}

func TestExecute_Exceptions(t *testing.T) {
	t.Run("whole day closure", func(t *testing.T) {
		f := newFixture(t, monday.AddDate(0, 0, -1))
		f.catalog.staff[staffID].Exceptions = []domain.ScheduleException{
			{Date: monday, Kind: domain.ExceptionClosure},
		}

		resp, err := f.uc.Execute(context.Background(), &Request{StaffID: staffID, ServiceID: serviceID, Date: monday})
		require.NoError(t, err)
		assert.Empty(t, resp.Slots)
	})

	t.Run("partial closure", func(t *testing.T) {
		f := newFixture(t, monday.AddDate(0, 0, -1))
		f.setGranularity(t, 30)
		f.catalog.staff[staffID].Exceptions = []domain.ScheduleException{
			{Date: monday, Kind: domain.ExceptionClosure, Start: ptr.Ptr(types.TimeString("09:00")), End: ptr.Ptr(types.TimeString("11:00"))},
		}

		resp, err := f.uc.Execute(context.Background(), &Request{StaffID: staffID, ServiceID: serviceID, Date: monday})
		require.NoError(t, err)
		assert.Equal(t, []time.Time{at(11, 0), at(11, 30)}, resp.Slots)
	})

	t.Run("extra hours", func(t *testing.T) {
		f := newFixture(t, monday.AddDate(0, 0, -1))
		f.setGranularity(t, 60)
		tuesday := monday.AddDate(0, 0, 1)
		f.catalog.staff[staffID].Exceptions = []domain.ScheduleException{
			{Date: tuesday, Kind: domain.ExceptionExtraHours, Start: ptr.Ptr(types.TimeString("14:00")), End: ptr.Ptr(types.TimeString("16:00"))},
		}

		resp, err := f.uc.Execute(context.Background(), &Request{StaffID: staffID, ServiceID: serviceID, Date: tuesday})
		require.NoError(t, err)
		assert.Equal(t, []time.Time{
			time.Date(2026, 3, 3, 14, 0, 0, 0, time.UTC),
			time.Date(2026, 3, 3, 15, 0, 0, 0, time.UTC),
		}, resp.Slots)
	})
}

func TestExecute_DSTTransition(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	// 29 марта 2026 в 02:00 часы переводятся на 03:00
	sunday := time.Date(2026, 3, 29, 0, 0, 0, 0, paris)

	f := newFixture(t, sunday.AddDate(0, 0, -1))
	f.setGranularity(t, 60)
	staff := f.catalog.staff[staffID]
	staff.Timezone = "Europe/Paris"
	staff.WorkingHours = []domain.WorkingInterval{{Weekday: time.Sunday, Start: "01:00", End: "05:00"}}

	resp, err := f.uc.Execute(context.Background(), &Request{StaffID: staffID, ServiceID: serviceID, Date: sunday})
	require.NoError(t, err)

	// окно длится три реальных часа
	require.Len(t, resp.Slots, 3)
	assert.Equal(t, time.Date(2026, 3, 29, 0, 0, 0, 0, time.UTC), resp.Slots[0].UTC())
	assert.Equal(t, time.Date(2026, 3, 29, 1, 0, 0, 0, time.UTC), resp.Slots[1].UTC())
	assert.Equal(t, time.Date(2026, 3, 29, 2, 0, 0, 0, time.UTC), resp.Slots[2].UTC())
	assert.Equal(t, "Europe/Paris", resp.Timezone)
}

func TestExecute_Errors(t *testing.T) {
	tests := []struct {
		name    string
		req     *Request
		setup   func(f *fixture)
		wantErr error
	}{
		{
			name:    "invalid staff id",
			req:     &Request{StaffID: 0, ServiceID: serviceID, Date: monday},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "missing date",
			req:     &Request{StaffID: staffID, ServiceID: serviceID},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "negative buffer",
			req:     &Request{StaffID: staffID, ServiceID: serviceID, Date: monday, BufferMinutes: ptr.Ptr(-5)},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "staff not found",
			req:     &Request{StaffID: 999, ServiceID: serviceID, Date: monday},
			wantErr: ErrStaffNotFound,
		},
		{
			name:    "service not found",
			req:     &Request{StaffID: staffID, ServiceID: 999, Date: monday},
			wantErr: ErrServiceNotFound,
		},
		{
			name: "staff not eligible",
			req:  &Request{StaffID: staffID, ServiceID: serviceID, Date: monday},
			setup: func(f *fixture) {
				f.catalog.services[serviceID].EligibleStaffIDs = []int64{8}
			},
			wantErr: ErrStaffNotEligible,
		},
		{
			name: "catalog unavailable",
			req:  &Request{StaffID: staffID, ServiceID: serviceID, Date: monday},
			setup: func(f *fixture) {
				f.catalog.err = errors.New("connection refused")
			},
			wantErr: ErrInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, monday.AddDate(0, 0, -1))
			if tt.setup != nil {
				tt.setup(f)
			}

			_, err := f.uc.Execute(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGenerateSlots_OverlappingWindowsDeduplicated(t *testing.T) {
	schedule := domain.DaySchedule{
		Windows: []domain.Interval{
			{Start: at(9, 0), End: at(11, 0)},
			{Start: at(10, 0), End: at(12, 0)},
		},
	}

	slots := generateSlots(schedule, nil, time.Hour, time.Hour, at(0, 0))
	assert.Equal(t, []time.Time{at(9, 0), at(10, 0), at(11, 0)}, slots)
}
