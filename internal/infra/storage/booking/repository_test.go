package booking

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
	"github.com/nguessop/nguessbeauty-sub001/pkg/dbmetrics"
)

var start = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func newMock(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(db), mock
}

func testBooking() *domain.Booking {
	return &domain.Booking{
		SalonID:         1,
		StaffID:         7,
		ServiceID:       42,
		ServiceVersion:  3,
		ClientID:        100,
		StartTime:       start,
		EndTime:         start.Add(time.Hour),
		DurationMinutes: 60,
		Price:           5000,
		Status:          domain.StatusPending,
		PaymentStatus:   domain.PaymentUnpaid,
		CreatedBy:       100,
		CreatedAt:       start.Add(-time.Hour),
		UpdatedAt:       start.Add(-time.Hour),
	}
}

func bookingRows() *sqlmock.Rows {
	return sqlmock.NewRows(bookingColumns)
}

func addBookingRow(rows *sqlmock.Rows, id int64, status domain.BookingStatus) *sqlmock.Rows {
	created := start.Add(-time.Hour)
	return rows.AddRow(
		id, int64(1), int64(7), int64(42), 3, int64(100),
		start, start.Add(time.Hour), 60, int64(5000),
		string(status), string(domain.PaymentUnpaid), int64(100),
		nil, nil, nil, nil,
		created, created,
	)
}

func TestRepository_Create(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO bookings (salon_id,staff_id,service_id")).
		WithArgs(int64(1), int64(7), int64(42), 3, int64(100), start, start.Add(time.Hour), 60, int64(5000),
			"pending", "unpaid", int64(100), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	created, err := repo.Create(context.Background(), testBooking())
	require.NoError(t, err)
	assert.Equal(t, int64(11), created.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Create_ExclusionViolation(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO bookings")).
		WillReturnError(&pq.Error{Code: "23P01", Constraint: "bookings_no_overlap"})

	_, err := repo.Create(context.Background(), testBooking())
	assert.ErrorIs(t, err, ErrSlotNotAvailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetByID(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = $1")).
		WithArgs(int64(11)).
		WillReturnRows(addBookingRow(bookingRows(), 11, domain.StatusConfirmed))

	b, err := repo.GetByID(context.Background(), 11)
	require.NoError(t, err)
	assert.Equal(t, int64(11), b.ID)
	assert.Equal(t, domain.StatusConfirmed, b.Status)
	assert.Equal(t, start, b.StartTime)
	assert.Nil(t, b.CancelledBy)

	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = $1")).
		WithArgs(int64(12)).
		WillReturnRows(bookingRows())

	_, err = repo.GetByID(context.Background(), 12)
	assert.ErrorIs(t, err, ErrBookingNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_LockStaff(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRepository(db)

	err = repo.LockStaff(context.Background(), 7)
	assert.ErrorIs(t, err, ErrTransaction)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock($1)")).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE staff_id = $1 AND status IN ($2,$3,$4) AND start_time < $5 AND end_time > $6 ORDER BY start_time ASC FOR UPDATE")).
		WillReturnRows(addBookingRow(bookingRows(), 11, domain.StatusConfirmed))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	ctx := dbmetrics.WithTx(context.Background(), tx)

	require.NoError(t, repo.LockStaff(ctx, 7))
	overlapping, err := repo.FindOverlapping(ctx, 7, start, start.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, overlapping, 1)

	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateStatus(t *testing.T) {
	change := domain.StatusChange{BookingID: 11, From: domain.StatusPending, To: domain.StatusConfirmed, At: start}

	t.Run("success", func(t *testing.T) {
		repo, mock := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4")).
			WithArgs("confirmed", start, int64(11), "pending").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.UpdateStatus(context.Background(), change))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("status changed concurrently", func(t *testing.T) {
		repo, mock := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM bookings WHERE id = $1")).
			WithArgs(int64(11)).
			WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

		err := repo.UpdateStatus(context.Background(), change)
		assert.ErrorIs(t, err, ErrStatusMismatch)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM bookings WHERE id = $1")).
			WithArgs(int64(11)).
			WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

		err := repo.UpdateStatus(context.Background(), change)
		assert.ErrorIs(t, err, ErrBookingNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no-show requires client not checked in", func(t *testing.T) {
		repo, mock := newMock(t)
		noShow := domain.StatusChange{
			BookingID:           11,
			From:                domain.StatusConfirmed,
			To:                  domain.StatusNoShow,
			At:                  start,
			RequireNotCheckedIn: true,
		}
		mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4 AND checked_in_at IS NULL")).
			WithArgs("no_show", start, int64(11), "confirmed").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM bookings WHERE id = $1")).
			WithArgs(int64(11)).
			WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

		err := repo.UpdateStatus(context.Background(), noShow)
		assert.ErrorIs(t, err, ErrStatusMismatch)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cancel sets audit fields", func(t *testing.T) {
		repo, mock := newMock(t)
		actor := int64(5)
		reason := "sick"
		cancel := domain.StatusChange{
			BookingID:   11,
			From:        domain.StatusConfirmed,
			To:          domain.StatusCancelled,
			At:          start,
			ActorID:     &actor,
			Reason:      &reason,
			CancelledAt: &start,
		}
		mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET status = $1, updated_at = $2, cancelled_by = $3, cancelled_reason = $4, cancelled_at = $5 WHERE id = $6 AND status = $7")).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.UpdateStatus(context.Background(), cancel))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_ListByFilter(t *testing.T) {
	salonID := int64(1)
	from := start
	to := start.AddDate(0, 0, 1)

	tests := []struct {
		name   string
		filter domain.BookingFilter
		query  string
	}{
		{
			name:   "active only by default",
			filter: domain.BookingFilter{SalonID: &salonID},
			query:  "FROM bookings WHERE salon_id = $1 AND status NOT IN ($2,$3) ORDER BY start_time ASC, id ASC",
		},
		{
			name:   "period and inactive",
			filter: domain.BookingFilter{SalonID: &salonID, From: &from, To: &to, IncludeInactive: true, Limit: 10},
			query:  "FROM bookings WHERE salon_id = $1 AND start_time >= $2 AND start_time < $3 ORDER BY start_time ASC, id ASC LIMIT 10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMock(t)
			mock.ExpectQuery(regexp.QuoteMeta(tt.query)).
				WillReturnRows(addBookingRow(addBookingRow(bookingRows(), 1, domain.StatusPending), 2, domain.StatusConfirmed))

			bookings, err := repo.ListByFilter(context.Background(), tt.filter)
			require.NoError(t, err)
			assert.Len(t, bookings, 2)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_ListNoShowCandidates(t *testing.T) {
	t.Run("first page", func(t *testing.T) {
		repo, mock := newMock(t)

		mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE status = $1 AND checked_in_at IS NULL AND start_time <= $2 ORDER BY start_time ASC, id ASC LIMIT 100")).
			WithArgs("confirmed", start).
			WillReturnRows(addBookingRow(bookingRows(), 11, domain.StatusConfirmed))

		bookings, err := repo.ListNoShowCandidates(context.Background(), start, nil, 100)
		require.NoError(t, err)
		require.Len(t, bookings, 1)
		assert.Equal(t, int64(11), bookings[0].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("next page after cursor", func(t *testing.T) {
		repo, mock := newMock(t)
		cursor := &domain.BookingCursor{StartTime: start.Add(-time.Hour), ID: 10}

		mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE status = $1 AND checked_in_at IS NULL AND start_time <= $2 AND (start_time, id) > ($3, $4) ORDER BY start_time ASC, id ASC LIMIT 100")).
			WithArgs("confirmed", start, cursor.StartTime, int64(10)).
			WillReturnRows(bookingRows())

		bookings, err := repo.ListNoShowCandidates(context.Background(), start, cursor, 100)
		require.NoError(t, err)
		assert.Empty(t, bookings)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
