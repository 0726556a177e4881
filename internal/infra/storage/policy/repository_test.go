package policy

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
)

var updatedAt = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newMock(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(db), mock
}

func policyRows() *sqlmock.Rows {
	return sqlmock.NewRows(policyColumns)
}

func addPolicyRow(rows *sqlmock.Rows, id int64, serviceID interface{}, granularity int) *sqlmock.Rows {
	return rows.AddRow(id, int64(1), serviceID, granularity, 15, 0, 0, 0, "0.10", 2, updatedAt, updatedAt)
}

func TestRepository_Create_Duplicate(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO booking_policies")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "booking_policies_salon_id_service_id_key"})

	_, err := repo.Create(context.Background(), &domain.BookingPolicy{
		SalonID:                1,
		SlotGranularityMinutes: 30,
		CommissionRate:         decimal.RequireFromString("0.10"),
	})
	assert.ErrorIs(t, err, ErrDuplicatePolicy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetPolicyWithHierarchy(t *testing.T) {
	serviceID := int64(42)

	t.Run("service level wins", func(t *testing.T) {
		repo, mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM booking_policies WHERE salon_id = $1 AND service_id = $2")).
			WithArgs(int64(1), serviceID).
			WillReturnRows(addPolicyRow(policyRows(), 2, serviceID, 60))

		p, err := repo.GetPolicyWithHierarchy(context.Background(), 1, &serviceID)
		require.NoError(t, err)
		assert.Equal(t, 60, p.SlotGranularityMinutes)
		require.NotNil(t, p.ServiceID)
		assert.Equal(t, serviceID, *p.ServiceID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("falls back to salon", func(t *testing.T) {
		repo, mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM booking_policies WHERE salon_id = $1 AND service_id = $2")).
			WillReturnRows(policyRows())
		mock.ExpectQuery(regexp.QuoteMeta("FROM booking_policies WHERE salon_id = $1 AND service_id IS NULL")).
			WithArgs(int64(1)).
			WillReturnRows(addPolicyRow(policyRows(), 1, nil, 30))

		p, err := repo.GetPolicyWithHierarchy(context.Background(), 1, &serviceID)
		require.NoError(t, err)
		assert.Equal(t, 30, p.SlotGranularityMinutes)
		assert.Nil(t, p.ServiceID)
		assert.True(t, p.CommissionRate.Equal(decimal.RequireFromString("0.1")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nothing configured", func(t *testing.T) {
		repo, mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("service_id IS NULL")).
			WillReturnRows(policyRows())

		_, err := repo.GetPolicyWithHierarchy(context.Background(), 1, nil)
		assert.ErrorIs(t, err, ErrPolicyNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_Update_VersionConflict(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE booking_policies SET")).
		WillReturnRows(sqlmock.NewRows([]string{"version", "created_at", "updated_at"}))
	mock.ExpectQuery(regexp.QuoteMeta("FROM booking_policies WHERE id = $1")).
		WithArgs(int64(1)).
		WillReturnRows(addPolicyRow(policyRows(), 1, nil, 30))

	_, err := repo.Update(context.Background(), &domain.BookingPolicy{
		ID:                     1,
		SalonID:                1,
		SlotGranularityMinutes: 45,
		CommissionRate:         decimal.RequireFromString("0.10"),
		Version:                1,
	})
	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Update(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("version = version + 1, updated_at = NOW() WHERE id = $7 AND version = $8 RETURNING version, created_at, updated_at")).
		WillReturnRows(sqlmock.NewRows([]string{"version", "created_at", "updated_at"}).AddRow(3, updatedAt, updatedAt))

	p, err := repo.Update(context.Background(), &domain.BookingPolicy{
		ID:                     1,
		SalonID:                1,
		SlotGranularityMinutes: 45,
		CommissionRate:         decimal.RequireFromString("0.10"),
		Version:                2,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, p.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_DeleteBySalonAndService_NotFound(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM booking_policies WHERE salon_id = $1 AND service_id IS NULL")).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteBySalonAndService(context.Background(), 1, nil)
	assert.ErrorIs(t, err, ErrPolicyNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
