package transaction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
	"github.com/nguessop/nguessbeauty-sub001/pkg/dbmetrics"
	"github.com/nguessop/nguessbeauty-sub001/pkg/psqlbuilder"
)

// DBExecutor переиспользуем интерфейс из dbmetrics
type DBExecutor = dbmetrics.DBExecutor

// Уникальные индексы таблицы transactions
const (
	constraintIdempotencyKey = "transactions_idempotency_key_key"
	constraintLivePerBooking = "transactions_one_live_per_booking"
	pgUniqueViolation        = "23505"
)

var transactionColumns = []string{
	"t.id",
	"t.booking_id",
	"t.amount",
	"t.commission_rate",
	"t.policy_version",
	"t.commission_amount",
	"t.payout_amount",
	"t.refunded_amount",
	"t.commission_reversed",
	"t.method",
	"t.status",
	"t.idempotency_key",
	"t.failure_reason",
	"t.occurred_at",
	"t.settled_at",
	"t.updated_at",
}

// Repository репозиторий платежных транзакций
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория транзакций
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create сохраняет новую транзакцию
// Ставка комиссии и версия политики записываются один раз и больше не меняются
func (r *Repository) Create(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("transactions").
		Columns(
			"id",
			"booking_id",
			"amount",
			"commission_rate",
			"policy_version",
			"commission_amount",
			"payout_amount",
			"refunded_amount",
			"commission_reversed",
			"method",
			"status",
			"idempotency_key",
			"failure_reason",
			"occurred_at",
			"settled_at",
			"updated_at",
		).
		Values(
			tx.ID,
			tx.BookingID,
			tx.Amount,
			tx.CommissionRate,
			tx.PolicyVersion,
			tx.CommissionAmount,
			tx.PayoutAmount,
			tx.RefundedAmount,
			tx.CommissionReversed,
			tx.Method,
			tx.Status,
			tx.IdempotencyKey,
			tx.FailureReason,
			tx.OccurredAt,
			tx.SettledAt,
			tx.UpdatedAt,
		).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
			switch pqErr.Constraint {
			case constraintIdempotencyKey:
				return nil, ErrDuplicateIdempotencyKey
			case constraintLivePerBooking:
				return nil, ErrLiveTransactionExists
			}
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}

	return tx, nil
}

// GetByID получает транзакцию по ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	return r.getOne(ctx, "GetByID", squirrel.Eq{"t.id": id}, false)
}

// GetByIDForUpdate получает транзакцию и блокирует строку (внутри транзакции БД)
func (r *Repository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	return r.getOne(ctx, "GetByIDForUpdate", squirrel.Eq{"t.id": id}, dbmetrics.IsInTransaction(ctx))
}

// GetByIdempotencyKey получает транзакцию по ключу идемпотентности
func (r *Repository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error) {
	return r.getOne(ctx, "GetByIdempotencyKey", squirrel.Eq{"t.idempotency_key": key}, false)
}

// GetLiveByBooking получает действующую (не failed) транзакцию бронирования
// Внутри транзакции БД строка блокируется
func (r *Repository) GetLiveByBooking(ctx context.Context, bookingID int64) (*domain.Transaction, error) {
	where := squirrel.And{
		squirrel.Eq{"t.booking_id": bookingID},
		squirrel.NotEq{"t.status": domain.TransactionFailed},
	}
	return r.getOne(ctx, "GetLiveByBooking", where, dbmetrics.IsInTransaction(ctx))
}

func (r *Repository) getOne(ctx context.Context, method string, where squirrel.Sqlizer, forUpdate bool) (*domain.Transaction, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(transactionColumns...).
		From("transactions t").
		Where(where).
		OrderBy("t.occurred_at DESC").
		Limit(1)

	if forUpdate {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, method, err)
	}

	tx, err := scanTransaction(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s - scan transaction: %w", ErrScanRow, method, err)
	}

	return tx, nil
}

// Update сохраняет изменяемые поля транзакции (статус, возвраты, время расчета)
// Сумма, ставка и рассчитанная при создании комиссия не обновляются никогда
func (r *Repository) Update(ctx context.Context, tx *domain.Transaction) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("transactions").
		Set("status", tx.Status).
		Set("refunded_amount", tx.RefundedAmount).
		Set("commission_reversed", tx.CommissionReversed).
		Set("failure_reason", tx.FailureReason).
		Set("settled_at", tx.SettledAt).
		Set("updated_at", tx.UpdatedAt).
		Where(squirrel.Eq{"id": tx.ID}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Update - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Update - execute update: %w", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Update - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrTransactionNotFound
	}

	return nil
}

// ListForReport получает транзакции для аналитики
// Фильтр по салону/мастеру/услуге применяется к бронированию, период - к settled_at
func (r *Repository) ListForReport(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(transactionColumns...).
		From("transactions t").
		Join("bookings b ON b.id = t.booking_id")

	if filter.SalonID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"b.salon_id": *filter.SalonID})
	}
	if filter.StaffID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"b.staff_id": *filter.StaffID})
	}
	if filter.ServiceID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"b.service_id": *filter.ServiceID})
	}
	if filter.From != nil {
		selectBuilder = selectBuilder.Where(squirrel.GtOrEq{"t.settled_at": *filter.From})
	}
	if filter.To != nil {
		selectBuilder = selectBuilder.Where(squirrel.Lt{"t.settled_at": *filter.To})
	}

	query, args, err := selectBuilder.OrderBy("t.settled_at ASC", "t.id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListForReport - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListForReport - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	transactions := make([]*domain.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: ListForReport - scan row: %w", ErrScanRow, err)
		}
		transactions = append(transactions, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListForReport - rows error: %w", ErrScanRow, err)
	}

	return transactions, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var tx domain.Transaction

	err := row.Scan(
		&tx.ID,
		&tx.BookingID,
		&tx.Amount,
		&tx.CommissionRate,
		&tx.PolicyVersion,
		&tx.CommissionAmount,
		&tx.PayoutAmount,
		&tx.RefundedAmount,
		&tx.CommissionReversed,
		&tx.Method,
		&tx.Status,
		&tx.IdempotencyKey,
		&tx.FailureReason,
		&tx.OccurredAt,
		&tx.SettledAt,
		&tx.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &tx, nil
}
