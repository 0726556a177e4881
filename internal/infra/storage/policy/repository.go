package policy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
	"github.com/nguessop/nguessbeauty-sub001/pkg/dbmetrics"
	"github.com/nguessop/nguessbeauty-sub001/pkg/psqlbuilder"
)

// DBExecutor переиспользуем интерфейс из dbmetrics
type DBExecutor = dbmetrics.DBExecutor

const pgUniqueViolation = "23505"

var policyColumns = []string{
	"id",
	"salon_id",
	"service_id",
	"slot_granularity_minutes",
	"no_show_grace_minutes",
	"buffer_minutes",
	"min_booking_notice_minutes",
	"advance_booking_days",
	"commission_rate",
	"version",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с политиками бронирования салонов
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория политик
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новую политику (версия 1)
// Если в контексте передана активная транзакция, использует её
func (r *Repository) Create(ctx context.Context, policy *domain.BookingPolicy) (*domain.BookingPolicy, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("booking_policies").
		Columns(
			"salon_id",
			"service_id",
			"slot_granularity_minutes",
			"no_show_grace_minutes",
			"buffer_minutes",
			"min_booking_notice_minutes",
			"advance_booking_days",
			"commission_rate",
			"version",
		).
		Values(
			policy.SalonID,
			policy.ServiceID,
			policy.SlotGranularityMinutes,
			policy.NoShowGraceMinutes,
			policy.BufferMinutes,
			policy.MinBookingNoticeMinutes,
			policy.AdvanceBookingDays,
			policy.CommissionRate,
			1,
		).
		Suffix("RETURNING id, version, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&policy.ID,
		&policy.Version,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
			return nil, ErrDuplicatePolicy
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}

	policy.CreatedAt = createdAt.Time
	policy.UpdatedAt = updatedAt.Time

	return policy, nil
}

// GetByID получает политику по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.BookingPolicy, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(policyColumns...).
		From("booking_policies").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	policy, err := scanPolicy(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPolicyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan policy: %w", ErrScanRow, err)
	}

	return policy, nil
}

// GetBySalonAndService получает политику ровно для указанного уровня иерархии:
// 1. Если serviceID задан - политику конкретной услуги салона
// 2. Если serviceID nil - общую политику салона
func (r *Repository) GetBySalonAndService(ctx context.Context, salonID int64, serviceID *int64) (*domain.BookingPolicy, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(policyColumns...).
		From("booking_policies").
		Where(squirrel.Eq{"salon_id": salonID})

	// Фильтрация по service_id (NULL или конкретное значение)
	if serviceID == nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"service_id": nil})
	} else {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"service_id": *serviceID})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetBySalonAndService - build select query: %v", ErrBuildQuery, err)
	}

	policy, err := scanPolicy(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPolicyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetBySalonAndService - scan policy: %w", ErrScanRow, err)
	}

	return policy, nil
}

// GetPolicyWithHierarchy получает политику с учетом иерархии приоритетов
// Приоритет применения политики:
// 1. Политика конкретной услуги салона (salonID, serviceID)
// 2. Общая политика салона (salonID, NULL)
//
// Если политика не найдена ни на одном уровне, возвращает ErrPolicyNotFound,
// и вызывающая сторона применяет встроенные значения по умолчанию
func (r *Repository) GetPolicyWithHierarchy(ctx context.Context, salonID int64, serviceID *int64) (*domain.BookingPolicy, error) {
	// 1. Пробуем получить политику конкретной услуги (если указана)
	if serviceID != nil {
		policy, err := r.GetBySalonAndService(ctx, salonID, serviceID)
		if err == nil {
			return policy, nil
		}
		if !errors.Is(err, ErrPolicyNotFound) {
			return nil, fmt.Errorf("%w: GetPolicyWithHierarchy - level 1 (service): %w", ErrExecQuery, err)
		}
	}

	// 2. Пробуем получить общую политику салона
	policy, err := r.GetBySalonAndService(ctx, salonID, nil)
	if err == nil {
		return policy, nil
	}
	if !errors.Is(err, ErrPolicyNotFound) {
		return nil, fmt.Errorf("%w: GetPolicyWithHierarchy - level 2 (salon): %w", ErrExecQuery, err)
	}

	return nil, ErrPolicyNotFound
}

// GetAllBySalon получает все политики салона (общую и для услуг)
func (r *Repository) GetAllBySalon(ctx context.Context, salonID int64) ([]*domain.BookingPolicy, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(policyColumns...).
		From("booking_policies").
		Where(squirrel.Eq{"salon_id": salonID}).
		OrderBy("service_id ASC NULLS FIRST"). // Общая политика салона первой
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetAllBySalon - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetAllBySalon - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	policies := make([]*domain.BookingPolicy, 0)
	for rows.Next() {
		policy, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: GetAllBySalon - scan row: %w", ErrScanRow, err)
		}
		policies = append(policies, policy)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetAllBySalon - rows error: %w", ErrScanRow, err)
	}

	return policies, nil
}

// Update обновляет политику и увеличивает её версию
// Используется optimistic locking: обновление проходит, только если версия в БД
// совпадает с policy.Version. Уже созданные транзакции хранят свою ставку и не затрагиваются.
func (r *Repository) Update(ctx context.Context, policy *domain.BookingPolicy) (*domain.BookingPolicy, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("booking_policies").
		Set("slot_granularity_minutes", policy.SlotGranularityMinutes).
		Set("no_show_grace_minutes", policy.NoShowGraceMinutes).
		Set("buffer_minutes", policy.BufferMinutes).
		Set("min_booking_notice_minutes", policy.MinBookingNoticeMinutes).
		Set("advance_booking_days", policy.AdvanceBookingDays).
		Set("commission_rate", policy.CommissionRate).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": policy.ID}).
		Where(squirrel.Eq{"version": policy.Version}).
		Suffix("RETURNING version, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Update - build update query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&policy.Version, &createdAt, &updatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := r.GetByID(ctx, policy.ID); errors.Is(getErr, ErrPolicyNotFound) {
			return nil, ErrPolicyNotFound
		}
		return nil, ErrVersionConflict
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Update - execute update: %w", ErrExecQuery, err)
	}

	policy.CreatedAt = createdAt.Time
	policy.UpdatedAt = updatedAt.Time

	return policy, nil
}

// DeleteBySalonAndService удаляет политику уровня (salonID, serviceID)
// После удаления начинает действовать следующий уровень иерархии
func (r *Repository) DeleteBySalonAndService(ctx context.Context, salonID int64, serviceID *int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	deleteBuilder := psqlbuilder.Delete("booking_policies").
		Where(squirrel.Eq{"salon_id": salonID})

	// Фильтрация по service_id (NULL или конкретное значение)
	if serviceID == nil {
		deleteBuilder = deleteBuilder.Where(squirrel.Eq{"service_id": nil})
	} else {
		deleteBuilder = deleteBuilder.Where(squirrel.Eq{"service_id": *serviceID})
	}

	query, args, err := deleteBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: DeleteBySalonAndService - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: DeleteBySalonAndService - execute delete: %w", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: DeleteBySalonAndService - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrPolicyNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPolicy(row rowScanner) (*domain.BookingPolicy, error) {
	var policy domain.BookingPolicy
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&policy.ID,
		&policy.SalonID,
		&policy.ServiceID,
		&policy.SlotGranularityMinutes,
		&policy.NoShowGraceMinutes,
		&policy.BufferMinutes,
		&policy.MinBookingNoticeMinutes,
		&policy.AdvanceBookingDays,
		&policy.CommissionRate,
		&policy.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	policy.CreatedAt = createdAt.Time
	policy.UpdatedAt = updatedAt.Time

	return &policy, nil
}
