package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
	"github.com/nguessop/nguessbeauty-sub001/pkg/dbmetrics"
	"github.com/nguessop/nguessbeauty-sub001/pkg/psqlbuilder"
)

var bookingColumns = []string{
	"id",
	"salon_id",
	"staff_id",
	"service_id",
	"service_version",
	"client_id",
	"start_time",
	"end_time",
	"duration_minutes",
	"price",
	"status",
	"payment_status",
	"created_by",
	"cancelled_by",
	"cancelled_reason",
	"cancelled_at",
	"checked_in_at",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с бронированиями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новое бронирование
// Если в контексте передана активная транзакция (через context.Value), использует её.
//
// Пересечение с активным бронированием того же мастера отсекается exclusion constraint
// bookings_no_overlap, поэтому даже запись в обход блокировки не нарушит инвариант:
// нарушение ограничения (23P01) возвращается как ErrSlotNotAvailable.
func (r *Repository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("bookings").
		Columns(
			"salon_id",
			"staff_id",
			"service_id",
			"service_version",
			"client_id",
			"start_time",
			"end_time",
			"duration_minutes",
			"price",
			"status",
			"payment_status",
			"created_by",
			"created_at",
			"updated_at",
		).
		Values(
			booking.SalonID,
			booking.StaffID,
			booking.ServiceID,
			booking.ServiceVersion,
			booking.ClientID,
			booking.StartTime,
			booking.EndTime,
			booking.DurationMinutes,
			booking.Price,
			booking.Status,
			booking.PaymentStatus,
			booking.CreatedBy,
			booking.CreatedAt,
			booking.UpdatedAt,
		).
		Suffix("RETURNING id").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(&booking.ID)
	if err != nil {
		if isPgError(err, pgExclusionViolation) {
			return nil, fmt.Errorf("%w: Create - staff_id=%d overlaps an active booking", ErrSlotNotAvailable, booking.StaffID)
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}

	return booking, nil
}

// GetByID получает бронирование по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	return r.getByID(ctx, id, false)
}

// GetByIDForUpdate получает бронирование по ID и блокирует строку до конца транзакции
// Вне транзакции ведет себя как GetByID
func (r *Repository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	return r.getByID(ctx, id, dbmetrics.IsInTransaction(ctx))
}

func (r *Repository) getByID(ctx context.Context, id int64, forUpdate bool) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"id": id})

	if forUpdate {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	booking, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan booking: %w", ErrScanRow, err)
	}

	return booking, nil
}

// LockStaff берет транзакционную advisory-блокировку календаря мастера
// Блокировка снимается автоматически при commit/rollback.
// Все операции, создающие бронирования мастера, сериализуются на этой блокировке.
func (r *Repository) LockStaff(ctx context.Context, staffID int64) error {
	tx, ok := dbmetrics.TxFromContext(ctx)
	if !ok {
		return fmt.Errorf("%w: LockStaff - must be called inside a transaction", ErrTransaction)
	}

	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", staffID); err != nil {
		return fmt.Errorf("%w: LockStaff - staff_id=%d: %w", ErrExecQuery, staffID, err)
	}

	return nil
}

// FindOverlapping возвращает активные бронирования мастера, пересекающиеся с [start, end)
// Внутри транзакции найденные строки блокируются (FOR UPDATE)
func (r *Repository) FindOverlapping(ctx context.Context, staffID int64, start, end time.Time) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"staff_id": staffID}).
		Where(squirrel.Eq{"status": statusStrings(domain.ActiveStatuses)}).
		Where(squirrel.Lt{"start_time": end}).
		Where(squirrel.Gt{"end_time": start}).
		OrderBy("start_time ASC")

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: FindOverlapping - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: FindOverlapping - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// ListByFilter получает бронирования с гибкой фильтрацией
// Поддерживает фильтрацию по:
// - Салону, мастеру, услуге, клиенту - опционально
// - Периоду [From, To) по времени начала - опционально
// - Статусу (Status) - опционально
// - Включению неактивных бронирований (IncludeInactive)
//
// Примеры использования:
//
// 1. Все активные бронирования салона:
//    filter := domain.BookingFilter{SalonID: ptr.Ptr(int64(123))}
//
// 2. Бронирования мастера на день:
//    from := time.Date(2026, 3, 2, 0, 0, 0, 0, loc)
//    to := from.AddDate(0, 0, 1)
//    filter := domain.BookingFilter{StaffID: ptr.Ptr(int64(7)), From: &from, To: &to}
//
// 3. Все бронирования включая отменённые:
//    filter := domain.BookingFilter{SalonID: ptr.Ptr(int64(123)), IncludeInactive: true}
func (r *Repository) ListByFilter(ctx context.Context, filter domain.BookingFilter) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := applyFilter(psqlbuilder.Select(bookingColumns...).From("bookings"), filter).
		OrderBy("start_time ASC", "id ASC")

	if filter.Limit > 0 {
		selectBuilder = selectBuilder.Limit(uint64(filter.Limit))
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByFilter - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByFilter - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// ListNoShowCandidates возвращает подтвержденные бронирования без check-in,
// начавшиеся не позже startedBefore. Окно ожидания (grace) проверяет сервис по политике салона.
// after продолжает выборку после последней строки предыдущей страницы.
func (r *Repository) ListNoShowCandidates(ctx context.Context, startedBefore time.Time, after *domain.BookingCursor, limit int) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"status": domain.StatusConfirmed}).
		Where(squirrel.Eq{"checked_in_at": nil}).
		Where(squirrel.LtOrEq{"start_time": startedBefore}).
		OrderBy("start_time ASC", "id ASC")

	if after != nil {
		selectBuilder = selectBuilder.Where("(start_time, id) > (?, ?)", after.StartTime, after.ID)
	}

	if limit > 0 {
		selectBuilder = selectBuilder.Limit(uint64(limit))
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListNoShowCandidates - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListNoShowCandidates - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// UpdateStatus выполняет compare-and-swap перехода статуса
// UPDATE ... WHERE id = $1 AND status = $2 [AND checked_in_at IS NULL]
// Если ни одна строка не обновлена, различает отсутствие бронирования и конкурентное изменение статуса.
func (r *Repository) UpdateStatus(ctx context.Context, change domain.StatusChange) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	updateBuilder := psqlbuilder.Update("bookings").
		Set("status", change.To).
		Set("updated_at", change.At).
		Where(squirrel.Eq{"id": change.BookingID}).
		Where(squirrel.Eq{"status": change.From})

	if change.RequireNotCheckedIn {
		updateBuilder = updateBuilder.Where(squirrel.Eq{"checked_in_at": nil})
	}

	if change.To == domain.StatusCancelled {
		updateBuilder = updateBuilder.
			Set("cancelled_by", change.ActorID).
			Set("cancelled_reason", change.Reason).
			Set("cancelled_at", change.CancelledAt)
	}

	query, args, err := updateBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - execute update: %w", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return r.explainMiss(ctx, change.BookingID, "UpdateStatus")
	}

	return nil
}

// SetCheckIn отмечает приход клиента на подтвержденное бронирование
// Повторный check-in не перезаписывает исходное время
func (r *Repository) SetCheckIn(ctx context.Context, id int64, at time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("checked_in_at", at).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"status": domain.StatusConfirmed}).
		Where(squirrel.Eq{"checked_in_at": nil}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: SetCheckIn - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: SetCheckIn - execute update: %w", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: SetCheckIn - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return r.explainMiss(ctx, id, "SetCheckIn")
	}

	return nil
}

// UpdatePaymentStatus обновляет зеркальный статус оплаты бронирования
func (r *Repository) UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus, at time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("payment_status", status).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: UpdatePaymentStatus - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdatePaymentStatus - execute update: %w", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdatePaymentStatus - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrBookingNotFound
	}

	return nil
}

// explainMiss определяет причину, по которой условный UPDATE не затронул строк
func (r *Repository) explainMiss(ctx context.Context, id int64, method string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("1").
		From("bookings").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %s - build exists query: %v", ErrBuildQuery, method, err)
	}

	var one int
	err = executor.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrBookingNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: %s - check booking exists: %w", ErrExecQuery, method, err)
	}

	return ErrStatusMismatch
}

// applyFilter добавляет условия domain.BookingFilter к запросу
func applyFilter(b squirrel.SelectBuilder, filter domain.BookingFilter) squirrel.SelectBuilder {
	if filter.SalonID != nil {
		b = b.Where(squirrel.Eq{"salon_id": *filter.SalonID})
	}
	if filter.StaffID != nil {
		b = b.Where(squirrel.Eq{"staff_id": *filter.StaffID})
	}
	if filter.ServiceID != nil {
		b = b.Where(squirrel.Eq{"service_id": *filter.ServiceID})
	}
	if filter.ClientID != nil {
		b = b.Where(squirrel.Eq{"client_id": *filter.ClientID})
	}

	// Фильтрация по периоду [From, To)
	if filter.From != nil {
		b = b.Where(squirrel.GtOrEq{"start_time": *filter.From})
	}
	if filter.To != nil {
		b = b.Where(squirrel.Lt{"start_time": *filter.To})
	}

	// Фильтрация по статусу
	if filter.Status != nil {
		b = b.Where(squirrel.Eq{"status": *filter.Status})
	} else if !filter.IncludeInactive {
		// Если не указан конкретный статус и не нужны неактивные - исключаем их
		b = b.Where(squirrel.NotEq{"status": statusStrings(domain.InactiveStatuses)})
	}

	return b
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var booking domain.Booking

	err := row.Scan(
		&booking.ID,
		&booking.SalonID,
		&booking.StaffID,
		&booking.ServiceID,
		&booking.ServiceVersion,
		&booking.ClientID,
		&booking.StartTime,
		&booking.EndTime,
		&booking.DurationMinutes,
		&booking.Price,
		&booking.Status,
		&booking.PaymentStatus,
		&booking.CreatedBy,
		&booking.CancelledBy,
		&booking.CancelledReason,
		&booking.CancelledAt,
		&booking.CheckedInAt,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	booking.StartTime = booking.StartTime.UTC()
	booking.EndTime = booking.EndTime.UTC()

	return &booking, nil
}

// scanBookings сканирует результаты запроса в слайс бронирований
func scanBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	bookings := make([]*domain.Booking, 0)

	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanBookings - scan row: %w", ErrScanRow, err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanBookings - rows error: %w", ErrScanRow, err)
	}

	return bookings, nil
}

func statusStrings(statuses []domain.BookingStatus) []string {
	result := make([]string, len(statuses))
	for i, s := range statuses {
		result[i] = string(s)
	}
	return result
}

func isPgError(err error, code string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == code
}
