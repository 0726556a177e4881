package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
	transactionRepo "github.com/nguessop/nguessbeauty-sub001/internal/infra/storage/transaction"
)

// TransactionRepository реализация репозитория платежных транзакций в памяти
type TransactionRepository struct {
	store *Store
}

// NewTransactionRepository создает репозиторий транзакций поверх store
func NewTransactionRepository(store *Store) *TransactionRepository {
	return &TransactionRepository{store: store}
}

// Create сохраняет транзакцию, соблюдая те же уникальные ограничения, что и postgres
func (r *TransactionRepository) Create(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.transactions {
		if existing.IdempotencyKey == tx.IdempotencyKey {
			return nil, transactionRepo.ErrDuplicateIdempotencyKey
		}
		if existing.BookingID == tx.BookingID && existing.Status.IsLive() && tx.Status.IsLive() {
			return nil, transactionRepo.ErrLiveTransactionExists
		}
	}

	stored := tx.Clone()
	s.transactions[stored.ID] = stored

	id := stored.ID
	s.record(ctx, func() { delete(s.transactions, id) })

	return tx, nil
}

// GetByID получает транзакцию по ID
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.transactions[id]
	if !ok {
		return nil, transactionRepo.ErrTransactionNotFound
	}
	return tx.Clone(), nil
}

// GetByIDForUpdate в памяти эквивалентен GetByID
func (r *TransactionRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	return r.GetByID(ctx, id)
}

// GetByIdempotencyKey получает транзакцию по ключу идемпотентности
func (r *TransactionRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, tx := range s.transactions {
		if tx.IdempotencyKey == key {
			return tx.Clone(), nil
		}
	}
	return nil, transactionRepo.ErrTransactionNotFound
}

// GetLiveByBooking получает действующую (не failed) транзакцию бронирования
func (r *TransactionRepository) GetLiveByBooking(ctx context.Context, bookingID int64) (*domain.Transaction, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, tx := range s.transactions {
		if tx.BookingID == bookingID && tx.Status.IsLive() {
			return tx.Clone(), nil
		}
	}
	return nil, transactionRepo.ErrTransactionNotFound
}

// Update сохраняет изменяемые поля транзакции
func (r *TransactionRepository) Update(ctx context.Context, tx *domain.Transaction) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.transactions[tx.ID]
	if !ok {
		return transactionRepo.ErrTransactionNotFound
	}

	prev := existing.Clone()
	s.record(ctx, func() { s.transactions[prev.ID] = prev })

	updated := existing.Clone()
	updated.Status = tx.Status
	updated.RefundedAmount = tx.RefundedAmount
	updated.CommissionReversed = tx.CommissionReversed
	updated.FailureReason = tx.FailureReason
	updated.SettledAt = tx.SettledAt
	updated.UpdatedAt = tx.UpdatedAt
	s.transactions[tx.ID] = updated.Clone()

	return nil
}

// ListForReport получает транзакции для аналитики
func (r *TransactionRepository) ListForReport(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Transaction, 0)
	for _, tx := range s.transactions {
		if filter.Matches(tx, s.bookings[tx.BookingID]) {
			result = append(result, tx.Clone())
		}
	}

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.SettledAt != nil && b.SettledAt != nil && !a.SettledAt.Equal(*b.SettledAt) {
			return a.SettledAt.Before(*b.SettledAt)
		}
		return a.ID.String() < b.ID.String()
	})
	return result, nil
}
