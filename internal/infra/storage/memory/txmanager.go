package memory

import (
	"context"
	"errors"
	"sync"
)

// ErrNoTransaction возвращается, когда блокировка запрошена вне транзакции
var ErrNoTransaction = errors.New("memory: operation requires a transaction")

type txKey struct{}

type memTx struct {
	locks  []*sync.Mutex
	locked map[int64]bool
	undo   []func()
}

func txFromContext(ctx context.Context) (*memTx, bool) {
	tx, ok := ctx.Value(txKey{}).(*memTx)
	return tx, ok && tx != nil
}

// TransactionManager аналог txmanager.TransactionManager для хранилища в памяти
// Откат выполняется по журналу undo, блокировки мастеров снимаются при завершении
type TransactionManager struct {
	store *Store
}

// NewTransactionManager создает менеджер транзакций поверх store
func NewTransactionManager(store *Store) *TransactionManager {
	return &TransactionManager{store: store}
}

func (m *TransactionManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

// DoSerializable в памяти эквивалентен Do: сериализацию обеспечивают LockStaff и s.mu
func (m *TransactionManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

func (m *TransactionManager) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

func (m *TransactionManager) run(ctx context.Context, fn func(ctx context.Context) error) error {
	// Вложенный вызов переиспользует внешнюю транзакцию
	if _, ok := txFromContext(ctx); ok {
		return fn(ctx)
	}

	tx := &memTx{locked: make(map[int64]bool)}
	defer tx.release()

	defer func() {
		if p := recover(); p != nil {
			m.rollback(tx)
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		m.rollback(tx)
		return err
	}

	return nil
}

func (m *TransactionManager) rollback(tx *memTx) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.undo = nil
}

func (tx *memTx) release() {
	for i := len(tx.locks) - 1; i >= 0; i-- {
		tx.locks[i].Unlock()
	}
	tx.locks = nil
}

// lockStaff берет блокировку календаря мастера на время транзакции (повторный вызов не блокирует)
func (s *Store) lockStaff(ctx context.Context, staffID int64) error {
	tx, ok := txFromContext(ctx)
	if !ok {
		return ErrNoTransaction
	}
	if tx.locked[staffID] {
		return nil
	}

	l := s.staffLock(staffID)

	done := make(chan struct{})
	go func() {
		l.Lock()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		// блокировка все равно будет получена горутиной, отдаем её сразу
		go func() {
			<-done
			l.Unlock()
		}()
		return ctx.Err()
	}

	tx.locks = append(tx.locks, l)
	tx.locked[staffID] = true
	return nil
}
