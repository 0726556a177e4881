package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
)

// Store хранилище в памяти процесса
// Используется драйвером storage.driver = "memory" и в тестах сервисов.
//
// Данные защищены RWMutex: чтение никогда не ждет блокировок календаря мастера.
// Календарные блокировки (LockStaff) живут отдельно и удерживаются до конца транзакции.
type Store struct {
	mu            sync.RWMutex
	bookings      map[int64]*domain.Booking
	nextBookingID int64
	transactions  map[uuid.UUID]*domain.Transaction
	policies      map[int64]*domain.BookingPolicy
	nextPolicyID  int64

	locksMu    sync.Mutex
	staffLocks map[int64]*sync.Mutex
}

// NewStore создает пустое хранилище
func NewStore() *Store {
	return &Store{
		bookings:     make(map[int64]*domain.Booking),
		transactions: make(map[uuid.UUID]*domain.Transaction),
		policies:     make(map[int64]*domain.BookingPolicy),
		staffLocks:   make(map[int64]*sync.Mutex),
	}
}

func (s *Store) staffLock(staffID int64) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	l, ok := s.staffLocks[staffID]
	if !ok {
		l = &sync.Mutex{}
		s.staffLocks[staffID] = l
	}
	return l
}

// record регистрирует функцию отката для текущей транзакции
// Вызывается под s.mu, откат выполняется тоже под s.mu
func (s *Store) record(ctx context.Context, undo func()) {
	if tx, ok := txFromContext(ctx); ok {
		tx.undo = append(tx.undo, undo)
	}
}
