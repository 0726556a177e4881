package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nguessop/nguessbeauty-sub001/internal/config"
	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
	bookingRepo "github.com/nguessop/nguessbeauty-sub001/internal/infra/storage/booking"
	"github.com/nguessop/nguessbeauty-sub001/internal/infra/storage/memory"
	policyRepo "github.com/nguessop/nguessbeauty-sub001/internal/infra/storage/policy"
	transactionRepo "github.com/nguessop/nguessbeauty-sub001/internal/infra/storage/transaction"
	"github.com/nguessop/nguessbeauty-sub001/pkg/dbmetrics"
	"github.com/nguessop/nguessbeauty-sub001/pkg/logger"
	"github.com/nguessop/nguessbeauty-sub001/pkg/metrics"
	"github.com/nguessop/nguessbeauty-sub001/pkg/txmanager"
)

// Общий набор методов postgres и memory реализаций

type bookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error)
	LockStaff(ctx context.Context, staffID int64) error
	FindOverlapping(ctx context.Context, staffID int64, start, end time.Time) ([]*domain.Booking, error)
	ListByFilter(ctx context.Context, filter domain.BookingFilter) ([]*domain.Booking, error)
	ListNoShowCandidates(ctx context.Context, startedBefore time.Time, after *domain.BookingCursor, limit int) ([]*domain.Booking, error)
	UpdateStatus(ctx context.Context, change domain.StatusChange) error
	SetCheckIn(ctx context.Context, id int64, at time.Time) error
	UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus, at time.Time) error
}

type transactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error)
	GetLiveByBooking(ctx context.Context, bookingID int64) (*domain.Transaction, error)
	Update(ctx context.Context, tx *domain.Transaction) error
	ListForReport(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error)
}

type policyRepository interface {
	Create(ctx context.Context, policy *domain.BookingPolicy) (*domain.BookingPolicy, error)
	GetByID(ctx context.Context, id int64) (*domain.BookingPolicy, error)
	GetBySalonAndService(ctx context.Context, salonID int64, serviceID *int64) (*domain.BookingPolicy, error)
	GetPolicyWithHierarchy(ctx context.Context, salonID int64, serviceID *int64) (*domain.BookingPolicy, error)
	GetAllBySalon(ctx context.Context, salonID int64) ([]*domain.BookingPolicy, error)
	Update(ctx context.Context, policy *domain.BookingPolicy) (*domain.BookingPolicy, error)
	DeleteBySalonAndService(ctx context.Context, salonID int64, serviceID *int64) error
}

type txManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

type storage struct {
	bookings     bookingRepository
	transactions transactionRepository
	policies     policyRepository
	txManager    txManager
	close        func()
}

// openStorage поднимает хранилище по storage.driver
func openStorage(cfg *config.Config, m *metrics.Metrics, log *logger.Logger) (*storage, error) {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		log.Warn("Using in-memory storage: data is lost on restart")
		store := memory.NewStore()
		return &storage{
			bookings:     memory.NewBookingRepository(store),
			transactions: memory.NewTransactionRepository(store),
			policies:     memory.NewPolicyRepository(store),
			txManager:    memory.NewTransactionManager(store),
			close:        func() {},
		}, nil
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Сбор статистики пула останавливается при закрытии хранилища
	stopStatsCh := make(chan struct{})
	var wrappedDB *dbmetrics.DB
	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, m, stopStatsCh)
		log.Info("Database metrics collection started")
	} else {
		wrappedDB = dbmetrics.Wrap(db, nil)
	}

	return &storage{
		bookings:     bookingRepo.NewRepository(wrappedDB),
		transactions: transactionRepo.NewRepository(wrappedDB),
		policies:     policyRepo.NewRepository(wrappedDB),
		txManager:    txmanager.NewTransactionManager(wrappedDB),
		close: func() {
			close(stopStatsCh)
			db.Close()
		},
	}, nil
}
