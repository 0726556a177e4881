package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
	bookingRepo "github.com/nguessop/nguessbeauty-sub001/internal/infra/storage/booking"
	transactionRepo "github.com/nguessop/nguessbeauty-sub001/internal/infra/storage/transaction"
	"github.com/nguessop/nguessbeauty-sub001/internal/service/payments/models"
)

// Service сервис сверки платежей и комиссий
// Ставка комиссии фиксируется при создании транзакции и больше не пересчитывается
type Service struct {
	transactionRepo TransactionRepository
	bookingRepo     BookingRepository
	policies        PolicyProvider
	txManager       TransactionManager
	metrics         Metrics
	timeProvider    TimeProvider
	logger          Logger
}

// NewService создает новый экземпляр сервиса платежей
func NewService(
	transactionRepo TransactionRepository,
	bookingRepo BookingRepository,
	policies PolicyProvider,
	txManager TransactionManager,
	metrics Metrics,
	logger Logger,
) *Service {
	return &Service{
		transactionRepo: transactionRepo,
		bookingRepo:     bookingRepo,
		policies:        policies,
		txManager:       txManager,
		metrics:         metrics,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// WithTimeProvider подменяет источник времени
func (s *Service) WithTimeProvider(tp TimeProvider) *Service {
	s.timeProvider = tp
	return s
}

// GetByID получает транзакцию по ID
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.TransactionResponse, error) {
	t, err := s.transactionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, transactionRepo.ErrTransactionNotFound) {
			s.logger.Warn("GetByID: transaction id=%s not found", id)
			return nil, ErrTransactionNotFound
		}
		s.logger.Error("GetByID: repository error for transaction id=%s: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}
	return models.FromDomainTransaction(t), nil
}

// RecordPayment создает транзакцию в статусе pending с зафиксированной ставкой комиссии
// Повтор с тем же ключом идемпотентности возвращает исходную транзакцию
func (s *Service) RecordPayment(ctx context.Context, req *models.RecordPaymentRequest) (*models.TransactionResponse, error) {
	s.logger.Info("RecordPayment: booking id=%d, amount=%d, method=%s", req.BookingID, req.Amount, req.Method)

	// 1. Валидация входных данных
	method, err := domain.ParsePaymentMethod(req.Method)
	if err != nil {
		s.logger.Warn("RecordPayment: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if req.Amount <= 0 {
		s.logger.Warn("RecordPayment: non-positive amount %d", req.Amount)
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if len(req.IdempotencyKey) > models.MaxIdempotencyKeyLength {
		return nil, fmt.Errorf("%w: idempotency key is too long", ErrInvalidInput)
	}

	// 2. Повторный запрос с тем же ключом
	if req.IdempotencyKey != "" {
		replay, err := s.replay(ctx, req, method)
		if err != nil || replay != nil {
			return replay, err
		}
	}

	now := s.timeProvider.Now()
	var created *domain.Transaction

	// 3. Проверки и создание в одной транзакции
	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		booking, err := s.bookingRepo.GetByIDForUpdate(txCtx, req.BookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("%w: RecordPayment - get booking: %v", ErrInternal, err)
		}
		if !booking.IsActive() {
			return fmt.Errorf("%w: booking status is %s", ErrBookingNotPayable, booking.Status)
		}

		if _, err := s.transactionRepo.GetLiveByBooking(txCtx, booking.ID); err == nil {
			return ErrPaymentExists
		} else if !errors.Is(err, transactionRepo.ErrTransactionNotFound) {
			return fmt.Errorf("%w: RecordPayment - get live transaction: %v", ErrInternal, err)
		}

		serviceID := booking.ServiceID
		policy, err := s.policies.Effective(txCtx, booking.SalonID, &serviceID)
		if err != nil {
			return fmt.Errorf("%w: RecordPayment - get policy: %v", ErrInternal, err)
		}

		t, err := domain.NewTransaction(domain.NewTransactionParams{
			BookingID:      booking.ID,
			Amount:         req.Amount,
			Method:         method,
			Policy:         policy.Commission(),
			IdempotencyKey: req.IdempotencyKey,
			Now:            now,
		})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}

		created, err = s.transactionRepo.Create(txCtx, t)
		if err != nil {
			switch {
			case errors.Is(err, transactionRepo.ErrLiveTransactionExists):
				return ErrPaymentExists
			case errors.Is(err, transactionRepo.ErrDuplicateIdempotencyKey):
				return err
			}
			return fmt.Errorf("%w: RecordPayment - create transaction: %v", ErrInternal, err)
		}

		if err := s.bookingRepo.UpdatePaymentStatus(txCtx, booking.ID, domain.PaymentPending, now); err != nil {
			return fmt.Errorf("%w: RecordPayment - update booking payment status: %v", ErrInternal, err)
		}
		return nil
	})

	if err != nil {
		// Параллельный запрос с тем же ключом успел раньше
		if errors.Is(err, transactionRepo.ErrDuplicateIdempotencyKey) {
			return s.replay(ctx, req, method)
		}
		s.logFailure("RecordPayment", err)
		return nil, err
	}

	s.metrics.IncPayment(string(created.Status))
	s.logger.Info("RecordPayment: created transaction id=%s for booking id=%d (rate %s, policy version %d)",
		created.ID, created.BookingID, created.CommissionRate.String(), created.PolicyVersion)
	return models.FromDomainTransaction(created), nil
}

// replay возвращает транзакцию по ключу идемпотентности или nil, если ключ не использовался
// Ключ, использованный с другим бронированием, суммой или способом оплаты, считается конфликтом
func (s *Service) replay(ctx context.Context, req *models.RecordPaymentRequest, method domain.PaymentMethod) (*models.TransactionResponse, error) {
	existing, err := s.transactionRepo.GetByIdempotencyKey(ctx, req.IdempotencyKey)
	if err != nil {
		if errors.Is(err, transactionRepo.ErrTransactionNotFound) {
			return nil, nil
		}
		s.logger.Error("RecordPayment: failed to look up idempotency key: %v", err)
		return nil, fmt.Errorf("%w: RecordPayment - idempotency lookup: %v", ErrInternal, err)
	}
	if existing.BookingID != req.BookingID || existing.Amount != req.Amount || existing.Method != method {
		s.logger.Warn("RecordPayment: idempotency key reused: booking id=%d amount=%d method=%s (original booking id=%d amount=%d method=%s)",
			req.BookingID, req.Amount, method, existing.BookingID, existing.Amount, existing.Method)
		return nil, ErrIdempotencyKeyReused
	}

	s.logger.Info("RecordPayment: replayed transaction id=%s for idempotency key", existing.ID)
	return models.FromDomainTransaction(existing), nil
}

// ApplySettlement применяет результат проведения платежа
// Успех переводит транзакцию в paid, отказ в failed и возвращает ErrPaymentFailed.
// Статус бронирования не меняется в обоих случаях.
// Если бронирование уже отменено, успешная оплата сразу возвращается целиком.
func (s *Service) ApplySettlement(ctx context.Context, id uuid.UUID, req *models.SettlementRequest) (*models.TransactionResponse, error) {
	s.logger.Info("ApplySettlement: transaction id=%s, success=%t, amount=%d", id, req.Success, req.Amount)

	now := s.timeProvider.Now()
	var result *domain.Transaction

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		t, err := s.getForUpdate(txCtx, id)
		if err != nil {
			return err
		}

		// Повторный callback шлюза с тем же результатом
		if req.Success && t.Status == domain.TransactionPaid && t.Amount == req.Amount {
			result = t
			return nil
		}
		if !req.Success && t.Status == domain.TransactionFailed {
			result = t
			return nil
		}
		// оплата отмененного бронирования уже возвращена при первом callback
		if req.Success && t.Status == domain.TransactionRefunded && t.Amount == req.Amount {
			result = t
			return nil
		}

		if req.Success {
			err = t.MarkPaid(req.Amount, now)
		} else {
			reason := req.Reason
			if reason == "" {
				reason = "declined"
			}
			err = t.MarkFailed(reason, now)
		}
		if err != nil {
			return mapDomainError(err)
		}

		if t.Status == domain.TransactionPaid {
			if err := s.refundIfCancelled(txCtx, t, now); err != nil {
				return err
			}
		}

		if err := s.save(txCtx, t, now); err != nil {
			return err
		}
		result = t
		return nil
	})
	if err != nil {
		s.logFailure("ApplySettlement", err)
		return nil, err
	}

	s.metrics.IncPayment(string(result.Status))

	if result.Status == domain.TransactionFailed {
		s.logger.Warn("ApplySettlement: transaction id=%s failed: %s", id, *result.FailureReason)
		return nil, fmt.Errorf("%w: %s", ErrPaymentFailed, *result.FailureReason)
	}

	s.logger.Info("ApplySettlement: transaction id=%s %s, commission=%d, payout=%d",
		id, result.Status, result.CommissionAmount, result.PayoutAmount)
	return models.FromDomainTransaction(result), nil
}

// Refund возвращает клиенту amount из оплаченной транзакции
// Сторно комиссии пропорционально накопленной сумме возвратов
func (s *Service) Refund(ctx context.Context, id uuid.UUID, amount int64) (*models.RefundResponse, error) {
	s.logger.Info("Refund: transaction id=%s, amount=%d", id, amount)

	now := s.timeProvider.Now()
	var (
		result *domain.Transaction
		refund domain.RefundResult
	)

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		t, err := s.getForUpdate(txCtx, id)
		if err != nil {
			return err
		}

		refund, err = t.ApplyRefund(amount, now)
		if err != nil {
			return mapDomainError(err)
		}

		if err := s.save(txCtx, t, now); err != nil {
			return err
		}
		result = t
		return nil
	})
	if err != nil {
		s.logFailure("Refund", err)
		return nil, err
	}

	s.metrics.IncPayment("refund")
	s.logger.Info("Refund: transaction id=%s refunded %d (commission reversal %d), status=%s",
		id, refund.Refunded, refund.CommissionReversal, result.Status)
	return models.FromDomainRefund(result, refund), nil
}

// ReleasePayout фиксирует выплату мастеру: paid -> settled
func (s *Service) ReleasePayout(ctx context.Context, id uuid.UUID) (*models.TransactionResponse, error) {
	s.logger.Info("ReleasePayout: transaction id=%s", id)

	now := s.timeProvider.Now()
	var result *domain.Transaction

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		t, err := s.getForUpdate(txCtx, id)
		if err != nil {
			return err
		}

		if err := t.ReleasePayout(now); err != nil {
			return mapDomainError(err)
		}

		if err := s.save(txCtx, t, now); err != nil {
			return err
		}
		result = t
		return nil
	})
	if err != nil {
		s.logFailure("ReleasePayout", err)
		return nil, err
	}

	s.metrics.IncPayment(string(result.Status))
	s.logger.Info("ReleasePayout: transaction id=%s settled, payout=%d", id, result.NetPayout())
	return models.FromDomainTransaction(result), nil
}

// RefundForBooking возвращает остаток оплаченной транзакции бронирования
// Возвращает nil без ошибки, если возвращать нечего
func (s *Service) RefundForBooking(ctx context.Context, bookingID int64) (*models.RefundResponse, error) {
	t, err := s.transactionRepo.GetLiveByBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, transactionRepo.ErrTransactionNotFound) {
			return nil, nil
		}
		s.logger.Error("RefundForBooking: repository error for booking id=%d: %v", bookingID, err)
		return nil, fmt.Errorf("%w: RefundForBooking - repository error: %v", ErrInternal, err)
	}

	if t.Status != domain.TransactionPaid || t.RefundableAmount() == 0 {
		s.logger.Info("RefundForBooking: booking id=%d has nothing to refund (transaction status %s)", bookingID, t.Status)
		return nil, nil
	}

	return s.Refund(ctx, t.ID, t.RefundableAmount())
}

// refundIfCancelled возвращает только что оплаченную транзакцию, если бронирование
// отменили, пока платеж проводился. Строка бронирования блокируется, поэтому
// отмена либо видит статус paid и возвращает сама, либо уже зафиксирована здесь.
func (s *Service) refundIfCancelled(ctx context.Context, t *domain.Transaction, now time.Time) error {
	booking, err := s.bookingRepo.GetByIDForUpdate(ctx, t.BookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			return ErrBookingNotFound
		}
		return fmt.Errorf("%w: get booking: %v", ErrInternal, err)
	}
	if booking.Status != domain.StatusCancelled {
		return nil
	}

	refund, err := t.ApplyRefund(t.RefundableAmount(), now)
	if err != nil {
		return mapDomainError(err)
	}
	s.logger.Warn("ApplySettlement: booking id=%d was cancelled, refunded %d (commission reversal %d)",
		booking.ID, refund.Refunded, refund.CommissionReversal)
	return nil
}

func (s *Service) getForUpdate(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	t, err := s.transactionRepo.GetByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, transactionRepo.ErrTransactionNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("%w: get transaction: %v", ErrInternal, err)
	}
	return t, nil
}

// save сохраняет транзакцию и зеркалит её статус в бронирование
func (s *Service) save(ctx context.Context, t *domain.Transaction, now time.Time) error {
	if err := s.transactionRepo.Update(ctx, t); err != nil {
		return fmt.Errorf("%w: update transaction: %v", ErrInternal, err)
	}
	if err := s.bookingRepo.UpdatePaymentStatus(ctx, t.BookingID, t.Status.PaymentStatus(), now); err != nil {
		return fmt.Errorf("%w: update booking payment status: %v", ErrInternal, err)
	}
	return nil
}

func (s *Service) logFailure(method string, err error) {
	if errors.Is(err, ErrInternal) {
		s.logger.Error("%s: %v", method, err)
		return
	}
	s.logger.Warn("%s: %v", method, err)
}

// mapDomainError переводит ошибки доменной модели в ошибки сервиса
func mapDomainError(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidStateTransition):
		return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	case errors.Is(err, domain.ErrValidation):
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return fmt.Errorf("%w: %v", ErrInternal, err)
}
