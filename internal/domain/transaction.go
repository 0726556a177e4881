package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionStatus is the payment state of a transaction
type TransactionStatus string

const (
	TransactionPending  TransactionStatus = "pending"
	TransactionPaid     TransactionStatus = "paid"
	TransactionRefunded TransactionStatus = "refunded"
	TransactionSettled  TransactionStatus = "settled"
	TransactionFailed   TransactionStatus = "failed"
)

// IsLive returns true while the transaction still represents money owed or
// held for the booking; failed transactions may be retried with a new one
func (s TransactionStatus) IsLive() bool {
	return s != TransactionFailed
}

// PaymentStatus maps the transaction status onto the booking mirror field
func (s TransactionStatus) PaymentStatus() PaymentStatus {
	switch s {
	case TransactionPending:
		return PaymentPending
	case TransactionPaid:
		return PaymentPaid
	case TransactionRefunded:
		return PaymentRefunded
	case TransactionSettled:
		return PaymentSettled
	case TransactionFailed:
		return PaymentFailed
	}
	return PaymentUnpaid
}

// PaymentMethod is how the client paid
type PaymentMethod string

const (
	MethodCard     PaymentMethod = "card"
	MethodCash     PaymentMethod = "cash"
	MethodWallet   PaymentMethod = "wallet"
	MethodTransfer PaymentMethod = "transfer"
)

// ParsePaymentMethod validates a raw payment method
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(s); m {
	case MethodCard, MethodCash, MethodWallet, MethodTransfer:
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown payment method %q", ErrValidation, s)
}

// Transaction is the authoritative record of a payment for a booking.
// Amount, CommissionRate and PolicyVersion are frozen at creation.
type Transaction struct {
	ID                 uuid.UUID
	BookingID          int64
	Amount             int64
	CommissionRate     decimal.Decimal
	PolicyVersion      int
	CommissionAmount   int64
	PayoutAmount       int64
	RefundedAmount     int64
	CommissionReversed int64
	Method             PaymentMethod
	Status             TransactionStatus
	IdempotencyKey     string
	FailureReason      *string
	OccurredAt         time.Time
	SettledAt          *time.Time
	UpdatedAt          time.Time
}

// ComputeCommission splits amount into platform commission and payout.
// The commission is rounded half-up to the minor unit.
func ComputeCommission(amount int64, rate decimal.Decimal) (commission int64, payout int64) {
	commission = decimal.NewFromInt(amount).Mul(rate).Round(0).IntPart()
	return commission, amount - commission
}

// ProportionalReversal returns the part of commission attributable to
// refunded out of amount, rounded half-up
func ProportionalReversal(commission, amount, refunded int64) int64 {
	if amount == 0 || refunded == 0 {
		return 0
	}
	if refunded >= amount {
		return commission
	}
	return decimal.NewFromInt(commission).
		Mul(decimal.NewFromInt(refunded)).
		Div(decimal.NewFromInt(amount)).
		Round(0).
		IntPart()
}

// NewTransactionParams input for NewTransaction
type NewTransactionParams struct {
	BookingID      int64
	Amount         int64
	Method         PaymentMethod
	Policy         CommissionPolicy
	IdempotencyKey string
	Now            time.Time
}

// NewTransaction creates a pending transaction with a frozen commission rate
func NewTransaction(p NewTransactionParams) (*Transaction, error) {
	if p.Amount <= 0 {
		return nil, fmt.Errorf("%w: payment amount must be positive", ErrValidation)
	}
	if err := p.Policy.Validate(); err != nil {
		return nil, err
	}

	commission, payout := ComputeCommission(p.Amount, p.Policy.Rate)
	now := p.Now.UTC()

	key := p.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}

	return &Transaction{
		ID:               uuid.New(),
		BookingID:        p.BookingID,
		Amount:           p.Amount,
		CommissionRate:   p.Policy.Rate,
		PolicyVersion:    p.Policy.Version,
		CommissionAmount: commission,
		PayoutAmount:     payout,
		Method:           p.Method,
		Status:           TransactionPending,
		IdempotencyKey:   key,
		OccurredAt:       now,
		UpdatedAt:        now,
	}, nil
}

// MarkPaid records a successful settlement
func (t *Transaction) MarkPaid(amount int64, now time.Time) error {
	if t.Status != TransactionPending {
		return fmt.Errorf("%w: cannot settle transaction in status %s", ErrInvalidStateTransition, t.Status)
	}
	if amount != t.Amount {
		return fmt.Errorf("%w: settled amount %d differs from recorded amount %d", ErrValidation, amount, t.Amount)
	}
	now = now.UTC()
	t.Status = TransactionPaid
	t.SettledAt = &now
	t.UpdatedAt = now
	return nil
}

// MarkFailed records a rejected settlement
func (t *Transaction) MarkFailed(reason string, now time.Time) error {
	if t.Status != TransactionPending {
		return fmt.Errorf("%w: cannot fail transaction in status %s", ErrInvalidStateTransition, t.Status)
	}
	t.Status = TransactionFailed
	t.FailureReason = &reason
	t.UpdatedAt = now.UTC()
	return nil
}

// RefundResult describes one applied refund
type RefundResult struct {
	Refunded           int64
	CommissionReversal int64
	PayoutReversal     int64
}

// ApplyRefund refunds amount from a paid transaction. The commission reversal
// is computed on the cumulative refunded amount so that repeated partial
// refunds never drift from the frozen rate.
func (t *Transaction) ApplyRefund(amount int64, now time.Time) (RefundResult, error) {
	if t.Status != TransactionPaid {
		return RefundResult{}, fmt.Errorf("%w: cannot refund transaction in status %s", ErrInvalidStateTransition, t.Status)
	}
	if amount <= 0 {
		return RefundResult{}, fmt.Errorf("%w: refund amount must be positive", ErrValidation)
	}
	if amount > t.RefundableAmount() {
		return RefundResult{}, fmt.Errorf("%w: refund %d exceeds refundable amount %d", ErrValidation, amount, t.RefundableAmount())
	}

	refundedTotal := t.RefundedAmount + amount
	reversedTotal := ProportionalReversal(t.CommissionAmount, t.Amount, refundedTotal)
	result := RefundResult{
		Refunded:           amount,
		CommissionReversal: reversedTotal - t.CommissionReversed,
	}
	result.PayoutReversal = amount - result.CommissionReversal

	t.RefundedAmount = refundedTotal
	t.CommissionReversed = reversedTotal
	if refundedTotal == t.Amount {
		t.Status = TransactionRefunded
	}
	t.UpdatedAt = now.UTC()

	return result, nil
}

// ReleasePayout moves a paid transaction to the terminal settled state
func (t *Transaction) ReleasePayout(now time.Time) error {
	if t.Status != TransactionPaid {
		return fmt.Errorf("%w: cannot release payout for transaction in status %s", ErrInvalidStateTransition, t.Status)
	}
	t.Status = TransactionSettled
	t.UpdatedAt = now.UTC()
	return nil
}

// RefundableAmount is what can still be returned to the client
func (t *Transaction) RefundableAmount() int64 {
	return t.Amount - t.RefundedAmount
}

// NetAmount is the amount kept after refunds
func (t *Transaction) NetAmount() int64 {
	return t.Amount - t.RefundedAmount
}

// NetCommission is the commission kept after reversals
func (t *Transaction) NetCommission() int64 {
	return t.CommissionAmount - t.CommissionReversed
}

// NetPayout is the payout owed after refunds
func (t *Transaction) NetPayout() int64 {
	return t.NetAmount() - t.NetCommission()
}

// CountsAsRevenue returns true if the gateway confirmed the money
func (t *Transaction) CountsAsRevenue() bool {
	return t.Status == TransactionPaid || t.Status == TransactionRefunded || t.Status == TransactionSettled
}

// Clone returns a deep copy
func (t *Transaction) Clone() *Transaction {
	c := *t
	if t.FailureReason != nil {
		v := *t.FailureReason
		c.FailureReason = &v
	}
	if t.SettledAt != nil {
		v := *t.SettledAt
		c.SettledAt = &v
	}
	return &c
}

// TransactionFilter filters transactions for reporting by attributes of their
// booking. Time bounds apply to SettledAt as [From, To).
type TransactionFilter struct {
	SalonID   *int64
	StaffID   *int64
	ServiceID *int64
	From      *time.Time
	To        *time.Time
}

// Matches reports whether t (belonging to booking b) passes the filter
func (f TransactionFilter) Matches(t *Transaction, b *Booking) bool {
	if b == nil {
		return false
	}
	if f.SalonID != nil && b.SalonID != *f.SalonID {
		return false
	}
	if f.StaffID != nil && b.StaffID != *f.StaffID {
		return false
	}
	if f.ServiceID != nil && b.ServiceID != *f.ServiceID {
		return false
	}
	if t.SettledAt == nil {
		return f.From == nil && f.To == nil
	}
	if f.From != nil && t.SettledAt.Before(*f.From) {
		return false
	}
	if f.To != nil && !t.SettledAt.Before(*f.To) {
		return false
	}
	return true
}
