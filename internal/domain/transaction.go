package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a transaction.
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdraw   TransactionType = "withdraw"
	TransactionTypeTransfer   TransactionType = "transfer"
	TransactionTypePayment    TransactionType = "payment"
	TransactionTypeRefund     TransactionType = "refund"
	TransactionTypeConversion TransactionType = "conversion"
	TransactionTypeFee        TransactionType = "fee"
	TransactionTypeInterest   TransactionType = "interest"
	TransactionTypeReward     TransactionType = "reward"
)

// ValidateTransactionType checks t is one of the supported types. Unknown
// values must never reach the ledger: IsDebit treats anything it does not
// recognize as a credit.
func ValidateTransactionType(t TransactionType) error {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdraw, TransactionTypeTransfer,
		TransactionTypePayment, TransactionTypeRefund, TransactionTypeConversion,
		TransactionTypeFee, TransactionTypeInterest, TransactionTypeReward:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrInvalidTransactionType, t)
	}
}

// TransactionStatus is the state machine position of a transaction.
type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "pending"
	TransactionStatusProcessing TransactionStatus = "processing"
	TransactionStatusCompleted  TransactionStatus = "completed"
	TransactionStatusFailed     TransactionStatus = "failed"
	TransactionStatusCancelled  TransactionStatus = "cancelled"
	TransactionStatusDisputed   TransactionStatus = "disputed"
	TransactionStatusReversed   TransactionStatus = "reversed"
)

// TransferDirection marks which leg of a transfer a transaction is.
type TransferDirection string

const (
	TransferDirectionOutbound TransferDirection = "outbound"
	TransferDirectionInbound  TransferDirection = "inbound"
)

// Transaction is one append-only ledger record. Once Status is completed
// the record never changes; corrections are new linked transactions.
type Transaction struct {
	ID             string            `json:"id"`
	AccountID      string            `json:"account_id"`
	IdempotencyKey *string           `json:"idempotency_key,omitempty"`
	ReferenceID    string            `json:"reference_id,omitempty"`
	Type           TransactionType   `json:"type"`
	Direction      TransferDirection `json:"direction,omitempty"`
	Amount         decimal.Decimal   `json:"amount"`
	BalanceBefore  decimal.Decimal   `json:"balance_before"`
	BalanceAfter   decimal.Decimal   `json:"balance_after"`
	Status         TransactionStatus `json:"status"`
	RiskScore      int               `json:"risk_score"`
	Description    string            `json:"description,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	ProcessedAt    *time.Time        `json:"processed_at,omitempty"`
}

// IsDebit reports whether the type reduces the account balance.
// The transfer type is direction-dependent: only the outbound leg debits.
func (t TransactionType) IsDebit(direction TransferDirection) bool {
	switch t {
	case TransactionTypeWithdraw, TransactionTypePayment, TransactionTypeFee, TransactionTypeConversion:
		return true
	case TransactionTypeTransfer:
		return direction == TransferDirectionOutbound
	default:
		return false
	}
}

// IsLimitChecked reports whether the type counts against spending limits.
// Deposits, refunds and other credit types are never limit-checked.
func (t TransactionType) IsLimitChecked(direction TransferDirection) bool {
	switch t {
	case TransactionTypeWithdraw, TransactionTypePayment:
		return true
	case TransactionTypeTransfer:
		return direction == TransferDirectionOutbound
	default:
		return false
	}
}

// SignedAmount returns the amount with the sign it contributes to the
// balance: negative for debits, positive for credits.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type.IsDebit(t.Direction) {
		return t.Amount.Neg()
	}
	return t.Amount
}

// BalanceAfterApply derives the post-transaction balance from the
// pre-transaction balance, type and amount.
func BalanceAfterApply(before decimal.Decimal, txType TransactionType, direction TransferDirection, amount decimal.Decimal) decimal.Decimal {
	if txType.IsDebit(direction) {
		return before.Sub(amount)
	}
	return before.Add(amount)
}
