package domain

import "time"

// Event types emitted after state changes.
const (
	EventTypeAccountCreated       = "account.created"
	EventTypeTransactionCompleted = "transaction.completed"
	EventTypeTransactionFailed    = "transaction.failed"
	EventTypeTransferCompleted    = "transfer.completed"
	EventTypeTransactionReversed  = "transaction.reversed"
	EventTypeBalanceReconciled    = "balance.reconciled"
	EventTypeFraudRejected        = "fraud.rejected"
)

// Event is a fire-and-forget notification. Delivery is best effort and
// never awaited by the financial path.
type Event struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}
