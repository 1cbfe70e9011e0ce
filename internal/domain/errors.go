package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccessDenied         = errors.New("access denied")
	ErrAccountBlocked       = errors.New("account is not active")
	ErrAccountLimitExceeded = errors.New("maximum number of accounts reached")

	// Transaction errors
	ErrInsufficientFunds        = errors.New("insufficient funds")
	ErrTransactionLimitExceeded = errors.New("transaction exceeds spending limit")
	ErrFraudDetected            = errors.New("transaction flagged as suspicious")
	ErrCurrencyMismatch         = errors.New("currency mismatch")
	ErrTransactionNotFound      = errors.New("transaction not found")
	ErrSameAccount              = errors.New("cannot transfer to same account")
	ErrInvalidAmount            = errors.New("amount must be positive")
	ErrInvalidTransactionType   = errors.New("unsupported transaction type")
	ErrNotReversible            = errors.New("transaction cannot be reversed")

	// Infrastructure errors
	ErrRateUnavailable    = errors.New("exchange rate unavailable")
	ErrLockTimeout        = errors.New("timed out acquiring account lock")
	ErrPersistenceFailure = errors.New("persistence failure")
)

// IsValidationError reports whether err is a business validation failure
// that must be returned to the caller without retry.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrAccountNotFound,
		ErrAccessDenied,
		ErrAccountBlocked,
		ErrAccountLimitExceeded,
		ErrInsufficientFunds,
		ErrTransactionLimitExceeded,
		ErrFraudDetected,
		ErrCurrencyMismatch,
		ErrSameAccount,
		ErrInvalidAmount,
		ErrInvalidTransactionType,
		ErrNotReversible,
		ErrInvalidCurrency,
		ErrAmountTooLarge,
		ErrMetadataTooLarge,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
