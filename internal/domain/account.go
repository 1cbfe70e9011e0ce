package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies an account.
type AccountType string

const (
	AccountTypePersonal   AccountType = "personal"
	AccountTypeBusiness   AccountType = "business"
	AccountTypeEscrow     AccountType = "escrow"
	AccountTypeSavings    AccountType = "savings"
	AccountTypeInvestment AccountType = "investment"
)

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

const (
	AccountStatusActive              AccountStatus = "active"
	AccountStatusSuspended           AccountStatus = "suspended"
	AccountStatusBlocked             AccountStatus = "blocked"
	AccountStatusClosed              AccountStatus = "closed"
	AccountStatusPendingVerification AccountStatus = "pending_verification"
)

// RiskLevel is the standing risk classification of an account.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// Per-owner account count caps.
const (
	MaxPersonalAccounts = 5
	MaxBusinessAccounts = 20
)

// Account is a ledger account holding a balance in a single currency.
// AvailableBalance must always equal Balance - BlockedBalance; every
// mutation goes through ApplyDebit/ApplyCredit/Block/Unblock which
// maintain the invariant.
type Account struct {
	ID               string          `json:"id"`
	OwnerID          string          `json:"owner_id"`
	Number           string          `json:"number"`
	ParentAccountID  *string         `json:"parent_account_id,omitempty"`
	Type             AccountType     `json:"type"`
	Currency         string          `json:"currency"`
	Balance          decimal.Decimal `json:"balance"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
	BlockedBalance   decimal.Decimal `json:"blocked_balance"`
	DailyLimit       decimal.Decimal `json:"daily_limit"`
	MonthlyLimit     decimal.Decimal `json:"monthly_limit"`
	Status           AccountStatus   `json:"status"`
	RiskLevel        RiskLevel       `json:"risk_level"`
	Version          int64           `json:"version"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// IsActive reports whether the account may participate in transactions.
func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}

// CanDebit checks that debiting amount leaves a non-negative available
// balance. No account type permits overdraft.
func (a *Account) CanDebit(amount decimal.Decimal) error {
	if a.AvailableBalance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	return nil
}

// ApplyDebit reduces the balance by amount, keeping the available-balance
// invariant.
func (a *Account) ApplyDebit(amount decimal.Decimal) {
	a.Balance = a.Balance.Sub(amount)
	a.AvailableBalance = a.Balance.Sub(a.BlockedBalance)
}

// ApplyCredit increases the balance by amount, keeping the
// available-balance invariant.
func (a *Account) ApplyCredit(amount decimal.Decimal) {
	a.Balance = a.Balance.Add(amount)
	a.AvailableBalance = a.Balance.Sub(a.BlockedBalance)
}

// Block moves amount from available into blocked funds.
func (a *Account) Block(amount decimal.Decimal) error {
	if a.AvailableBalance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	a.BlockedBalance = a.BlockedBalance.Add(amount)
	a.AvailableBalance = a.Balance.Sub(a.BlockedBalance)
	return nil
}

// Unblock releases amount from blocked funds back to available.
func (a *Account) Unblock(amount decimal.Decimal) error {
	if a.BlockedBalance.LessThan(amount) {
		return ErrInvalidAmount
	}
	a.BlockedBalance = a.BlockedBalance.Sub(amount)
	a.AvailableBalance = a.Balance.Sub(a.BlockedBalance)
	return nil
}
