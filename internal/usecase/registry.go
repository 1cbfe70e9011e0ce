package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finbase/paycore/internal/domain"
	"github.com/finbase/paycore/internal/infrastructure/metrics"
)

// Registry handles account creation and lookup.
type Registry struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	txRepo      TransactionRepository
	idGen       IDGenerator
	notifier    Notifier
	metrics     *metrics.Metrics
}

// NewRegistry creates a new Registry.
func NewRegistry(
	txManager TransactionManager,
	accountRepo AccountRepository,
	txRepo TransactionRepository,
	idGen IDGenerator,
	notifier Notifier,
	m *metrics.Metrics,
) *Registry {
	return &Registry{
		txManager:   txManager,
		accountRepo: accountRepo,
		txRepo:      txRepo,
		idGen:       idGen,
		notifier:    notifier,
		metrics:     m,
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	OwnerID         string
	Type            domain.AccountType
	Currency        string
	OpeningBalance  decimal.Decimal
	DailyLimit      decimal.Decimal
	MonthlyLimit    decimal.Decimal
	ParentAccountID *string
}

// CreateAccount creates a new account. A non-zero opening balance is
// recorded as a completed deposit inside the same database transaction so
// the account is never observable with a balance but no history.
func (r *Registry) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	if err := domain.ValidateCurrency(input.Currency); err != nil {
		return nil, err
	}

	if input.OpeningBalance.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}

	if err := r.checkAccountCap(ctx, input.OwnerID, input.Type); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	id := r.idGen.Generate()

	account := &domain.Account{
		ID:               id,
		OwnerID:          input.OwnerID,
		Number:           accountNumber(id),
		ParentAccountID:  input.ParentAccountID,
		Type:             input.Type,
		Currency:         strings.ToUpper(input.Currency),
		Balance:          input.OpeningBalance,
		AvailableBalance: input.OpeningBalance,
		BlockedBalance:   decimal.Zero,
		DailyLimit:       input.DailyLimit,
		MonthlyLimit:     input.MonthlyLimit,
		Status:           domain.AccountStatusActive,
		RiskLevel:        domain.RiskLevelLow,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := r.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := r.accountRepo.Create(txCtx, tx, account); err != nil {
		return nil, err
	}

	if input.OpeningBalance.IsPositive() {
		opening := &domain.Transaction{
			ID:            r.idGen.Generate(),
			AccountID:     account.ID,
			ReferenceID:   account.ID,
			Type:          domain.TransactionTypeDeposit,
			Amount:        input.OpeningBalance,
			BalanceBefore: decimal.Zero,
			BalanceAfter:  input.OpeningBalance,
			Status:        domain.TransactionStatusCompleted,
			Description:   "opening balance",
			CreatedAt:     now,
			ProcessedAt:   &now,
		}
		if err := r.txRepo.Append(txCtx, tx, opening); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if r.metrics != nil {
		r.metrics.AccountsCreated.Inc()
	}

	r.notifier.Notify(domain.EventTypeAccountCreated, map[string]any{
		"account_id": account.ID,
		"owner_id":   account.OwnerID,
		"type":       string(account.Type),
		"currency":   account.Currency,
	})

	return account, nil
}

// GetAccount retrieves an account by ID. When ownerID is non-empty a
// mismatch fails with ErrAccessDenied.
func (r *Registry) GetAccount(ctx context.Context, id, ownerID string) (*domain.Account, error) {
	account, err := r.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if ownerID != "" && account.OwnerID != ownerID {
		return nil, domain.ErrAccessDenied
	}

	return account, nil
}

// CloseAccount soft-closes an account by status transition. Accounts are
// never physically deleted while transactions reference them.
func (r *Registry) CloseAccount(ctx context.Context, id, ownerID string) error {
	account, err := r.GetAccount(ctx, id, ownerID)
	if err != nil {
		return err
	}

	return r.accountRepo.UpdateStatus(ctx, account.ID, domain.AccountStatusClosed, time.Now().UTC())
}

func (r *Registry) checkAccountCap(ctx context.Context, ownerID string, accountType domain.AccountType) error {
	var limit int64
	switch accountType {
	case domain.AccountTypePersonal:
		limit = domain.MaxPersonalAccounts
	case domain.AccountTypeBusiness:
		limit = domain.MaxBusinessAccounts
	default:
		return nil
	}

	count, err := r.accountRepo.CountByOwnerAndType(ctx, ownerID, accountType)
	if err != nil {
		return err
	}

	if count >= limit {
		return domain.ErrAccountLimitExceeded
	}

	return nil
}

// accountNumber derives a human-displayable number from the internal ID.
func accountNumber(id string) string {
	tail := id
	if len(tail) > 12 {
		tail = tail[len(tail)-12:]
	}

	var b strings.Builder
	b.WriteString("PC")
	for i, c := range tail {
		if i%4 == 0 {
			b.WriteByte('-')
		}
		b.WriteRune(c)
	}

	return b.String()
}
