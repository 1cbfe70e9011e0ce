package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/finbase/paycore/internal/domain"
	"github.com/finbase/paycore/internal/infrastructure/metrics"
)

// Processor orchestrates transaction application: idempotency, locking,
// fraud scoring, limit checks, atomic persistence, cache write-through and
// completion notification.
type Processor struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	txRepo      TransactionRepository
	locks       LockCoordinator
	limits      *LimitEnforcer
	fraud       *FraudEngine
	converter   *Converter
	cache       BalanceCache
	idempotency IdempotencyStore
	retrier     Retrier
	idGen       IDGenerator
	notifier    Notifier
	metrics     *metrics.Metrics
	logger      zerolog.Logger

	leaseTTL       time.Duration
	acquireTimeout time.Duration
	idempotencyTTL time.Duration
}

// ProcessorConfig wires a Processor.
type ProcessorConfig struct {
	TxManager       TransactionManager
	AccountRepo     AccountRepository
	TransactionRepo TransactionRepository
	Locks           LockCoordinator
	Limits          *LimitEnforcer
	Fraud           *FraudEngine
	Converter       *Converter
	Cache           BalanceCache
	Idempotency     IdempotencyStore
	Retrier         Retrier
	IDGen           IDGenerator
	Notifier        Notifier
	Metrics         *metrics.Metrics
	Logger          zerolog.Logger
	LeaseTTL        time.Duration
	AcquireTimeout  time.Duration
	IdempotencyTTL  time.Duration
}

// NewProcessor creates a new Processor.
func NewProcessor(cfg ProcessorConfig) *Processor {
	if cfg.LeaseTTL == 0 {
		cfg.LeaseTTL = DefaultLockLeaseTTL
	}
	if cfg.AcquireTimeout == 0 {
		cfg.AcquireTimeout = DefaultLockAcquireTimeout
	}
	if cfg.IdempotencyTTL == 0 {
		cfg.IdempotencyTTL = DefaultIdempotencyTTL
	}

	return &Processor{
		txManager:      cfg.TxManager,
		accountRepo:    cfg.AccountRepo,
		txRepo:         cfg.TransactionRepo,
		locks:          cfg.Locks,
		limits:         cfg.Limits,
		fraud:          cfg.Fraud,
		converter:      cfg.Converter,
		cache:          cfg.Cache,
		idempotency:    cfg.Idempotency,
		retrier:        cfg.Retrier,
		idGen:          cfg.IDGen,
		notifier:       cfg.Notifier,
		metrics:        cfg.Metrics,
		logger:         cfg.Logger,
		leaseTTL:       cfg.LeaseTTL,
		acquireTimeout: cfg.AcquireTimeout,
		idempotencyTTL: cfg.IdempotencyTTL,
	}
}

// ProcessInput represents a single-account transaction request.
type ProcessInput struct {
	AccountID      string
	Type           domain.TransactionType
	Amount         decimal.Decimal
	Description    string
	IdempotencyKey *string
	Metadata       map[string]string
	Context        domain.TransactionContext
}

// Process applies one transaction to one account. Repeated submission with
// the same idempotency key returns the original result without a second
// balance mutation.
func (p *Processor) Process(ctx context.Context, input ProcessInput) (*domain.Transaction, error) {
	start := time.Now()

	if err := domain.ValidateTransactionType(input.Type); err != nil {
		return nil, err
	}
	if input.Type == domain.TransactionTypeTransfer {
		// Transfer legs only exist in pairs; Transfer is the entry point.
		return nil, fmt.Errorf("%w: transfer requires two accounts", domain.ErrInvalidTransactionType)
	}
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	if err := domain.ValidateMetadata(input.Metadata); err != nil {
		return nil, err
	}

	if existing, err := p.resolveIdempotent(ctx, input.IdempotencyKey); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	handle, err := p.acquireLocks(ctx, []string{input.AccountID})
	if err != nil {
		return nil, err
	}
	defer func() { _ = handle.Release(ctx) }()

	// The lock is held; re-check the key so a retry racing the original
	// cannot apply twice.
	if existing, err := p.resolveIdempotent(ctx, input.IdempotencyKey); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	var result *domain.Transaction
	err = p.retrier.Retry(ctx, func() error {
		var applyErr error
		result, applyErr = p.applyOne(ctx, input)
		return applyErr
	})
	if err != nil {
		p.observeFailure(input.Type, err)
		return nil, err
	}

	p.finishCompleted(ctx, result, input.IdempotencyKey)

	if p.metrics != nil {
		p.metrics.TransactionsProcessed.WithLabelValues(string(input.Type)).Inc()
		p.metrics.TransactionDuration.Observe(time.Since(start).Seconds())
	}

	return result, nil
}

// applyOne runs the validate-score-apply-persist sequence inside one
// database transaction. Account row and transaction record commit together
// or not at all.
func (p *Processor) applyOne(ctx context.Context, input ProcessInput) (*domain.Transaction, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := p.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	account, err := p.accountRepo.GetByIDForUpdate(txCtx, tx, input.AccountID)
	if err != nil {
		return nil, err
	}

	if !account.IsActive() {
		return nil, domain.ErrAccountBlocked
	}

	// Single-account transactions carry no transfer direction; whether the
	// type debits or credits is determined by the type alone.
	var direction domain.TransferDirection

	assessment, err := p.fraud.Assess(txCtx, account, input.Type, input.Amount, input.Context)
	if err != nil {
		return nil, err
	}
	if assessment.IsSuspicious {
		// Audit record persists outside this tx; no balance change happens.
		p.recordRejected(ctx, account, input, assessment)
		return nil, domain.ErrFraudDetected
	}

	now := time.Now().UTC()

	if err := p.limits.CheckLimits(txCtx, account, input.Type, direction, input.Amount, now); err != nil {
		return nil, err
	}

	if input.Type.IsDebit(direction) {
		if err := account.CanDebit(input.Amount); err != nil {
			return nil, err
		}
	}

	record := &domain.Transaction{
		ID:             p.idGen.Generate(),
		AccountID:      account.ID,
		IdempotencyKey: input.IdempotencyKey,
		ReferenceID:    p.idGen.Generate(),
		Type:           input.Type,
		Direction:      direction,
		Amount:         input.Amount,
		BalanceBefore:  account.Balance,
		Status:         domain.TransactionStatusCompleted,
		RiskScore:      assessment.RiskScore,
		Description:    input.Description,
		Metadata:       input.Metadata,
		CreatedAt:      now,
		ProcessedAt:    &now,
	}

	if input.Type.IsDebit(direction) {
		account.ApplyDebit(input.Amount)
	} else {
		account.ApplyCredit(input.Amount)
	}
	record.BalanceAfter = account.Balance

	if err := p.txRepo.Append(txCtx, tx, record); err != nil {
		return nil, err
	}

	if err := p.accountRepo.UpdateBalances(txCtx, tx, account.ID, account.Balance, account.AvailableBalance, account.BlockedBalance, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	p.writeSnapshot(ctx, account, now)

	return record, nil
}

// TransferInput represents a two-leg transfer request.
type TransferInput struct {
	SourceAccountID      string
	DestinationAccountID string
	Amount               decimal.Decimal
	Description          string
	IdempotencyKey       *string
	ExchangeRate         *decimal.Decimal
	Metadata             map[string]string
	Context              domain.TransactionContext
}

// TransferResult is the outcome of a completed transfer.
type TransferResult struct {
	ReferenceID  string              `json:"reference_id"`
	Debit        *domain.Transaction `json:"debit"`
	Credit       *domain.Transaction `json:"credit"`
	ExchangeRate decimal.Decimal     `json:"exchange_rate"`
}

// Transfer moves funds between two accounts as two linked transactions
// sharing one reference ID. Both legs commit in one database transaction
// under one combined lock acquisition, so a failed credit leg rolls the
// debit back and no half-applied transfer is ever reported as done.
func (p *Processor) Transfer(ctx context.Context, input TransferInput) (*TransferResult, error) {
	start := time.Now()

	if input.SourceAccountID == input.DestinationAccountID {
		return nil, domain.ErrSameAccount
	}
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	if err := domain.ValidateMetadata(input.Metadata); err != nil {
		return nil, err
	}

	if input.IdempotencyKey != nil {
		if existing, err := p.resolveIdempotent(ctx, input.IdempotencyKey); err != nil {
			return nil, err
		} else if existing != nil {
			return p.rebuildTransferResult(ctx, existing)
		}
	}

	handle, err := p.acquireLocks(ctx, []string{input.SourceAccountID, input.DestinationAccountID})
	if err != nil {
		return nil, err
	}
	defer func() { _ = handle.Release(ctx) }()

	if input.IdempotencyKey != nil {
		if existing, err := p.resolveIdempotent(ctx, input.IdempotencyKey); err != nil {
			return nil, err
		} else if existing != nil {
			return p.rebuildTransferResult(ctx, existing)
		}
	}

	var result *TransferResult
	err = p.retrier.Retry(ctx, func() error {
		var applyErr error
		result, applyErr = p.applyTransfer(ctx, input)
		return applyErr
	})
	if err != nil {
		p.observeFailure(domain.TransactionTypeTransfer, err)
		return nil, err
	}

	p.finishCompleted(ctx, result.Debit, input.IdempotencyKey)

	p.notifier.Notify(domain.EventTypeTransferCompleted, map[string]any{
		"reference_id":           result.ReferenceID,
		"source_account_id":      input.SourceAccountID,
		"destination_account_id": input.DestinationAccountID,
		"debit_amount":           result.Debit.Amount.String(),
		"credit_amount":          result.Credit.Amount.String(),
		"exchange_rate":          result.ExchangeRate.String(),
	})

	if p.metrics != nil {
		p.metrics.TransfersCompleted.Inc()
		p.metrics.TransactionDuration.Observe(time.Since(start).Seconds())
	}

	return result, nil
}

func (p *Processor) applyTransfer(ctx context.Context, input TransferInput) (*TransferResult, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := p.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	// Row locks are taken in sorted id order inside the repository, the
	// same total order the lease coordinator uses.
	accounts, err := p.accountRepo.GetByIDsForUpdate(txCtx, tx, []string{input.SourceAccountID, input.DestinationAccountID})
	if err != nil {
		return nil, err
	}
	if len(accounts) != 2 {
		return nil, domain.ErrAccountNotFound
	}

	var source, dest *domain.Account
	for _, a := range accounts {
		switch a.ID {
		case input.SourceAccountID:
			source = a
		case input.DestinationAccountID:
			dest = a
		}
	}
	if source == nil || dest == nil {
		return nil, domain.ErrAccountNotFound
	}

	if !source.IsActive() || !dest.IsActive() {
		return nil, domain.ErrAccountBlocked
	}

	creditAmount := input.Amount
	rate := decimal.NewFromInt(1)
	if source.Currency != dest.Currency {
		if input.ExchangeRate != nil {
			rate = *input.ExchangeRate
		} else {
			rate, err = p.converter.GetRate(txCtx, source.Currency, dest.Currency)
			if err != nil {
				return nil, err
			}
		}
		creditAmount, err = p.converter.Convert(txCtx, input.Amount, source.Currency, dest.Currency, &rate)
		if err != nil {
			return nil, err
		}
	}

	assessment, err := p.fraud.Assess(txCtx, source, domain.TransactionTypeTransfer, input.Amount, input.Context)
	if err != nil {
		return nil, err
	}
	if assessment.IsSuspicious {
		p.recordRejected(ctx, source, ProcessInput{
			AccountID:      input.SourceAccountID,
			Type:           domain.TransactionTypeTransfer,
			Amount:         input.Amount,
			Description:    input.Description,
			IdempotencyKey: input.IdempotencyKey,
			Metadata:       input.Metadata,
		}, assessment)
		return nil, domain.ErrFraudDetected
	}

	now := time.Now().UTC()

	if err := p.limits.CheckLimits(txCtx, source, domain.TransactionTypeTransfer, domain.TransferDirectionOutbound, input.Amount, now); err != nil {
		return nil, err
	}

	if err := source.CanDebit(input.Amount); err != nil {
		return nil, err
	}

	referenceID := p.idGen.Generate()

	debit := &domain.Transaction{
		ID:             p.idGen.Generate(),
		AccountID:      source.ID,
		IdempotencyKey: input.IdempotencyKey,
		ReferenceID:    referenceID,
		Type:           domain.TransactionTypeTransfer,
		Direction:      domain.TransferDirectionOutbound,
		Amount:         input.Amount,
		BalanceBefore:  source.Balance,
		Status:         domain.TransactionStatusCompleted,
		RiskScore:      assessment.RiskScore,
		Description:    input.Description,
		Metadata:       input.Metadata,
		CreatedAt:      now,
		ProcessedAt:    &now,
	}
	source.ApplyDebit(input.Amount)
	debit.BalanceAfter = source.Balance

	credit := &domain.Transaction{
		ID:            p.idGen.Generate(),
		AccountID:     dest.ID,
		ReferenceID:   referenceID,
		Type:          domain.TransactionTypeTransfer,
		Direction:     domain.TransferDirectionInbound,
		Amount:        creditAmount,
		BalanceBefore: dest.Balance,
		Status:        domain.TransactionStatusCompleted,
		RiskScore:     assessment.RiskScore,
		Description:   input.Description,
		Metadata:      input.Metadata,
		CreatedAt:     now,
		ProcessedAt:   &now,
	}
	dest.ApplyCredit(creditAmount)
	credit.BalanceAfter = dest.Balance

	if err := p.txRepo.Append(txCtx, tx, debit); err != nil {
		return nil, err
	}
	if err := p.txRepo.Append(txCtx, tx, credit); err != nil {
		return nil, err
	}

	if err := p.accountRepo.UpdateBalances(txCtx, tx, source.ID, source.Balance, source.AvailableBalance, source.BlockedBalance, now); err != nil {
		return nil, err
	}
	if err := p.accountRepo.UpdateBalances(txCtx, tx, dest.ID, dest.Balance, dest.AvailableBalance, dest.BlockedBalance, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	p.writeSnapshot(ctx, source, now)
	p.writeSnapshot(ctx, dest, now)

	return &TransferResult{
		ReferenceID:  referenceID,
		Debit:        debit,
		Credit:       credit,
		ExchangeRate: rate,
	}, nil
}

// BlockFunds moves amount from available into blocked funds.
func (p *Processor) BlockFunds(ctx context.Context, accountID string, amount decimal.Decimal) error {
	return p.adjustBlocked(ctx, accountID, amount, (*domain.Account).Block)
}

// UnblockFunds releases previously blocked funds back to available.
func (p *Processor) UnblockFunds(ctx context.Context, accountID string, amount decimal.Decimal) error {
	return p.adjustBlocked(ctx, accountID, amount, (*domain.Account).Unblock)
}

func (p *Processor) adjustBlocked(ctx context.Context, accountID string, amount decimal.Decimal, apply func(*domain.Account, decimal.Decimal) error) error {
	if err := domain.ValidateAmount(amount); err != nil {
		return err
	}

	handle, err := p.acquireLocks(ctx, []string{accountID})
	if err != nil {
		return err
	}
	defer func() { _ = handle.Release(ctx) }()

	return p.retrier.Retry(ctx, func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := p.txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		account, err := p.accountRepo.GetByIDForUpdate(txCtx, tx, accountID)
		if err != nil {
			return err
		}
		if !account.IsActive() {
			return domain.ErrAccountBlocked
		}

		if err := apply(account, amount); err != nil {
			return err
		}

		now := time.Now().UTC()
		if err := p.accountRepo.UpdateBalances(txCtx, tx, account.ID, account.Balance, account.AvailableBalance, account.BlockedBalance, now); err != nil {
			return err
		}

		if err := tx.Commit(txCtx); err != nil {
			return err
		}

		p.writeSnapshot(ctx, account, now)

		return nil
	})
}

// Reverse creates a compensating transaction for a completed one and marks
// the original reversed. History is never mutated beyond the status flag.
func (p *Processor) Reverse(ctx context.Context, transactionID, description string) (*domain.Transaction, error) {
	original, err := p.txRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if original.Status != domain.TransactionStatusCompleted {
		return nil, domain.ErrNotReversible
	}

	handle, err := p.acquireLocks(ctx, []string{original.AccountID})
	if err != nil {
		return nil, err
	}
	defer func() { _ = handle.Release(ctx) }()

	var compensating *domain.Transaction
	err = p.retrier.Retry(ctx, func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := p.txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		account, err := p.accountRepo.GetByIDForUpdate(txCtx, tx, original.AccountID)
		if err != nil {
			return err
		}

		wasDebit := original.Type.IsDebit(original.Direction)
		if !wasDebit {
			// Reversing a credit debits the account; funds must still be there.
			if err := account.CanDebit(original.Amount); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		compensating = &domain.Transaction{
			ID:            p.idGen.Generate(),
			AccountID:     account.ID,
			ReferenceID:   original.ReferenceID,
			Type:          domain.TransactionTypeRefund,
			Amount:        original.Amount,
			BalanceBefore: account.Balance,
			Status:        domain.TransactionStatusCompleted,
			Description:   description,
			Metadata:      map[string]string{"reverses": original.ID},
			CreatedAt:     now,
			ProcessedAt:   &now,
		}

		if wasDebit {
			account.ApplyCredit(original.Amount)
		} else {
			compensating.Type = domain.TransactionTypeFee
			account.ApplyDebit(original.Amount)
		}
		compensating.BalanceAfter = account.Balance

		if err := p.txRepo.Append(txCtx, tx, compensating); err != nil {
			return err
		}
		if err := p.accountRepo.UpdateBalances(txCtx, tx, account.ID, account.Balance, account.AvailableBalance, account.BlockedBalance, now); err != nil {
			return err
		}
		if err := tx.Commit(txCtx); err != nil {
			return err
		}

		p.writeSnapshot(ctx, account, now)

		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := p.txRepo.UpdateStatus(ctx, original.ID, domain.TransactionStatusReversed, time.Now().UTC()); err != nil {
		p.logger.Error().Err(err).Str("transaction_id", original.ID).Msg("failed to flag original as reversed")
	}

	p.notifier.Notify(domain.EventTypeTransactionReversed, map[string]any{
		"original_id": original.ID,
		"reversal_id": compensating.ID,
		"account_id":  original.AccountID,
		"amount":      original.Amount.String(),
	})

	return compensating, nil
}

// resolveIdempotent returns the completed transaction already bound to key,
// or nil. The redis fast path is consulted first; the durable log decides.
func (p *Processor) resolveIdempotent(ctx context.Context, key *string) (*domain.Transaction, error) {
	if key == nil || *key == "" {
		return nil, nil
	}

	if raw, err := p.idempotency.Get(ctx, *key); err == nil && raw != nil {
		var cached domain.Transaction
		if err := json.Unmarshal(raw, &cached); err == nil && cached.ID != "" {
			return &cached, nil
		}
	}

	existing, err := p.txRepo.GetCompletedByIdempotencyKey(ctx, *key)
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return existing, nil
}

func (p *Processor) rebuildTransferResult(ctx context.Context, debit *domain.Transaction) (*TransferResult, error) {
	legs, err := p.txRepo.ListByReference(ctx, debit.ReferenceID)
	if err != nil {
		return nil, err
	}

	result := &TransferResult{ReferenceID: debit.ReferenceID}
	for _, leg := range legs {
		switch leg.Direction {
		case domain.TransferDirectionOutbound:
			result.Debit = leg
		case domain.TransferDirectionInbound:
			result.Credit = leg
		}
	}

	if result.Debit == nil || result.Credit == nil {
		return nil, domain.ErrTransactionNotFound
	}

	// The rate is not persisted on the legs; recover it from the amounts so
	// a replay reports the same conversion the original applied.
	result.ExchangeRate = result.Credit.Amount.DivRound(result.Debit.Amount, 12)

	return result, nil
}

func (p *Processor) acquireLocks(ctx context.Context, accountIDs []string) (LockHandle, error) {
	start := time.Now()

	lockCtx, cancel := context.WithTimeout(ctx, p.acquireTimeout)
	defer cancel()

	handle, err := p.locks.Acquire(lockCtx, accountIDs, p.leaseTTL)
	if err != nil {
		if p.metrics != nil && errors.Is(err, domain.ErrLockTimeout) {
			p.metrics.LockTimeouts.Inc()
		}
		return nil, err
	}

	if p.metrics != nil {
		p.metrics.LockAcquireDuration.Observe(time.Since(start).Seconds())
	}

	return handle, nil
}

// finishCompleted performs the post-commit bookkeeping: idempotency
// binding and completion notification. Failures here are logged only; the
// financial mutation is already durable.
func (p *Processor) finishCompleted(ctx context.Context, record *domain.Transaction, key *string) {
	if key != nil && *key != "" {
		if raw, err := json.Marshal(record); err == nil {
			if err := p.idempotency.Set(ctx, *key, raw, p.idempotencyTTL); err != nil {
				p.logger.Warn().Err(err).Str("key", *key).Msg("idempotency fast path write failed")
			}
		}
	}

	p.notifier.Notify(domain.EventTypeTransactionCompleted, map[string]any{
		"transaction_id": record.ID,
		"account_id":     record.AccountID,
		"type":           string(record.Type),
		"amount":         record.Amount.String(),
		"balance_after":  record.BalanceAfter.String(),
		"reference_id":   record.ReferenceID,
	})
}

// recordRejected persists a failed audit record for a fraud rejection. The
// record carries the assessment but no balance mutation.
func (p *Processor) recordRejected(ctx context.Context, account *domain.Account, input ProcessInput, assessment *domain.FraudAssessment) {
	now := time.Now().UTC()

	metadata := map[string]string{}
	for k, v := range input.Metadata {
		metadata[k] = v
	}
	for i, factor := range assessment.RiskFactors {
		if i == 0 {
			metadata["risk_factors"] = factor
		} else {
			metadata["risk_factors"] += "," + factor
		}
	}

	record := &domain.Transaction{
		ID:            p.idGen.Generate(),
		AccountID:     account.ID,
		ReferenceID:   p.idGen.Generate(),
		Type:          input.Type,
		Amount:        input.Amount,
		BalanceBefore: account.Balance,
		BalanceAfter:  account.Balance,
		Status:        domain.TransactionStatusFailed,
		RiskScore:     assessment.RiskScore,
		Description:   input.Description,
		Metadata:      metadata,
		CreatedAt:     now,
		ProcessedAt:   &now,
	}

	tx, err := p.txManager.Begin(ctx)
	if err != nil {
		p.logger.Error().Err(err).Msg("fraud audit record not persisted")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := p.txRepo.Append(ctx, tx, record); err != nil {
		p.logger.Error().Err(err).Msg("fraud audit record not persisted")
		return
	}
	if err := tx.Commit(ctx); err != nil {
		p.logger.Error().Err(err).Msg("fraud audit record not persisted")
		return
	}

	if p.metrics != nil {
		p.metrics.FraudRejections.Inc()
	}

	p.notifier.Notify(domain.EventTypeFraudRejected, map[string]any{
		"account_id":   account.ID,
		"type":         string(input.Type),
		"amount":       input.Amount.String(),
		"risk_score":   assessment.RiskScore,
		"risk_factors": assessment.RiskFactors,
	})
}

func (p *Processor) writeSnapshot(ctx context.Context, account *domain.Account, at time.Time) {
	snapshot := &BalanceSnapshot{
		AccountID:        account.ID,
		Balance:          account.Balance,
		AvailableBalance: account.AvailableBalance,
		BlockedBalance:   account.BlockedBalance,
		Currency:         account.Currency,
		CachedAt:         at,
	}

	if err := p.cache.Set(ctx, snapshot); err != nil {
		p.logger.Warn().Err(err).Str("account_id", account.ID).Msg("balance cache write-through failed")
	}
}

func (p *Processor) observeFailure(txType domain.TransactionType, err error) {
	if p.metrics == nil {
		return
	}

	reason := "infrastructure"
	if domain.IsValidationError(err) {
		reason = "validation"
	}

	p.metrics.TransactionsFailed.WithLabelValues(string(txType), reason).Inc()
}
