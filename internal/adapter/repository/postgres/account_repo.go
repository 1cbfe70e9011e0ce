package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/finbase/paycore/internal/domain"
	"github.com/finbase/paycore/internal/usecase"
)

const accountColumns = `id, owner_id, account_number, parent_account_id, type, currency,
	balance, available_balance, blocked_balance, daily_limit, monthly_limit,
	status, risk_level, version, created_at, updated_at`

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create inserts a new account inside the given transaction.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	const query = `
		INSERT INTO accounts (id, owner_id, account_number, parent_account_id, type, currency,
			balance, available_balance, blocked_balance, daily_limit, monthly_limit,
			status, risk_level, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err := tx.(*Tx).PgxTx().Exec(ctx, query,
		account.ID,
		account.OwnerID,
		account.Number,
		account.ParentAccountID,
		string(account.Type),
		account.Currency,
		decimalToNumeric(account.Balance),
		decimalToNumeric(account.AvailableBalance),
		decimalToNumeric(account.BlockedBalance),
		decimalToNumeric(account.DailyLimit),
		decimalToNumeric(account.MonthlyLimit),
		string(account.Status),
		string(account.RiskLevel),
		account.Version,
		timeToPgTimestamptz(account.CreatedAt),
		timeToPgTimestamptz(account.UpdatedAt),
	)

	return err
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	return r.scanAccount(r.pool.QueryRow(ctx, query, id))
}

// GetByIDForUpdate retrieves an account with a FOR UPDATE row lock.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`

	return r.scanAccount(tx.(*Tx).PgxTx().QueryRow(ctx, query, id))
}

// GetByIDsForUpdate retrieves multiple accounts with FOR UPDATE row locks.
// Rows are locked in sorted id order so concurrent multi-account
// transactions cannot deadlock.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE id = ANY($1::text[]) ORDER BY id FOR UPDATE`

	rows, err := tx.(*Tx).PgxTx().Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := r.scanAccountRow(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

// CountByOwnerAndType counts non-closed accounts held by an owner.
func (r *AccountRepository) CountByOwnerAndType(ctx context.Context, ownerID string, accountType domain.AccountType) (int64, error) {
	const query = `SELECT COUNT(*) FROM accounts WHERE owner_id = $1 AND type = $2 AND status != 'closed'`

	var count int64
	err := r.pool.QueryRow(ctx, query, ownerID, string(accountType)).Scan(&count)

	return count, err
}

// UpdateBalances updates all three balance columns in one statement so the
// available-balance invariant can never be observed broken.
func (r *AccountRepository) UpdateBalances(ctx context.Context, tx usecase.Transaction, id string, balance, available, blocked decimal.Decimal, updatedAt time.Time) error {
	const query = `
		UPDATE accounts
		SET balance = $2, available_balance = $3, blocked_balance = $4,
			version = version + 1, updated_at = $5
		WHERE id = $1`

	_, err := tx.(*Tx).PgxTx().Exec(ctx, query,
		id,
		decimalToNumeric(balance),
		decimalToNumeric(available),
		decimalToNumeric(blocked),
		timeToPgTimestamptz(updatedAt),
	)

	return err
}

// UpdateStatus transitions the account lifecycle state.
func (r *AccountRepository) UpdateStatus(ctx context.Context, id string, status domain.AccountStatus, updatedAt time.Time) error {
	const query = `UPDATE accounts SET status = $2, updated_at = $3 WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, string(status), timeToPgTimestamptz(updatedAt))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// List lists accounts with pagination.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, int32(limit), int32(offset))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]*domain.Account, 0, limit)
	for rows.Next() {
		account, err := r.scanAccountRow(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

func (r *AccountRepository) scanAccount(row pgx.Row) (*domain.Account, error) {
	account, err := scanAccountFrom(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}

	return account, nil
}

func (r *AccountRepository) scanAccountRow(rows pgx.Rows) (*domain.Account, error) {
	return scanAccountFrom(rows)
}

func scanAccountFrom(row pgx.Row) (*domain.Account, error) {
	var (
		account                                     domain.Account
		accountType, status, riskLevel              string
		balance, available, blocked, daily, monthly pgtype.Numeric
		createdAt, updatedAt                        pgtype.Timestamptz
	)

	err := row.Scan(
		&account.ID,
		&account.OwnerID,
		&account.Number,
		&account.ParentAccountID,
		&accountType,
		&account.Currency,
		&balance,
		&available,
		&blocked,
		&daily,
		&monthly,
		&status,
		&riskLevel,
		&account.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	account.Type = domain.AccountType(accountType)
	account.Status = domain.AccountStatus(status)
	account.RiskLevel = domain.RiskLevel(riskLevel)
	account.Balance = numericToDecimal(balance)
	account.AvailableBalance = numericToDecimal(available)
	account.BlockedBalance = numericToDecimal(blocked)
	account.DailyLimit = numericToDecimal(daily)
	account.MonthlyLimit = numericToDecimal(monthly)
	account.CreatedAt = createdAt.Time
	account.UpdatedAt = updatedAt.Time

	return &account, nil
}

// Type conversion helpers.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}

	d, _ := decimal.NewFromString(n.Int.String())
	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
