package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/finbase/paycore/internal/domain"
	"github.com/finbase/paycore/internal/usecase"
)

const transactionColumns = `id, account_id, idempotency_key, reference_id, type, direction,
	amount, balance_before, balance_after, status, risk_score, description, metadata,
	created_at, processed_at`

// debitPredicate selects rows whose type reduces the balance. Kept in one
// place so every aggregate agrees on what counts as a debit.
const debitPredicate = `(type IN ('withdraw', 'payment', 'fee', 'conversion')
	OR (type = 'transfer' AND direction = 'outbound'))`

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Append inserts a transaction record inside the given database
// transaction. The log is append-only; completed records are never updated.
func (r *TransactionRepository) Append(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error {
	const query = `
		INSERT INTO transactions (id, account_id, idempotency_key, reference_id, type, direction,
			amount, balance_before, balance_after, status, risk_score, description, metadata,
			created_at, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	metadata, err := marshalMetadata(t.Metadata)
	if err != nil {
		return err
	}

	_, err = tx.(*Tx).PgxTx().Exec(ctx, query,
		t.ID,
		t.AccountID,
		t.IdempotencyKey,
		t.ReferenceID,
		string(t.Type),
		string(t.Direction),
		decimalToNumeric(t.Amount),
		decimalToNumeric(t.BalanceBefore),
		decimalToNumeric(t.BalanceAfter),
		string(t.Status),
		t.RiskScore,
		t.Description,
		metadata,
		timeToPgTimestamptz(t.CreatedAt),
		timePtrToPgTimestamptz(t.ProcessedAt),
	)

	return err
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	const query = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	t, err := scanTransaction(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}

	return t, nil
}

// GetCompletedByIdempotencyKey returns the completed transaction bound to
// the key.
func (r *TransactionRepository) GetCompletedByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error) {
	const query = `SELECT ` + transactionColumns + ` FROM transactions
		WHERE idempotency_key = $1 AND status = 'completed'`

	t, err := scanTransaction(r.pool.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}

	return t, nil
}

// ListByAccount lists an account's transactions, newest first.
func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
	const query = `SELECT ` + transactionColumns + ` FROM transactions
		WHERE account_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	return r.queryMany(ctx, query, accountID, int32(limit), int32(offset))
}

// ListByReference lists the linked legs of a multi-leg operation.
func (r *TransactionRepository) ListByReference(ctx context.Context, referenceID string) ([]*domain.Transaction, error) {
	const query = `SELECT ` + transactionColumns + ` FROM transactions
		WHERE reference_id = $1 ORDER BY created_at`

	return r.queryMany(ctx, query, referenceID)
}

// UpdateStatus transitions a record's status flag, e.g. to reversed. The
// financial columns are never touched.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, id string, status domain.TransactionStatus, processedAt time.Time) error {
	const query = `UPDATE transactions SET status = $2, processed_at = $3 WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, string(status), timeToPgTimestamptz(processedAt))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}

// CountByAccountSince counts transaction attempts after the cutoff.
func (r *TransactionRepository) CountByAccountSince(ctx context.Context, accountID string, since time.Time) (int64, error) {
	const query = `SELECT COUNT(*) FROM transactions WHERE account_id = $1 AND created_at > $2`

	var count int64
	err := r.pool.QueryRow(ctx, query, accountID, timeToPgTimestamptz(since)).Scan(&count)

	return count, err
}

// SumCompletedDebits sums completed debit amounts after the cutoff.
func (r *TransactionRepository) SumCompletedDebits(ctx context.Context, accountID string, since time.Time) (decimal.Decimal, error) {
	const query = `SELECT COALESCE(SUM(amount), 0) FROM transactions
		WHERE account_id = $1 AND status = 'completed' AND created_at > $2 AND ` + debitPredicate

	var sum pgtype.Numeric
	if err := r.pool.QueryRow(ctx, query, accountID, timeToPgTimestamptz(since)).Scan(&sum); err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(sum), nil
}

// AverageCompletedAmount returns the mean completed amount, zero for an
// account without history.
func (r *TransactionRepository) AverageCompletedAmount(ctx context.Context, accountID string) (decimal.Decimal, error) {
	const query = `SELECT COALESCE(AVG(amount), 0) FROM transactions
		WHERE account_id = $1 AND status = 'completed'`

	var avg pgtype.Numeric
	if err := r.pool.QueryRow(ctx, query, accountID).Scan(&avg); err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(avg), nil
}

// SumCompletedSigned sums completed transactions credit-minus-debit,
// yielding the canonical balance.
func (r *TransactionRepository) SumCompletedSigned(ctx context.Context, accountID string) (decimal.Decimal, error) {
	const query = `SELECT COALESCE(SUM(CASE WHEN ` + debitPredicate + ` THEN -amount ELSE amount END), 0)
		FROM transactions WHERE account_id = $1 AND status = 'completed'`

	var sum pgtype.Numeric
	if err := r.pool.QueryRow(ctx, query, accountID).Scan(&sum); err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(sum), nil
}

func (r *TransactionRepository) queryMany(ctx context.Context, query string, args ...any) ([]*domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []*domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}

	return transactions, rows.Err()
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		t                         domain.Transaction
		txType, direction, status string
		amount, before, after     pgtype.Numeric
		metadata                  []byte
		createdAt, processedAt    pgtype.Timestamptz
	)

	err := row.Scan(
		&t.ID,
		&t.AccountID,
		&t.IdempotencyKey,
		&t.ReferenceID,
		&txType,
		&direction,
		&amount,
		&before,
		&after,
		&status,
		&t.RiskScore,
		&t.Description,
		&metadata,
		&createdAt,
		&processedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Type = domain.TransactionType(txType)
	t.Direction = domain.TransferDirection(direction)
	t.Status = domain.TransactionStatus(status)
	t.Amount = numericToDecimal(amount)
	t.BalanceBefore = numericToDecimal(before)
	t.BalanceAfter = numericToDecimal(after)
	t.CreatedAt = createdAt.Time

	if processedAt.Valid {
		t.ProcessedAt = &processedAt.Time
	}

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &t.Metadata); err != nil {
			return nil, err
		}
	}

	return &t, nil
}

func marshalMetadata(metadata map[string]string) ([]byte, error) {
	if metadata == nil {
		return nil, nil
	}
	return json.Marshal(metadata)
}

func timePtrToPgTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}
