package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finbase/paycore/internal/domain"
	"github.com/finbase/paycore/internal/usecase"
)

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	CreateFunc              func(ctx context.Context, tx usecase.Transaction, account *domain.Account) error
	GetByIDFunc             func(ctx context.Context, id string) (*domain.Account, error)
	GetByIDForUpdateFunc    func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error)
	GetByIDsForUpdateFunc   func(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error)
	CountByOwnerAndTypeFunc func(ctx context.Context, ownerID string, accountType domain.AccountType) (int64, error)
	UpdateBalancesFunc      func(ctx context.Context, tx usecase.Transaction, id string, balance, available, blocked decimal.Decimal, updatedAt time.Time) error
	UpdateStatusFunc        func(ctx context.Context, id string, status domain.AccountStatus, updatedAt time.Time) error
	ListFunc                func(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[string]*domain.Account),
	}
}

// Put seeds an account directly into the in-memory store.
func (m *MockAccountRepository) Put(account *domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = account
}

func (m *MockAccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = account
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[id]; ok {
		return acc, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockAccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	if m.GetByIDsForUpdateFunc != nil {
		return m.GetByIDsForUpdateFunc(ctx, tx, ids)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)
	var accounts []*domain.Account
	for _, id := range sorted {
		if acc, ok := m.accounts[id]; ok {
			accounts = append(accounts, acc)
		}
	}
	return accounts, nil
}

func (m *MockAccountRepository) CountByOwnerAndType(ctx context.Context, ownerID string, accountType domain.AccountType) (int64, error) {
	if m.CountByOwnerAndTypeFunc != nil {
		return m.CountByOwnerAndTypeFunc(ctx, ownerID, accountType)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var count int64
	for _, acc := range m.accounts {
		if acc.OwnerID == ownerID && acc.Type == accountType && acc.Status != domain.AccountStatusClosed {
			count++
		}
	}
	return count, nil
}

func (m *MockAccountRepository) UpdateBalances(ctx context.Context, tx usecase.Transaction, id string, balance, available, blocked decimal.Decimal, updatedAt time.Time) error {
	if m.UpdateBalancesFunc != nil {
		return m.UpdateBalancesFunc(ctx, tx, id, balance, available, blocked, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.accounts[id]; ok {
		acc.Balance = balance
		acc.AvailableBalance = available
		acc.BlockedBalance = blocked
		acc.Version++
		acc.UpdatedAt = updatedAt
	}
	return nil
}

func (m *MockAccountRepository) UpdateStatus(ctx context.Context, id string, status domain.AccountStatus, updatedAt time.Time) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	acc.Status = status
	acc.UpdatedAt = updatedAt
	return nil
}

func (m *MockAccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.accounts))
	for id := range m.accounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var accounts []*domain.Account
	for i, id := range ids {
		if i < offset {
			continue
		}
		if len(accounts) == limit {
			break
		}
		accounts = append(accounts, m.accounts[id])
	}
	return accounts, nil
}

// MockTransactionRepository is a mock implementation of TransactionRepository.
// The default behavior keeps an in-memory append-only log.
type MockTransactionRepository struct {
	mu  sync.RWMutex
	log []*domain.Transaction

	AppendFunc                       func(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error
	GetByIDFunc                      func(ctx context.Context, id string) (*domain.Transaction, error)
	GetCompletedByIdempotencyKeyFunc func(ctx context.Context, key string) (*domain.Transaction, error)
	ListByAccountFunc                func(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error)
	ListByReferenceFunc              func(ctx context.Context, referenceID string) ([]*domain.Transaction, error)
	UpdateStatusFunc                 func(ctx context.Context, id string, status domain.TransactionStatus, processedAt time.Time) error
	CountByAccountSinceFunc          func(ctx context.Context, accountID string, since time.Time) (int64, error)
	SumCompletedDebitsFunc           func(ctx context.Context, accountID string, since time.Time) (decimal.Decimal, error)
	AverageCompletedAmountFunc       func(ctx context.Context, accountID string) (decimal.Decimal, error)
	SumCompletedSignedFunc           func(ctx context.Context, accountID string) (decimal.Decimal, error)
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{}
}

// Log returns a copy of the appended records.
func (m *MockTransactionRepository) Log() []*domain.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Transaction, len(m.log))
	copy(out, m.log)
	return out
}

func (m *MockTransactionRepository) Append(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, tx, t)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log = append(m.log, t)
	return nil
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.log {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) GetCompletedByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error) {
	if m.GetCompletedByIdempotencyKeyFunc != nil {
		return m.GetCompletedByIdempotencyKeyFunc(ctx, key)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.log {
		if t.IdempotencyKey != nil && *t.IdempotencyKey == key && t.Status == domain.TransactionStatusCompleted {
			return t, nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
	if m.ListByAccountFunc != nil {
		return m.ListByAccountFunc(ctx, accountID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Transaction
	for i := len(m.log) - 1; i >= 0; i-- {
		if m.log[i].AccountID == accountID {
			out = append(out, m.log[i])
		}
	}
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockTransactionRepository) ListByReference(ctx context.Context, referenceID string) ([]*domain.Transaction, error) {
	if m.ListByReferenceFunc != nil {
		return m.ListByReferenceFunc(ctx, referenceID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Transaction
	for _, t := range m.log {
		if t.ReferenceID == referenceID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *MockTransactionRepository) UpdateStatus(ctx context.Context, id string, status domain.TransactionStatus, processedAt time.Time) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status, processedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.log {
		if t.ID == id {
			t.Status = status
			t.ProcessedAt = &processedAt
			return nil
		}
	}
	return domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) CountByAccountSince(ctx context.Context, accountID string, since time.Time) (int64, error) {
	if m.CountByAccountSinceFunc != nil {
		return m.CountByAccountSinceFunc(ctx, accountID, since)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var count int64
	for _, t := range m.log {
		if t.AccountID == accountID && t.CreatedAt.After(since) {
			count++
		}
	}
	return count, nil
}

func (m *MockTransactionRepository) SumCompletedDebits(ctx context.Context, accountID string, since time.Time) (decimal.Decimal, error) {
	if m.SumCompletedDebitsFunc != nil {
		return m.SumCompletedDebitsFunc(ctx, accountID, since)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	sum := decimal.Zero
	for _, t := range m.log {
		if t.AccountID != accountID || t.Status != domain.TransactionStatusCompleted {
			continue
		}
		if !t.CreatedAt.After(since) || !t.Type.IsDebit(t.Direction) {
			continue
		}
		sum = sum.Add(t.Amount)
	}
	return sum, nil
}

func (m *MockTransactionRepository) AverageCompletedAmount(ctx context.Context, accountID string) (decimal.Decimal, error) {
	if m.AverageCompletedAmountFunc != nil {
		return m.AverageCompletedAmountFunc(ctx, accountID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	sum := decimal.Zero
	var count int64
	for _, t := range m.log {
		if t.AccountID == accountID && t.Status == domain.TransactionStatusCompleted {
			sum = sum.Add(t.Amount)
			count++
		}
	}
	if count == 0 {
		return decimal.Zero, nil
	}
	return sum.Div(decimal.NewFromInt(count)), nil
}

func (m *MockTransactionRepository) SumCompletedSigned(ctx context.Context, accountID string) (decimal.Decimal, error) {
	if m.SumCompletedSignedFunc != nil {
		return m.SumCompletedSignedFunc(ctx, accountID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	sum := decimal.Zero
	for _, t := range m.log {
		if t.AccountID == accountID && t.Status == domain.TransactionStatusCompleted {
			sum = sum.Add(t.SignedAmount())
		}
	}
	return sum, nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("mock-id-%04d", m.counter)
}

// MockLockCoordinator is a mock implementation of LockCoordinator. The
// default grants every acquisition immediately and records the keys.
type MockLockCoordinator struct {
	mu       sync.Mutex
	acquired [][]string

	AcquireFunc func(ctx context.Context, keys []string, leaseTTL time.Duration) (usecase.LockHandle, error)
}

func NewMockLockCoordinator() *MockLockCoordinator {
	return &MockLockCoordinator{}
}

func (m *MockLockCoordinator) Acquire(ctx context.Context, keys []string, leaseTTL time.Duration) (usecase.LockHandle, error) {
	if m.AcquireFunc != nil {
		return m.AcquireFunc(ctx, keys, leaseTTL)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sorted := make([]string, len(keys))
	copy(sorted, keys)
	sort.Strings(sorted)
	m.acquired = append(m.acquired, sorted)
	return &MockLockHandle{}, nil
}

// Acquired returns the key sets granted so far.
func (m *MockLockCoordinator) Acquired() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, len(m.acquired))
	copy(out, m.acquired)
	return out
}

// MockLockHandle is a mock implementation of LockHandle.
type MockLockHandle struct {
	mu       sync.Mutex
	released int

	ReleaseFunc func(ctx context.Context) error
}

func (m *MockLockHandle) Release(ctx context.Context) error {
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released++
	return nil
}

// Released returns how many times Release was called.
func (m *MockLockHandle) Released() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.released
}

// MockRateProvider is a mock implementation of RateProvider backed by a
// static pair map.
type MockRateProvider struct {
	mu    sync.RWMutex
	rates map[string]decimal.Decimal

	RateFunc func(ctx context.Context, from, to string) (decimal.Decimal, error)
}

func NewMockRateProvider() *MockRateProvider {
	return &MockRateProvider{
		rates: make(map[string]decimal.Decimal),
	}
}

// SetRate seeds a pair rate.
func (m *MockRateProvider) SetRate(from, to string, rate decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rates[from+"/"+to] = rate
}

func (m *MockRateProvider) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	if m.RateFunc != nil {
		return m.RateFunc(ctx, from, to)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if rate, ok := m.rates[from+"/"+to]; ok {
		return rate, nil
	}
	return decimal.Zero, domain.ErrRateUnavailable
}

// MockBalanceCache is a mock implementation of BalanceCache.
type MockBalanceCache struct {
	mu        sync.RWMutex
	snapshots map[string]*usecase.BalanceSnapshot

	GetFunc        func(ctx context.Context, accountID string) (*usecase.BalanceSnapshot, error)
	SetFunc        func(ctx context.Context, snapshot *usecase.BalanceSnapshot) error
	InvalidateFunc func(ctx context.Context, accountID string) error
}

func NewMockBalanceCache() *MockBalanceCache {
	return &MockBalanceCache{
		snapshots: make(map[string]*usecase.BalanceSnapshot),
	}
}

func (m *MockBalanceCache) Get(ctx context.Context, accountID string) (*usecase.BalanceSnapshot, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, accountID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshots[accountID], nil
}

func (m *MockBalanceCache) Set(ctx context.Context, snapshot *usecase.BalanceSnapshot) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, snapshot)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[snapshot.AccountID] = snapshot
	return nil
}

func (m *MockBalanceCache) Invalidate(ctx context.Context, accountID string) error {
	if m.InvalidateFunc != nil {
		return m.InvalidateFunc(ctx, accountID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, accountID)
	return nil
}

// NotifiedEvent is one recorded Notify call.
type NotifiedEvent struct {
	Type    string
	Payload map[string]any
}

// MockNotifier is a mock implementation of Notifier that records events.
type MockNotifier struct {
	mu     sync.Mutex
	events []NotifiedEvent

	NotifyFunc func(eventType string, payload map[string]any)
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) Notify(eventType string, payload map[string]any) {
	if m.NotifyFunc != nil {
		m.NotifyFunc(eventType, payload)
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, NotifiedEvent{Type: eventType, Payload: payload})
}

// Events returns the recorded notifications.
func (m *MockNotifier) Events() []NotifiedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]NotifiedEvent, len(m.events))
	copy(out, m.events)
	return out
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore.
type MockIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	GetFunc func(ctx context.Context, key string) ([]byte, error)
	SetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data[key], nil
}

func (m *MockIdempotencyStore) Set(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}

// MockRetrier is a mock implementation of Retrier that runs the operation
// exactly once.
type MockRetrier struct {
	RetryFunc func(ctx context.Context, operation func() error) error
}

func NewMockRetrier() *MockRetrier {
	return &MockRetrier{}
}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	if m.RetryFunc != nil {
		return m.RetryFunc(ctx, operation)
	}
	return operation()
}
