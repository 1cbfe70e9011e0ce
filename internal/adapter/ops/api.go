package ops

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/finbase/paycore/internal/domain"
	"github.com/finbase/paycore/internal/usecase"
)

// apiHandlers serves the backoffice transaction API under /v1.
type apiHandlers struct {
	registry  *usecase.Registry
	processor *usecase.Processor
	converter *usecase.Converter
	txRepo    usecase.TransactionRepository
}

type createAccountRequest struct {
	OwnerID         string            `json:"owner_id"`
	Type            string            `json:"type"`
	Currency        string            `json:"currency"`
	OpeningBalance  string            `json:"opening_balance,omitempty"`
	DailyLimit      string            `json:"daily_limit,omitempty"`
	MonthlyLimit    string            `json:"monthly_limit,omitempty"`
	ParentAccountID *string           `json:"parent_account_id,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

func (h *apiHandlers) createAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	opening, err := parseAmount(req.OpeningBalance)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid opening balance", err.Error())
		return
	}
	daily, err := parseAmount(req.DailyLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid daily limit", err.Error())
		return
	}
	monthly, err := parseAmount(req.MonthlyLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid monthly limit", err.Error())
		return
	}

	account, err := h.registry.CreateAccount(r.Context(), usecase.CreateAccountInput{
		OwnerID:         req.OwnerID,
		Type:            domain.AccountType(req.Type),
		Currency:        req.Currency,
		OpeningBalance:  opening,
		DailyLimit:      daily,
		MonthlyLimit:    monthly,
		ParentAccountID: req.ParentAccountID,
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create account", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, account)
}

func (h *apiHandlers) getAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ownerID := r.URL.Query().Get("owner_id")

	account, err := h.registry.GetAccount(r.Context(), id, ownerID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get account", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, account)
}

func (h *apiHandlers) closeAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ownerID := r.URL.Query().Get("owner_id")

	if err := h.registry.CloseAccount(r.Context(), id, ownerID); err != nil {
		writeError(w, mapDomainError(err), "failed to close account", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

func (h *apiHandlers) listTransactions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	transactions, err := h.txRepo.ListByAccount(r.Context(), id, limit, offset)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list transactions", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, transactions)
}

type processTransactionRequest struct {
	AccountID      string            `json:"account_id"`
	Type           string            `json:"type"`
	Amount         string            `json:"amount"`
	Description    string            `json:"description,omitempty"`
	IdempotencyKey *string           `json:"idempotency_key,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	Country        string            `json:"country,omitempty"`
}

func (h *apiHandlers) processTransaction(w http.ResponseWriter, r *http.Request) {
	var req processTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount", err.Error())
		return
	}

	transaction, err := h.processor.Process(r.Context(), usecase.ProcessInput{
		AccountID:      req.AccountID,
		Type:           domain.TransactionType(req.Type),
		Amount:         amount,
		Description:    req.Description,
		IdempotencyKey: req.IdempotencyKey,
		Metadata:       req.Metadata,
		Context: domain.TransactionContext{
			Country: req.Country,
			Now:     time.Now().UTC(),
		},
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to process transaction", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, transaction)
}

type transferRequest struct {
	SourceAccountID      string            `json:"source_account_id"`
	DestinationAccountID string            `json:"destination_account_id"`
	Amount               string            `json:"amount"`
	Description          string            `json:"description,omitempty"`
	IdempotencyKey       *string           `json:"idempotency_key,omitempty"`
	ExchangeRate         *string           `json:"exchange_rate,omitempty"`
	Metadata             map[string]string `json:"metadata,omitempty"`
	Country              string            `json:"country,omitempty"`
}

func (h *apiHandlers) transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount", err.Error())
		return
	}

	var rate *decimal.Decimal
	if req.ExchangeRate != nil {
		parsed, err := decimal.NewFromString(*req.ExchangeRate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid exchange rate", err.Error())
			return
		}
		rate = &parsed
	}

	result, err := h.processor.Transfer(r.Context(), usecase.TransferInput{
		SourceAccountID:      req.SourceAccountID,
		DestinationAccountID: req.DestinationAccountID,
		Amount:               amount,
		Description:          req.Description,
		IdempotencyKey:       req.IdempotencyKey,
		ExchangeRate:         rate,
		Metadata:             req.Metadata,
		Context: domain.TransactionContext{
			Country: req.Country,
			Now:     time.Now().UTC(),
		},
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to transfer", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

type reverseRequest struct {
	Description string `json:"description,omitempty"`
}

func (h *apiHandlers) reverseTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req reverseRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
	}

	compensating, err := h.processor.Reverse(r.Context(), id, req.Description)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to reverse transaction", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, compensating)
}

type blockFundsRequest struct {
	Amount string `json:"amount"`
}

func (h *apiHandlers) blockFunds(w http.ResponseWriter, r *http.Request) {
	h.adjustBlocked(w, r, h.processor.BlockFunds, "blocked")
}

func (h *apiHandlers) unblockFunds(w http.ResponseWriter, r *http.Request) {
	h.adjustBlocked(w, r, h.processor.UnblockFunds, "unblocked")
}

func (h *apiHandlers) adjustBlocked(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, accountID string, amount decimal.Decimal) error, status string) {
	id := chi.URLParam(r, "id")

	var req blockFundsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount", err.Error())
		return
	}

	if err := apply(r.Context(), id, amount); err != nil {
		writeError(w, mapDomainError(err), "failed to adjust blocked funds", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func (h *apiHandlers) getRate(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")

	rate, err := h.converter.GetRate(r.Context(), from, to)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to resolve rate", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"from": from,
		"to":   to,
		"rate": rate.String(),
	})
}

// parseAmount parses an optional decimal field, empty meaning zero.
func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}
