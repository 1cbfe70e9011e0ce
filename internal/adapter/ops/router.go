// Package ops exposes the service's HTTP surface: health probes,
// Prometheus metrics, reconciliation triggers, and the backoffice
// transaction API under /v1.
package ops

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/finbase/paycore/internal/domain"
	"github.com/finbase/paycore/internal/usecase"
)

// Pinger reports backend connectivity for readiness checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger.
type PingerFunc func(ctx context.Context) error

// Ping calls f.
func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// RouterConfig holds dependencies for the HTTP router.
type RouterConfig struct {
	AccountRepo     usecase.AccountRepository
	TransactionRepo usecase.TransactionRepository
	Registry        *usecase.Registry
	Processor       *usecase.Processor
	Converter       *usecase.Converter
	Reconciler      *usecase.Reconciler
	Postgres        Pinger
	Redis           Pinger
	Logger          zerolog.Logger
}

// NewRouter creates the HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	h := &handlers{
		accountRepo: cfg.AccountRepo,
		reconciler:  cfg.Reconciler,
		postgres:    cfg.Postgres,
		redis:       cfg.Redis,
		logger:      cfg.Logger,
	}
	api := &apiHandlers{
		registry:  cfg.Registry,
		processor: cfg.Processor,
		converter: cfg.Converter,
		txRepo:    cfg.TransactionRepo,
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", h.liveness)
	r.Get("/readyz", h.readiness)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/ops", func(r chi.Router) {
		r.Post("/reconcile", h.reconcileAll)
		r.Post("/reconcile/{id}", h.reconcileOne)
		r.Get("/accounts/{id}", h.getAccount)
		r.Get("/accounts/{id}/balance", h.getBalance)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/accounts", api.createAccount)
		r.Get("/accounts/{id}", api.getAccount)
		r.Delete("/accounts/{id}", api.closeAccount)
		r.Get("/accounts/{id}/transactions", api.listTransactions)
		r.Post("/accounts/{id}/block", api.blockFunds)
		r.Post("/accounts/{id}/unblock", api.unblockFunds)
		r.Post("/transactions", api.processTransaction)
		r.Post("/transactions/{id}/reverse", api.reverseTransaction)
		r.Post("/transfers", api.transfer)
		r.Get("/rates", api.getRate)
	})

	return r
}

type handlers struct {
	accountRepo usecase.AccountRepository
	reconciler  *usecase.Reconciler
	postgres    Pinger
	redis       Pinger
	logger      zerolog.Logger
}

func (h *handlers) liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.postgres.Ping(ctx); err != nil {
		writeError(w, http.StatusServiceUnavailable, "postgres unhealthy", err.Error())
		return
	}

	if err := h.redis.Ping(ctx); err != nil {
		writeError(w, http.StatusServiceUnavailable, "redis unhealthy", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ready",
		"postgres": "ok",
		"redis":    "ok",
	})
}

// reconcileAll sweeps every account once. Runs synchronously; the caller is
// an operator or the CLI, not a latency-sensitive client.
func (h *handlers) reconcileAll(w http.ResponseWriter, r *http.Request) {
	if err := h.reconciler.Sweep(r.Context()); err != nil {
		h.logger.Error().Err(err).Msg("on-demand reconciliation sweep failed")
		writeError(w, http.StatusInternalServerError, "sweep failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "reconciled"})
}

func (h *handlers) reconcileOne(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	canonical, err := h.reconciler.Recompute(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "recompute failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"account_id": id,
		"balance":    canonical.String(),
	})
}

func (h *handlers) getAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	account, err := h.accountRepo.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "account lookup failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, account)
}

func (h *handlers) getBalance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	snapshot, err := h.reconciler.GetBalance(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "balance lookup failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

// errorResponse is the ops error payload.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, errorResponse{
		Error:   message,
		Message: details,
	})
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrLockTimeout):
		return http.StatusConflict
	case domain.IsValidationError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
