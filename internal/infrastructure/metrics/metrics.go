package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Transaction metrics
	TransactionsProcessed *prometheus.CounterVec
	TransactionsFailed    *prometheus.CounterVec
	TransactionDuration   prometheus.Histogram
	TransfersCompleted    prometheus.Counter
	FraudRejections       prometheus.Counter

	// Account metrics
	AccountsCreated prometheus.Counter

	// Lock metrics
	LockAcquireDuration prometheus.Histogram
	LockTimeouts        prometheus.Counter

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Reconciliation metrics
	DriftCorrections prometheus.Counter

	// Notification metrics
	NotificationsSent    prometheus.Counter
	NotificationsDropped prometheus.Counter
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		TransactionsProcessed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paycore_transactions_processed_total",
				Help: "Total number of completed transactions by type",
			},
			[]string{"type"},
		),
		TransactionsFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paycore_transactions_failed_total",
				Help: "Total number of failed transactions by type and reason",
			},
			[]string{"type", "reason"},
		),
		TransactionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "paycore_transaction_duration_seconds",
			Help:    "Duration of transaction processing",
			Buckets: prometheus.DefBuckets,
		}),
		TransfersCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "paycore_transfers_completed_total",
			Help: "Total number of completed transfers",
		}),
		FraudRejections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "paycore_fraud_rejections_total",
			Help: "Total number of transactions rejected as suspicious",
		}),
		AccountsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "paycore_accounts_created_total",
			Help: "Total number of accounts created",
		}),
		LockAcquireDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "paycore_lock_acquire_duration_seconds",
			Help:    "Time spent acquiring account leases",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}),
		LockTimeouts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "paycore_lock_timeouts_total",
			Help: "Total number of lock acquisition timeouts",
		}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "paycore_balance_cache_hits_total",
			Help: "Total number of fresh balance cache reads",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "paycore_balance_cache_misses_total",
			Help: "Total number of stale or missing balance cache reads",
		}),
		DriftCorrections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "paycore_balance_drift_corrections_total",
			Help: "Total number of reconciliation balance corrections",
		}),
		NotificationsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "paycore_notifications_sent_total",
			Help: "Total number of notifications dispatched",
		}),
		NotificationsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "paycore_notifications_dropped_total",
			Help: "Total number of notifications dropped on full queue",
		}),
	}
}
