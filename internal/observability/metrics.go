package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	httpDurationHistogram  *prometheus.HistogramVec
	ledgerImbalanceCounter *prometheus.CounterVec
	idempotencyCounter     *prometheus.CounterVec
	approvalCounter        *prometheus.CounterVec
	transferCounter        *prometheus.CounterVec
	notificationCounter    *prometheus.CounterVec
	workerRunCounter       *prometheus.CounterVec
)

// Init registers all Prometheus collectors.
func Init() {
	registerOnce.Do(func() {
		httpDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"})

		ledgerImbalanceCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_imbalance_total",
			Help: "Number of times reconciliation found balances diverging from the transaction log",
		}, []string{"currency"})

		idempotencyCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idempotency_events_total",
			Help: "Idempotency middleware outcomes",
		}, []string{"outcome"})

		approvalCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "approval_transitions_total",
			Help: "Approval request resolutions by kind and outcome",
		}, []string{"kind", "outcome"})

		transferCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "transfer_transitions_total",
			Help: "Transfer lifecycle transitions",
		}, []string{"outcome"})

		notificationCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_events_total",
			Help: "In-app notification pipeline outcomes",
		}, []string{"outcome"})

		workerRunCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_runs_total",
			Help: "Background worker run outcomes",
		}, []string{"worker", "result"})

		prometheus.MustRegister(
			httpDurationHistogram,
			ledgerImbalanceCounter,
			idempotencyCounter,
			approvalCounter,
			transferCounter,
			notificationCounter,
			workerRunCounter,
		)
	})
}

func ObserveHTTP(method, path string, status int, duration time.Duration) {
	if httpDurationHistogram == nil {
		return
	}
	httpDurationHistogram.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

func IncrementLedgerImbalance(currency string) {
	if ledgerImbalanceCounter == nil {
		return
	}
	ledgerImbalanceCounter.WithLabelValues(currency).Inc()
}

func IncrementIdempotencyEvent(outcome string) {
	if idempotencyCounter == nil {
		return
	}
	idempotencyCounter.WithLabelValues(outcome).Inc()
}

func IncrementApprovalTransition(kind, outcome string) {
	if approvalCounter == nil {
		return
	}
	approvalCounter.WithLabelValues(kind, outcome).Inc()
}

func IncrementTransferTransition(outcome string) {
	if transferCounter == nil {
		return
	}
	transferCounter.WithLabelValues(outcome).Inc()
}

func IncrementNotification(outcome string) {
	if notificationCounter == nil {
		return
	}
	notificationCounter.WithLabelValues(outcome).Inc()
}

func IncrementWorkerRun(worker, result string) {
	if workerRunCounter == nil {
		return
	}
	workerRunCounter.WithLabelValues(worker, result).Inc()
}
