package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameHTTPRequestsInFlight,
			Help: HelpTextHTTPRequestsInFlight,
		},
	)

	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameRateLimitedTotal,
			Help: HelpTextRateLimitedTotal,
		},
	)
)

// Ledger Metrics
var (
	LedgerOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameLedgerOperationsTotal,
			Help: HelpTextLedgerOperationsTotal,
		},
		[]string{LabelOperation, LabelResult},
	)

	LedgerOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameLedgerOperationDuration,
			Help:    HelpTextLedgerOperationDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelOperation},
	)

	LedgerReconcileTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameLedgerReconcileTotal,
			Help: HelpTextLedgerReconcileTotal,
		},
		[]string{LabelResult},
	)

	LedgerRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameLedgerRetriesTotal,
			Help: HelpTextLedgerRetriesTotal,
		},
		[]string{LabelBackend},
	)
)

// Business Metrics
var (
	CurrencyGranted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameCurrencyGranted,
			Help: HelpTextCurrencyGranted,
		},
		[]string{LabelCurrency},
	)

	CurrencySpent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameCurrencySpent,
			Help: HelpTextCurrencySpent,
		},
		[]string{LabelCurrency},
	)

	EntitlementsGranted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEntitlementsGranted,
			Help: HelpTextEntitlementsGranted,
		},
		[]string{LabelKind},
	)

	ItemInstancesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameItemInstancesWritten,
			Help: HelpTextItemInstancesWritten,
		},
	)
)
