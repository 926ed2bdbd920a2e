package metrics

// ============================================================================
// Metric Names
// ============================================================================

// HTTP metric names
const (
	MetricNameHTTPRequestsTotal    = "http_requests_total"
	MetricNameHTTPRequestDuration  = "http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "http_requests_in_flight"
	MetricNameRateLimitedTotal     = "http_rate_limited_total"
)

// Ledger metric names
const (
	MetricNameLedgerOperationsTotal   = "ledger_operations_total"
	MetricNameLedgerOperationDuration = "ledger_operation_duration_seconds"
	MetricNameLedgerRetriesTotal      = "ledger_retries_total"
	MetricNameLedgerReconcileTotal    = "ledger_reconcile_total"
)

// Business metric names
const (
	MetricNameCurrencyGranted      = "ledger_currency_granted_total"
	MetricNameCurrencySpent        = "ledger_currency_spent_total"
	MetricNameEntitlementsGranted  = "ledger_entitlements_granted_total"
	MetricNameItemInstancesWritten = "ledger_item_instances_written_total"
)

// ============================================================================
// Metric Help Text
// ============================================================================

// HTTP metric help text
const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Current number of HTTP requests being served"
	HelpTextRateLimitedTotal     = "Total number of requests rejected by the rate limiter"
)

// Ledger metric help text
const (
	HelpTextLedgerOperationsTotal   = "Total number of ledger operations by result"
	HelpTextLedgerOperationDuration = "Ledger operation latency in seconds"
	HelpTextLedgerRetriesTotal      = "Total number of retried ledger transactions"
	HelpTextLedgerReconcileTotal    = "Total number of account reconciliations by result"
)

// Business metric help text
const (
	HelpTextCurrencyGranted      = "Total currency granted"
	HelpTextCurrencySpent        = "Total currency spent"
	HelpTextEntitlementsGranted  = "Total number of entitlements granted"
	HelpTextItemInstancesWritten = "Total number of item instances created or upgraded"
)

// ============================================================================
// Label Names
// ============================================================================

const (
	LabelMethod    = "method"
	LabelPath      = "path"
	LabelStatus    = "status"
	LabelOperation = "operation"
	LabelResult    = "result"
	LabelBackend   = "backend"
	LabelCurrency  = "currency"
	LabelKind      = "kind"
)

// ResultSuccess is the result label of a successful operation
const ResultSuccess = "success"

// Reconciliation results
const (
	ReconcileOnline  = "online"
	ReconcileOffline = "offline"
	ReconcileFailed  = "failed"
)

// UnmatchedRoute is the path label of requests no route matched
const UnmatchedRoute = "unmatched"

// ============================================================================
// Histogram Buckets
// ============================================================================

// HTTPLatencyBuckets defines latency buckets in seconds
var HTTPLatencyBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}
