package metrics

import (
	"time"

	"github.com/osse101/playerledger/internal/domain"
)

// ObserveOperation records the result and latency of one ledger operation.
func ObserveOperation(op string, start time.Time, err error) {
	result := ResultSuccess
	if err != nil {
		result = string(domain.ReasonOf(err))
	}
	LedgerOperationsTotal.WithLabelValues(op, result).Inc()
	LedgerOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// ObserveChanges records the business counters of a committed delta.
func ObserveChanges(c domain.Changes) {
	for currency, delta := range c.BalanceDeltas {
		switch {
		case delta > 0:
			CurrencyGranted.WithLabelValues(currency).Add(float64(delta))
		case delta < 0:
			CurrencySpent.WithLabelValues(currency).Add(float64(-delta))
		}
	}
	for _, e := range c.Entitlements {
		EntitlementsGranted.WithLabelValues(string(e.Kind)).Inc()
	}
	if n := len(c.Items); n > 0 {
		ItemInstancesWritten.Add(float64(n))
	}
}
