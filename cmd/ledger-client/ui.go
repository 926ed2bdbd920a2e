package main

import (
	"fmt"
	"sort"

	"github.com/osse101/playerledger/internal/backend"
	"github.com/osse101/playerledger/internal/domain"
)

const (
	colorGreen  = "\033[0;32m"
	colorRed    = "\033[0;31m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
	colorReset  = "\033[0m"
)

func PrintInfo(format string, a ...interface{}) {
	fmt.Printf(colorBlue+"ℹ "+format+colorReset+"\n", a...)
}

func PrintSuccess(format string, a ...interface{}) {
	fmt.Printf(colorGreen+"✓ "+format+colorReset+"\n", a...)
}

func PrintWarning(format string, a ...interface{}) {
	fmt.Printf(colorYellow+"⚠ "+format+colorReset+"\n", a...)
}

func PrintError(format string, a ...interface{}) {
	fmt.Printf(colorRed+"✗ "+format+colorReset+"\n", a...)
}

func PrintHeader(title string) {
	fmt.Printf("\n"+colorYellow+"=== %s ==="+colorReset+"\n", title)
}

// printBalances prints balances sorted by currency.
func printBalances(balances map[string]int64) {
	currencies := make([]string, 0, len(balances))
	for c := range balances {
		currencies = append(currencies, c)
	}
	sort.Strings(currencies)
	for _, c := range currencies {
		fmt.Printf("  %-10s %d\n", c, balances[c])
	}
}

// printResult reports a committed operation.
func printResult(op string, res *backend.Result) {
	PrintSuccess("%s committed", op)
	for _, e := range res.Changes.Entitlements {
		fmt.Printf("  + %s %s\n", e.Kind, e.TemplateID)
	}
	for _, it := range res.Changes.Items {
		fmt.Printf("  + item %s (%s)\n", it.TemplateID, it.UniqueID)
	}
	printBalances(res.Balances)
}

// printFailure reports a failed operation with its kind and reason code.
func printFailure(op string, err error) {
	PrintError("%s failed: %s (%s)", op, domain.ReasonOf(err), domain.KindOf(err))
	if domain.IsRetryable(err) {
		PrintWarning("transport failure; the operation can be retried")
	}
}
