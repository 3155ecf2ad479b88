package analysis

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/quantabank/bankstream"
)

// Severity of a raised flag
type Severity string

const (
	// SeverityWarning marks an anomaly worth reviewing
	SeverityWarning Severity = "warning"
	// SeverityCritical marks an anomaly requiring escalation
	SeverityCritical Severity = "critical"
)

type (
	// Flag is a single anomaly raised against one event
	Flag struct {
		Rule     string
		Severity Severity
		Message  string
	}

	// Rule is a stateless predicate over a single event's fields. Rules are
	// independent: any number of them can fire for the same event.
	Rule struct {
		Name     string
		Severity Severity

		// Check returns a human readable description when the rule fires
		Check func(event *bankstream.TransactionEvent) (string, bool)
	}
)

// Thresholds are fixed configuration, never mutable process state.
var (
	largeTransactionThreshold     = decimal.NewFromInt(10000)
	suspiciousAmountThreshold     = decimal.NewFromInt(50000)
	businessToIndividualThreshold = decimal.NewFromInt(5000)
	roundAmountStep               = decimal.NewFromInt(1000)
	roundAmountThreshold          = decimal.NewFromInt(5000)
)

// DefaultRules returns the rule set evaluated against every event
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:     "large_transaction",
			Severity: SeverityWarning,
			Check: func(event *bankstream.TransactionEvent) (string, bool) {
				if event.Amount.GreaterThanOrEqual(largeTransactionThreshold) {
					return fmt.Sprintf("large transaction detected: %s %s", event.Amount, event.Currency), true
				}
				return "", false
			},
		},
		{
			Name:     "high_risk_large_amount",
			Severity: SeverityCritical,
			Check: func(event *bankstream.TransactionEvent) (string, bool) {
				if event.Amount.GreaterThanOrEqual(suspiciousAmountThreshold) {
					return fmt.Sprintf("suspicious large amount: %s %s", event.Amount, event.Currency), true
				}
				return "", false
			},
		},
		{
			// Should never fire if the transfer engine holds its
			// invariants; firing indicates an upstream bug, not a business
			// anomaly.
			Name:     "negative_balance_after_transfer",
			Severity: SeverityWarning,
			Check: func(event *bankstream.TransactionEvent) (string, bool) {
				if event.FromAccount.BalanceAfter.IsNegative() {
					return fmt.Sprintf(
						"account %s has balance %s after transfer",
						event.FromAccount.ID, event.FromAccount.BalanceAfter,
					), true
				}
				return "", false
			},
		},
		{
			Name:     "large_business_to_individual_transfer",
			Severity: SeverityWarning,
			Check: func(event *bankstream.TransactionEvent) (string, bool) {
				if event.FromAccount.Customer.Type == string(bankstream.CategoryBusiness) &&
					event.ToAccount.Customer.Type == string(bankstream.CategoryIndividual) &&
					event.Amount.GreaterThanOrEqual(businessToIndividualThreshold) {
					return fmt.Sprintf("large business-to-individual transfer: %s %s", event.Amount, event.Currency), true
				}
				return "", false
			},
		},
		{
			Name:     "round_number_structuring",
			Severity: SeverityWarning,
			Check: func(event *bankstream.TransactionEvent) (string, bool) {
				if event.Amount.Mod(roundAmountStep).IsZero() &&
					event.Amount.GreaterThanOrEqual(roundAmountThreshold) {
					return fmt.Sprintf("round number large transaction, potential structuring: %s %s", event.Amount, event.Currency), true
				}
				return "", false
			},
		},
	}
}
