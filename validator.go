package bankstream

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ValidateTransfer runs the transfer checks in their fixed order and
// returns the ValidationError of the first check that fails. The order is
// part of the contract: callers rely on which reason they see when several
// checks would fail. All checks are side effect free.
func ValidateTransfer(from, to *Account, amount decimal.Decimal, currency Currency) error {
	if strings.TrimSpace(string(currency)) == "" {
		return &ValidationError{Reason: "currency is required and cannot be empty"}
	}

	if from.Currency != currency {
		return &ValidationError{Reason: fmt.Sprintf(
			"source account currency mismatch: expected %s but request currency is %s",
			from.Currency, currency,
		)}
	}

	if to.Currency != currency {
		return &ValidationError{Reason: fmt.Sprintf(
			"destination account currency mismatch: expected %s but request currency is %s",
			to.Currency, currency,
		)}
	}

	if from.Status != AccountActive {
		return &ValidationError{Reason: "source account is not active"}
	}

	if to.Status != AccountActive {
		return &ValidationError{Reason: "destination account is not active"}
	}

	if from.Currency != to.Currency {
		return &ValidationError{Reason: fmt.Sprintf(
			"currency mismatch: source account currency is %s but destination account currency is %s, cross-currency transfers are not supported",
			from.Currency.DisplayName(), to.Currency.DisplayName(),
		)}
	}

	if from.Balance.LessThan(amount) {
		return &ValidationError{Reason: "insufficient balance"}
	}

	if from.AccountNumber == to.AccountNumber {
		return &ValidationError{Reason: "cannot transfer to the same account"}
	}

	return nil
}
