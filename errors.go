package bankstream

import "fmt"

// InvalidArgumentError indicates that the caller is in error and passed an incorrect value.
type InvalidArgumentError string

func (i InvalidArgumentError) Error() string {
	return "bankstream: invalid argument: " + string(i)
}

// NotFoundError occurs when an account, customer or transaction cannot be resolved.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("bankstream: %s %q not found", e.Kind, e.ID)
}

// NewAccountNotFound returns the NotFoundError for an unknown account number
func NewAccountNotFound(number string) *NotFoundError {
	return &NotFoundError{Kind: "account", ID: number}
}

// NewCustomerNotFound returns the NotFoundError for an unknown customer id
func NewCustomerNotFound(id string) *NotFoundError {
	return &NotFoundError{Kind: "customer", ID: id}
}

// ValidationError carries the reason of the first transfer check that failed.
// The validator runs its checks in a fixed order, so the reason is
// deterministic for a given request.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "bankstream: transfer validation failed: " + e.Reason
}

// TransferError wraps the store failure that rejected a transfer's terminal
// write. By the time this error reaches the caller the transaction has been
// recorded as FAILED.
type TransferError struct {
	TransactionID string
	Cause         error
}

func (e *TransferError) Error() string {
	return "transfer failed: " + e.Cause.Error()
}

func (e *TransferError) Unwrap() error {
	return e.Cause
}
