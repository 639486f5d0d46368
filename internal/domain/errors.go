package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// InvalidPaymentRequestError signals a validation failure on the inbound
// request. It is never retried.
type InvalidPaymentRequestError struct {
	Field  string
	Reason string
	Amount decimal.Decimal
}

func (e *InvalidPaymentRequestError) Error() string {
	if e.Field == "amount" {
		return fmt.Sprintf("invalid payment request: %s (amount=%s)", e.Reason, e.Amount)
	}
	return fmt.Sprintf("invalid payment request: field %s: %s", e.Field, e.Reason)
}

// InvalidDueDateError signals a boleto due date outside the encodable range.
type InvalidDueDateError struct {
	DueDate time.Time
	Reason  string
}

func (e *InvalidDueDateError) Error() string {
	return fmt.Sprintf("invalid due date %s: %s", e.DueDate.Format("2006-01-02"), e.Reason)
}

// InvalidInputError signals a contract violation on a pure encoding
// function, such as non-numeric input to a check digit routine.
type InvalidInputError struct {
	Input  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input %q: %s", e.Input, e.Reason)
}

// GatewayUnavailableError is returned when the settlement gateway could not
// be reached: the circuit is open or all retries were exhausted. The locally
// generated code is still valid and the record stays PENDING.
type GatewayUnavailableError struct {
	Operation    string
	InstrumentID string
	Err          error
}

func (e *GatewayUnavailableError) Error() string {
	return fmt.Sprintf("gateway unavailable for %s (instrument %s): %v", e.Operation, e.InstrumentID, e.Err)
}

func (e *GatewayUnavailableError) Unwrap() error { return e.Err }

// UnsupportedOperationError is returned for operations the engine does not
// perform, such as refunds on either instrument kind.
type UnsupportedOperationError struct {
	Operation    string
	InstrumentID string
	Reason       string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("%s not supported for instrument %s: %s", e.Operation, e.InstrumentID, e.Reason)
}

// NotFoundError is returned on a status query for an unknown instrument id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("payment instrument not found: %s", e.ID)
}
