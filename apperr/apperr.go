// Package apperr holds the error taxonomy shared by the gateway client, the
// payment orchestrator and the checkout controller.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

type Kind string

const (
	KindNone          Kind = ""
	KindValidation    Kind = "validation"
	KindTransport     Kind = "transport"
	KindProcessor     Kind = "processor"
	KindIntegration   Kind = "integration"
	KindIndeterminate Kind = "indeterminate"
	KindInternal      Kind = "internal"
)

var (
	ErrContextIDRequired = &IntegrationError{Message: "payment context ID is required"}
	ErrRedirectNotFound  = &IntegrationError{Message: "redirect URL not found in redirect payment response"}
	ErrMissingPaymentID  = &IntegrationError{Message: "payment ID not found in processor response"}
)

// ValidationError is raised on the client before anything reaches the network.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// TransportError wraps a connectivity failure talking to the processor.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProcessorError is a structured non-2xx answer from the processor.
type ProcessorError struct {
	StatusCode int
	RequestID  string
	ErrorType  string
	ErrorCodes []string
}

// Error reads like "request failed with status code 422: request_invalid
// [payment_context_expired]". Type and codes are omitted when absent.
func (e *ProcessorError) Error() string {
	msg := fmt.Sprintf("request failed with status code %d", e.StatusCode)
	if e.ErrorType != "" {
		msg += ": " + e.ErrorType
	}
	if len(e.ErrorCodes) > 0 {
		msg += " [" + strings.Join(e.ErrorCodes, ", ") + "]"
	}
	return msg
}

// FirstCode returns the first processor error code, or "" when none was sent.
func (e *ProcessorError) FirstCode() string {
	if len(e.ErrorCodes) == 0 {
		return ""
	}
	return e.ErrorCodes[0]
}

// IntegrationError marks a field missing from an otherwise successful exchange.
type IntegrationError struct {
	Message string
}

func (e *IntegrationError) Error() string { return e.Message }

// IndeterminateError is returned when the first stage of a two-stage exchange
// succeeded at the processor but a later stage failed. The payment exists on
// the processor side and must not be treated as cleanly failed.
type IndeterminateError struct {
	PaymentID string
	Err       error
}

func (e *IndeterminateError) Error() string {
	return fmt.Sprintf("payment %s was created but its details could not be fetched: %v", e.PaymentID, e.Err)
}

func (e *IndeterminateError) Unwrap() error { return e.Err }

func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}

	var (
		validationErr    *ValidationError
		transportErr     *TransportError
		processorErr     *ProcessorError
		integrationErr   *IntegrationError
		indeterminateErr *IndeterminateError
	)

	// Indeterminate wraps the underlying cause, so it is checked first.
	switch {
	case errors.As(err, &indeterminateErr):
		return KindIndeterminate
	case errors.As(err, &validationErr):
		return KindValidation
	case errors.As(err, &processorErr):
		return KindProcessor
	case errors.As(err, &transportErr):
		return KindTransport
	case errors.As(err, &integrationErr):
		return KindIntegration
	default:
		return KindInternal
	}
}

// AsProcessor unwraps err to a *ProcessorError when one is in the chain.
func AsProcessor(err error) (*ProcessorError, bool) {
	var processorErr *ProcessorError
	if errors.As(err, &processorErr) {
		return processorErr, true
	}
	return nil, false
}
