package models

import (
	"encoding/json"
	"strings"
)

type OutcomeStatus int

const (
	OutcomeError OutcomeStatus = iota
	OutcomeApproved
	OutcomePending
	OutcomeDeclined
)

func (s OutcomeStatus) String() string {
	switch s {
	case OutcomeApproved:
		return "approved"
	case OutcomePending:
		return "pending"
	case OutcomeDeclined:
		return "declined"
	default:
		return "error"
	}
}

// Succeeded reports whether the attempt may navigate to the success page.
func (s OutcomeStatus) Succeeded() bool {
	return s == OutcomeApproved || s == OutcomePending
}

// NormalizeStatus maps a processor payment status onto an OutcomeStatus.
func NormalizeStatus(processorStatus string) OutcomeStatus {
	switch strings.ToLower(strings.TrimSpace(processorStatus)) {
	case "authorized", "captured", "card verified", "paid", "partially captured":
		return OutcomeApproved
	case "pending":
		return OutcomePending
	case "declined", "canceled", "cancelled", "expired", "voided":
		return OutcomeDeclined
	default:
		return OutcomeError
	}
}

// PaymentOutcome is the normalized result of one completed attempt. Exactly
// one of a terminal Status, a RedirectURL or an error Message drives the next
// UI action.
type PaymentOutcome struct {
	Status      OutcomeStatus
	RedirectURL string
	Message     string
}

// OutcomeFromCardResult normalizes the answer of a card submission.
func OutcomeFromCardResult(res *CardPaymentResult) PaymentOutcome {
	if res == nil {
		return PaymentOutcome{Status: OutcomeError, Message: "Payment failed"}
	}
	if res.RedirectURL != nil && *res.RedirectURL != "" {
		return PaymentOutcome{Status: OutcomePending, RedirectURL: *res.RedirectURL}
	}

	status := NormalizeStatus(res.Status)
	switch status {
	case OutcomeDeclined:
		return PaymentOutcome{Status: status, Message: "Payment declined"}
	case OutcomeError:
		return PaymentOutcome{Status: status, Message: "Payment failed with status " + res.Status}
	default:
		return PaymentOutcome{Status: status}
	}
}

// OutcomeFromRecord normalizes a processor payment-detail record.
func OutcomeFromRecord(rec *ProcessorRecord) PaymentOutcome {
	if rec == nil {
		return PaymentOutcome{Status: OutcomeError, Message: "Payment not authorized"}
	}

	var approved struct {
		Approved bool `json:"approved"`
	}
	if len(rec.Body) > 0 {
		_ = json.Unmarshal(rec.Body, &approved)
	}

	status := NormalizeStatus(rec.Status)
	if approved.Approved && status == OutcomeError {
		status = OutcomeApproved
	}
	if !status.Succeeded() {
		return PaymentOutcome{Status: status, Message: "Payment not authorized"}
	}
	return PaymentOutcome{Status: status}
}
