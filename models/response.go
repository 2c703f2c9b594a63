package models

// ErrorResponse is the single-shot error payload every failing route returns.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
}

type SessionSummary struct {
	Method           PaymentMethod `json:"method"`
	PaymentContextID string        `json:"payment_context_id,omitempty"`
}
