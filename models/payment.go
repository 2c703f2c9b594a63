package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PaymentMethod is the method a checkout session is currently using.
type PaymentMethod int

const (
	MethodNone PaymentMethod = iota
	MethodCard
	MethodContextBased
	MethodRedirectOnly
)

// Methods lists every selectable method in display order.
var Methods = []PaymentMethod{MethodCard, MethodContextBased, MethodRedirectOnly}

func (m PaymentMethod) String() string {
	switch m {
	case MethodCard:
		return "card"
	case MethodContextBased:
		return "klarna"
	case MethodRedirectOnly:
		return "ideal"
	default:
		return ""
	}
}

func (m PaymentMethod) IsValid() bool {
	return m == MethodCard || m == MethodContextBased || m == MethodRedirectOnly
}

// RequiresSetup reports whether selecting the method must start an upfront
// initialization exchange before the pay action can be used.
func (m PaymentMethod) RequiresSetup() bool {
	return m == MethodContextBased
}

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "card":
		return MethodCard, nil
	case "klarna":
		return MethodContextBased, nil
	case "ideal":
		return MethodRedirectOnly, nil
	case "":
		return MethodNone, nil
	default:
		return MethodNone, fmt.Errorf("unknown payment method %q", s)
	}
}

func (m PaymentMethod) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *PaymentMethod) UnmarshalText(text []byte) error {
	parsed, err := ParsePaymentMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// CardPaymentRequest is the body of POST /process-payment.
type CardPaymentRequest struct {
	Source CardDetails `json:"source"`
}

// CardPaymentResult is the answer of POST /process-payment.
type CardPaymentResult struct {
	ID          string  `json:"id"`
	Status      string  `json:"status"`
	RedirectURL *string `json:"redirect_url"`
}

// FinalizeRequest is the body of POST /api/payments.
type FinalizeRequest struct {
	PaymentContextID string `json:"payment_context_id"`
}

// RedirectPaymentResult is the answer of POST /api/ideal-payments.
type RedirectPaymentResult struct {
	RedirectURL string `json:"redirectUrl"`
}

// PaymentContext is the part of a processor payment context the checkout
// controller needs to drive the hosted widget.
type PaymentContext struct {
	ID              string          `json:"id"`
	PartnerMetadata PartnerMetadata `json:"partner_metadata"`
}

type PartnerMetadata struct {
	ClientToken string `json:"client_token"`
	SessionID   string `json:"session_id,omitempty"`
}

// ProcessorRecord carries a processor JSON object verbatim. ID and Status are
// extracted for local use; the body is what goes back over the wire.
type ProcessorRecord struct {
	ID     string
	Status string
	Body   json.RawMessage
}

func (r ProcessorRecord) MarshalJSON() ([]byte, error) {
	if len(r.Body) == 0 {
		return []byte("null"), nil
	}
	return r.Body, nil
}

func (r *ProcessorRecord) UnmarshalJSON(data []byte) error {
	var head struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	r.ID = head.ID
	r.Status = head.Status
	r.Body = append(json.RawMessage(nil), data...)
	return nil
}
