package checkoutcom

import "encoding/json"

// CardSource is the card branch of a payment request source.
type CardSource struct {
	Type        string `json:"type"`
	Number      string `json:"number"`
	ExpiryMonth int    `json:"expiry_month"`
	ExpiryYear  int    `json:"expiry_year"`
	CVV         string `json:"cvv"`
}

type KlarnaSource struct {
	Type          string        `json:"type"`
	AccountHolder AccountHolder `json:"account_holder"`
}

type AccountHolder struct {
	BillingAddress BillingAddress `json:"billing_address"`
}

type BillingAddress struct {
	Country string `json:"country"`
}

type IdealSource struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Language    string `json:"language"`
}

type BillingDescriptor struct {
	Name string `json:"name"`
	City string `json:"city"`
}

type ThreeDS struct {
	Enabled            bool   `json:"enabled"`
	ChallengeIndicator string `json:"challenge_indicator,omitempty"`
}

// PaymentRequest is the body of POST /payments. Source is one of the source
// types above; a payment from a context carries PaymentContextID instead.
type PaymentRequest struct {
	Source              any                `json:"source,omitempty"`
	PaymentContextID    string             `json:"payment_context_id,omitempty"`
	Amount              int64              `json:"amount,omitempty"`
	Currency            string             `json:"currency,omitempty"`
	PaymentType         string             `json:"payment_type,omitempty"`
	Reference           string             `json:"reference,omitempty"`
	ProcessingChannelID string             `json:"processing_channel_id"`
	BillingDescriptor   *BillingDescriptor `json:"billing_descriptor,omitempty"`
	ThreeDS             *ThreeDS           `json:"3ds,omitempty"`
	SuccessURL          string             `json:"success_url,omitempty"`
	FailureURL          string             `json:"failure_url,omitempty"`
}

type Item struct {
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	TotalAmount int64  `json:"total_amount"`
	Reference   string `json:"reference"`
}

type Processing struct {
	Locale string `json:"locale"`
}

// PaymentContextRequest is the body of POST /payment-contexts.
type PaymentContextRequest struct {
	Currency            string      `json:"currency"`
	Amount              int64       `json:"amount"`
	Source              any         `json:"source"`
	Items               []Item      `json:"items"`
	Processing          *Processing `json:"processing,omitempty"`
	ProcessingChannelID string      `json:"processing_channel_id"`
	SuccessURL          string      `json:"success_url,omitempty"`
	FailureURL          string      `json:"failure_url,omitempty"`
}

type Link struct {
	Href string `json:"href"`
}

// PaymentResponse holds the fields of a payment answer the orchestrator reads.
// Raw keeps the body as the processor sent it.
type PaymentResponse struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Links  map[string]Link `json:"_links"`
	Raw    json.RawMessage `json:"-"`
}

// RedirectURL returns _links.redirect.href, or "" when the link is absent.
func (p *PaymentResponse) RedirectURL() string {
	if p == nil || p.Links == nil {
		return ""
	}
	return p.Links["redirect"].Href
}

type errorBody struct {
	RequestID  string   `json:"request_id"`
	ErrorType  string   `json:"error_type"`
	ErrorCodes []string `json:"error_codes"`
}
