package payment

import (
	"context"
	"encoding/json"

	"checkout-flow-api/models"
	"checkout-flow-api/services/payment/checkoutcom"
)

// Gateway is the processor API the orchestrator drives.
type Gateway interface {
	RequestPayment(ctx context.Context, req *checkoutcom.PaymentRequest) (*checkoutcom.PaymentResponse, error)
	CreatePaymentContext(ctx context.Context, req *checkoutcom.PaymentContextRequest) (json.RawMessage, error)
	GetPaymentDetails(ctx context.Context, paymentID string) (json.RawMessage, error)
}

// Orchestrator is what the HTTP handlers need from the payment service.
type Orchestrator interface {
	SubmitCardPayment(ctx context.Context, card models.CardDetails) (*models.CardPaymentResult, error)
	CreatePaymentContext(ctx context.Context) (*models.ProcessorRecord, error)
	FinalizePayment(ctx context.Context, contextID string) (*models.ProcessorRecord, error)
	CreateRedirectPayment(ctx context.Context) (*models.RedirectPaymentResult, error)
}
