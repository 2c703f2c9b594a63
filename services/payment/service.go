package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"checkout-flow-api/apperr"
	"checkout-flow-api/config"
	"checkout-flow-api/logger"
	"checkout-flow-api/models"
	"checkout-flow-api/services/payment/checkoutcom"
	"checkout-flow-api/utils"
)

// Settings are the fixed inputs of every orchestrator call.
type Settings struct {
	ProcessingChannelID string
	SuccessURL          string
	FailureURL          string
	Commerce            config.CommerceConfig
}

type Service struct {
	gateway  Gateway
	settings Settings
	logger   *zap.SugaredLogger
}

var _ Orchestrator = (*Service)(nil)

func NewPaymentService(gateway Gateway, settings Settings, log *zap.SugaredLogger) *Service {
	return &Service{
		gateway:  gateway,
		settings: settings,
		logger:   log,
	}
}

// SubmitCardPayment sends the card straight to the processor.
func (s *Service) SubmitCardPayment(ctx context.Context, card models.CardDetails) (*models.CardPaymentResult, error) {
	log := logger.For(ctx, s.logger)
	c := s.settings.Commerce

	req := &checkoutcom.PaymentRequest{
		Source: checkoutcom.CardSource{
			Type:        "card",
			Number:      card.Number,
			ExpiryMonth: card.ExpiryMonth,
			ExpiryYear:  card.ExpiryYear,
			CVV:         card.CVV,
		},
		Amount:              c.CardAmount,
		Currency:            c.CardCurrency,
		PaymentType:         c.CardPaymentType,
		ProcessingChannelID: s.settings.ProcessingChannelID,
		BillingDescriptor: &checkoutcom.BillingDescriptor{
			Name: c.DescriptorName,
			City: c.DescriptorCity,
		},
		ThreeDS: &checkoutcom.ThreeDS{
			Enabled:            true,
			ChallengeIndicator: c.ChallengeIndicator,
		},
		SuccessURL: s.settings.SuccessURL,
		FailureURL: s.settings.FailureURL,
	}

	log.Infow("submitting card payment",
		"amount", utils.FormatMinorUnits(c.CardAmount, c.CardCurrency),
		"card", utils.MaskCardNumber(card.Number),
	)

	resp, err := s.gateway.RequestPayment(ctx, req)
	if err != nil {
		log.Errorw("card payment failed", "error", err)
		return nil, fmt.Errorf("payment processing failed: %w", err)
	}

	result := &models.CardPaymentResult{
		ID:     resp.ID,
		Status: resp.Status,
	}
	if href := resp.RedirectURL(); href != "" {
		result.RedirectURL = &href
	}

	log.Infow("card payment submitted", "payment_id", resp.ID, "status", resp.Status, "redirect", result.RedirectURL != nil)
	return result, nil
}

// CreatePaymentContext opens a context for the hosted widget flow and returns
// the processor's context object verbatim.
func (s *Service) CreatePaymentContext(ctx context.Context) (*models.ProcessorRecord, error) {
	log := logger.For(ctx, s.logger)
	c := s.settings.Commerce

	items := []checkoutcom.Item{
		{
			Name:        c.BasketItemName,
			Quantity:    1,
			UnitPrice:   c.BasketItemPrice,
			TotalAmount: c.BasketItemPrice,
			Reference:   c.BasketItemReference,
		},
	}

	var total int64
	for _, item := range items {
		total += item.TotalAmount
	}

	req := &checkoutcom.PaymentContextRequest{
		Currency: c.ContextCurrency,
		Amount:   total,
		Source: checkoutcom.KlarnaSource{
			Type: "klarna",
			AccountHolder: checkoutcom.AccountHolder{
				BillingAddress: checkoutcom.BillingAddress{Country: c.ContextCountry},
			},
		},
		Items:               items,
		Processing:          &checkoutcom.Processing{Locale: c.ContextLocale},
		ProcessingChannelID: s.settings.ProcessingChannelID,
		SuccessURL:          s.settings.SuccessURL,
		FailureURL:          s.settings.FailureURL,
	}

	raw, err := s.gateway.CreatePaymentContext(ctx, req)
	if err != nil {
		log.Errorw("error creating payment context", "error", err)
		return nil, fmt.Errorf("failed to create payment context: %w", err)
	}

	var record models.ProcessorRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("failed to create payment context: error decoding response: %w", err)
	}

	log.Infow("payment context created", "payment_context_id", record.ID, "amount", utils.FormatMinorUnits(total, c.ContextCurrency))
	return &record, nil
}

// FinalizePayment turns a payment context into a payment and returns the
// payment's detail record.
//
// This is two stages. Stage one creates the payment at the processor, stage
// two fetches its details. Nothing is rolled back: when stage two fails the
// payment still exists and the error is an *apperr.IndeterminateError.
func (s *Service) FinalizePayment(ctx context.Context, contextID string) (*models.ProcessorRecord, error) {
	log := logger.For(ctx, s.logger)

	contextID = strings.TrimSpace(contextID)
	if contextID == "" {
		return nil, fmt.Errorf("failed to process payment: %w", apperr.ErrContextIDRequired)
	}

	created, err := s.gateway.RequestPayment(ctx, &checkoutcom.PaymentRequest{
		PaymentContextID:    contextID,
		ProcessingChannelID: s.settings.ProcessingChannelID,
	})
	if err != nil {
		log.Errorw("payment from context failed", "payment_context_id", contextID, "error", err)
		return nil, fmt.Errorf("failed to process payment: %w", err)
	}
	if created.ID == "" {
		return nil, fmt.Errorf("failed to process payment: %w", apperr.ErrMissingPaymentID)
	}

	raw, err := s.gateway.GetPaymentDetails(ctx, created.ID)
	if err != nil {
		log.Warnw("payment created but details lookup failed",
			"payment_context_id", contextID,
			"payment_id", created.ID,
			"error", err,
		)
		return nil, fmt.Errorf("failed to process payment: %w", &apperr.IndeterminateError{PaymentID: created.ID, Err: err})
	}

	var record models.ProcessorRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("failed to process payment: %w", &apperr.IndeterminateError{PaymentID: created.ID, Err: err})
	}

	log.Infow("payment finalized", "payment_context_id", contextID, "payment_id", record.ID, "status", record.Status)
	return &record, nil
}

// CreateRedirectPayment asks the processor for a bank redirect. The answer must
// carry a redirect link.
func (s *Service) CreateRedirectPayment(ctx context.Context) (*models.RedirectPaymentResult, error) {
	log := logger.For(ctx, s.logger)
	c := s.settings.Commerce

	req := &checkoutcom.PaymentRequest{
		Source: checkoutcom.IdealSource{
			Type:        "ideal",
			Description: c.RedirectDescription,
			Language:    c.RedirectLanguage,
		},
		Amount:              c.RedirectAmount,
		Currency:            c.RedirectCurrency,
		Reference:           c.RedirectReferencePrefix + strings.ReplaceAll(uuid.New().String(), "-", "")[:8],
		ProcessingChannelID: s.settings.ProcessingChannelID,
		SuccessURL:          s.settings.SuccessURL,
		FailureURL:          s.settings.FailureURL,
	}

	resp, err := s.gateway.RequestPayment(ctx, req)
	if err != nil {
		log.Errorw("error processing redirect payment", "error", err)
		return nil, fmt.Errorf("failed to process redirect payment: %w", err)
	}

	href := resp.RedirectURL()
	if href == "" {
		log.Errorw("redirect payment response has no redirect link", "payment_id", resp.ID)
		return nil, fmt.Errorf("failed to process redirect payment: %w", apperr.ErrRedirectNotFound)
	}

	log.Infow("redirect payment created",
		"payment_id", resp.ID,
		"reference", req.Reference,
		"amount", utils.FormatMinorUnits(req.Amount, req.Currency),
	)
	return &models.RedirectPaymentResult{RedirectURL: href}, nil
}
