package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"checkout-flow-api/apperr"
	"checkout-flow-api/logger"
	"checkout-flow-api/models"
	"checkout-flow-api/services/payment"
	"checkout-flow-api/utils"
)

const (
	errPaymentProcessing = "Payment processing failed"
	errCreateContext     = "Failed to create payment context"
	errProcessPayment    = "Failed to process payment"
	errRedirectPayment   = "Failed to process redirect payment"
)

type PaymentHandler struct {
	service  payment.Orchestrator
	sessions *CheckoutSessions
	logger   *zap.SugaredLogger
}

func NewPaymentHandler(service payment.Orchestrator, sessions *CheckoutSessions, log *zap.SugaredLogger) (*PaymentHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("payment service is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("checkout sessions are required")
	}
	return &PaymentHandler{service: service, sessions: sessions, logger: log}, nil
}

// ProcessPayment handles POST /process-payment.
func (h *PaymentHandler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	log := logger.For(r.Context(), h.logger)

	var req models.CardPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warnw("invalid card payment body", "error", err)
		utils.SendErrorResponse(w, models.ErrorResponse{
			Error:   errPaymentProcessing,
			Message: fmt.Sprintf("Invalid request body: %v", err),
		})
		return
	}

	h.sessions.Select(w, r, models.MethodCard)

	result, err := h.service.SubmitCardPayment(r.Context(), req.Source)
	if err != nil {
		utils.SendErrorResponse(w, cardPaymentError(err))
		return
	}

	utils.SendSuccessResponse(w, result)
}

// cardPaymentError prefers the processor's own error type and first error code
// over the generic text.
func cardPaymentError(err error) models.ErrorResponse {
	resp := models.ErrorResponse{Error: errPaymentProcessing, Message: err.Error()}

	if pe, ok := apperr.AsProcessor(err); ok {
		if pe.ErrorType != "" {
			resp.Error = pe.ErrorType
		}
		if code := pe.FirstCode(); code != "" {
			resp.Message = code
		}
	}
	return resp
}

// CreatePaymentContext handles POST /api/payment-context.
func (h *PaymentHandler) CreatePaymentContext(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.CreatePaymentContext(r.Context())
	if err != nil {
		utils.SendErrorResponse(w, models.ErrorResponse{Error: errCreateContext, Details: err.Error()})
		return
	}

	h.sessions.IssueContext(w, r, record.ID)
	utils.SendSuccessResponse(w, record)
}

// FinalizePayment handles POST /api/payments.
func (h *PaymentHandler) FinalizePayment(w http.ResponseWriter, r *http.Request) {
	log := logger.For(r.Context(), h.logger)

	var req models.FinalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warnw("invalid finalize body", "error", err)
		utils.SendErrorResponse(w, models.ErrorResponse{
			Error:   errProcessPayment,
			Details: fmt.Sprintf("Invalid request body: %v", err),
		})
		return
	}

	record, err := h.service.FinalizePayment(r.Context(), req.PaymentContextID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindIndeterminate {
			// The payment exists at the processor, so the context is spent.
			h.sessions.ConsumeContext(w, r, req.PaymentContextID)
		}
		utils.SendErrorResponse(w, models.ErrorResponse{Error: errProcessPayment, Details: err.Error()})
		return
	}

	h.sessions.ConsumeContext(w, r, req.PaymentContextID)
	utils.SendSuccessResponse(w, record)
}

// CreateRedirectPayment handles POST /api/ideal-payments.
func (h *PaymentHandler) CreateRedirectPayment(w http.ResponseWriter, r *http.Request) {
	h.sessions.Select(w, r, models.MethodRedirectOnly)

	result, err := h.service.CreateRedirectPayment(r.Context())
	if err != nil {
		utils.SendErrorResponse(w, models.ErrorResponse{Error: errRedirectPayment, Details: err.Error()})
		return
	}

	utils.SendSuccessResponse(w, result)
}

// CheckoutSession handles GET /api/checkout/session.
func (h *PaymentHandler) CheckoutSession(w http.ResponseWriter, r *http.Request) {
	utils.SendSuccessResponse(w, h.sessions.Summary(r))
}

func (h *PaymentHandler) Success(w http.ResponseWriter, r *http.Request) {
	writeText(w, "Payment successful! You can close this window.")
}

func (h *PaymentHandler) Failure(w http.ResponseWriter, r *http.Request) {
	writeText(w, "Payment failed. Please try again.")
}

func writeText(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
