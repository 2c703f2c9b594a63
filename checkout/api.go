package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"checkout-flow-api/apperr"
	"checkout-flow-api/models"
)

// API is the server surface the controller talks to.
type API interface {
	SubmitCard(ctx context.Context, card models.CardDetails) (*models.CardPaymentResult, error)
	CreatePaymentContext(ctx context.Context) (*models.PaymentContext, error)
	FinalizePayment(ctx context.Context, contextID string) (*models.ProcessorRecord, error)
	CreateRedirectPayment(ctx context.Context) (*models.RedirectPaymentResult, error)
}

// RequestError is a non-2xx answer from the checkout server, already reduced
// to the text shown to the user.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string { return e.Message }

// HTTPClient implements API against the checkout server's routes. Give it an
// http.Client with a cookie jar to keep the checkout session.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClient(baseURL string, hc *http.Client) *HTTPClient {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &HTTPClient{baseURL: strings.TrimRight(baseURL, "/"), client: hc}
}

func (c *HTTPClient) post(ctx context.Context, path string, body any) (int, []byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, &apperr.TransportError{Op: "POST " + path, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, &apperr.TransportError{Op: "POST " + path, Err: err}
	}
	return resp.StatusCode, raw, nil
}

func ok(status int) bool { return status >= 200 && status < 300 }

func (c *HTTPClient) SubmitCard(ctx context.Context, card models.CardDetails) (*models.CardPaymentResult, error) {
	status, raw, err := c.post(ctx, "/process-payment", models.CardPaymentRequest{Source: card})
	if err != nil {
		return nil, err
	}

	if !ok(status) {
		var body models.ErrorResponse
		_ = json.Unmarshal(raw, &body)
		msg := body.Message
		if msg == "" {
			msg = "Payment failed"
		}
		return nil, &RequestError{StatusCode: status, Message: msg}
	}

	var result models.CardPaymentResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("error decoding card payment response: %w", err)
	}
	return &result, nil
}

func (c *HTTPClient) CreatePaymentContext(ctx context.Context) (*models.PaymentContext, error) {
	status, raw, err := c.post(ctx, "/api/payment-context", struct{}{})
	if err != nil {
		return nil, err
	}
	if !ok(status) {
		return nil, &RequestError{StatusCode: status, Message: "Failed to create payment context"}
	}

	var pc models.PaymentContext
	if err := json.Unmarshal(raw, &pc); err != nil {
		return nil, fmt.Errorf("error decoding payment context: %w", err)
	}
	return &pc, nil
}

func (c *HTTPClient) FinalizePayment(ctx context.Context, contextID string) (*models.ProcessorRecord, error) {
	status, raw, err := c.post(ctx, "/api/payments", models.FinalizeRequest{PaymentContextID: contextID})
	if err != nil {
		return nil, err
	}
	if !ok(status) {
		return nil, &RequestError{StatusCode: status, Message: "payment request failed: " + compactJSON(raw)}
	}

	var rec models.ProcessorRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("error decoding payment details: %w", err)
	}
	return &rec, nil
}

func (c *HTTPClient) CreateRedirectPayment(ctx context.Context) (*models.RedirectPaymentResult, error) {
	status, raw, err := c.post(ctx, "/api/ideal-payments", struct{}{})
	if err != nil {
		return nil, err
	}
	if !ok(status) {
		return nil, &RequestError{StatusCode: status, Message: "redirect payment request failed: " + strings.TrimSpace(string(raw))}
	}

	var result models.RedirectPaymentResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("error decoding redirect payment response: %w", err)
	}
	return &result, nil
}

func compactJSON(raw []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return strings.TrimSpace(string(raw))
	}
	return buf.String()
}
