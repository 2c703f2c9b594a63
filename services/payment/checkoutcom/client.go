package checkoutcom

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"checkout-flow-api/apperr"
	"checkout-flow-api/logger"
)

const (
	SandboxEndpoint    = "https://api.sandbox.checkout.com"
	ProductionEndpoint = "https://api.checkout.com"
)

// Client talks to the processor's REST API. It never retries: a failed call
// fails the enclosing operation.
type Client struct {
	secretKey string
	baseURL   string
	client    *http.Client
	logger    *zap.SugaredLogger
}

type Option func(*Client)

// WithBaseURL points the client at another host, e.g. an httptest server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func NewClient(secretKey, environment string, log *zap.SugaredLogger, opts ...Option) *Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	}

	c := &Client{
		secretKey: secretKey,
		baseURL:   endpointFor(environment),
		client:    &http.Client{Transport: transport},
		logger:    log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func endpointFor(environment string) string {
	if environment == "production" {
		return ProductionEndpoint
	}
	return SandboxEndpoint
}

func (c *Client) BaseURL() string { return c.baseURL }

// RequestPayment issues POST /payments.
func (c *Client) RequestPayment(ctx context.Context, req *PaymentRequest) (*PaymentResponse, error) {
	raw, err := c.do(ctx, http.MethodPost, "/payments", req)
	if err != nil {
		return nil, err
	}
	return decodePayment(raw)
}

// CreatePaymentContext issues POST /payment-contexts and returns the context
// body verbatim.
func (c *Client) CreatePaymentContext(ctx context.Context, req *PaymentContextRequest) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/payment-contexts", req)
}

// GetPaymentDetails issues GET /payments/{id} and returns the detail record
// verbatim.
func (c *Client) GetPaymentDetails(ctx context.Context, paymentID string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/payments/"+url.PathEscape(paymentID), nil)
}

func decodePayment(raw json.RawMessage) (*PaymentResponse, error) {
	var resp PaymentResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("error decoding payment response: %w", err)
	}
	resp.Raw = raw
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	startTime := time.Now()
	log := logger.For(ctx, c.logger)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("error marshaling request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	log.Debugw("sending processor request", "method", method, "path", path)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, &apperr.TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperr.TransportError{Op: "read " + path, Err: err}
	}

	log.Infow("processor response received",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"elapsed", time.Since(startTime),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, processorError(resp, respBody)
	}

	return respBody, nil
}

func processorError(resp *http.Response, body []byte) *apperr.ProcessorError {
	pe := &apperr.ProcessorError{
		StatusCode: resp.StatusCode,
		RequestID:  resp.Header.Get("Cko-Request-Id"),
	}

	var eb errorBody
	if len(body) > 0 && json.Unmarshal(body, &eb) == nil {
		pe.ErrorType = eb.ErrorType
		pe.ErrorCodes = eb.ErrorCodes
		if eb.RequestID != "" {
			pe.RequestID = eb.RequestID
		}
	}
	return pe
}
