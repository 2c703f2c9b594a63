package payment

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"checkout-flow-api/apperr"
	"checkout-flow-api/config"
	"checkout-flow-api/models"
	"checkout-flow-api/services/payment/checkoutcom"
)

type fakeGateway struct {
	paymentReqs []*checkoutcom.PaymentRequest
	contextReqs []*checkoutcom.PaymentContextRequest
	detailIDs   []string

	paymentResp *checkoutcom.PaymentResponse
	paymentErr  error
	contextRaw  json.RawMessage
	contextErr  error
	detailRaw   json.RawMessage
	detailErr   error
}

func (f *fakeGateway) RequestPayment(_ context.Context, req *checkoutcom.PaymentRequest) (*checkoutcom.PaymentResponse, error) {
	f.paymentReqs = append(f.paymentReqs, req)
	return f.paymentResp, f.paymentErr
}

func (f *fakeGateway) CreatePaymentContext(_ context.Context, req *checkoutcom.PaymentContextRequest) (json.RawMessage, error) {
	f.contextReqs = append(f.contextReqs, req)
	return f.contextRaw, f.contextErr
}

func (f *fakeGateway) GetPaymentDetails(_ context.Context, id string) (json.RawMessage, error) {
	f.detailIDs = append(f.detailIDs, id)
	return f.detailRaw, f.detailErr
}

func (f *fakeGateway) calls() int {
	return len(f.paymentReqs) + len(f.contextReqs) + len(f.detailIDs)
}

func newService(t *testing.T, gw Gateway) *Service {
	t.Helper()
	return NewPaymentService(gw, Settings{
		ProcessingChannelID: "pc_test",
		SuccessURL:          "http://localhost:8000/success",
		FailureURL:          "http://localhost:8000/failure",
		Commerce:            config.DefaultCommerce(),
	}, zaptest.NewLogger(t).Sugar())
}

func testCard() models.CardDetails {
	return models.CardDetails{Number: "4242424242424242", ExpiryMonth: 12, ExpiryYear: 30, CVV: "123"}
}

func TestSubmitCardPaymentBuildsRequest(t *testing.T) {
	gw := &fakeGateway{paymentResp: &checkoutcom.PaymentResponse{
		ID:     "pay_1",
		Status: "Pending",
		Links:  map[string]checkoutcom.Link{"redirect": {Href: "https://3ds.example/x"}},
	}}
	svc := newService(t, gw)

	res, err := svc.SubmitCardPayment(context.Background(), testCard())
	require.NoError(t, err)

	assert.Equal(t, "pay_1", res.ID)
	assert.Equal(t, "Pending", res.Status)
	require.NotNil(t, res.RedirectURL)
	assert.Equal(t, "https://3ds.example/x", *res.RedirectURL)

	require.Len(t, gw.paymentReqs, 1)
	req := gw.paymentReqs[0]
	src, ok := req.Source.(checkoutcom.CardSource)
	require.True(t, ok)
	assert.Equal(t, "card", src.Type)
	assert.Equal(t, "4242424242424242", src.Number)
	assert.Equal(t, int64(3250), req.Amount)
	assert.Equal(t, "GBP", req.Currency)
	assert.Equal(t, "Recurring", req.PaymentType)
	assert.Equal(t, "pc_test", req.ProcessingChannelID)
	assert.True(t, req.ThreeDS.Enabled)
	assert.Equal(t, "challenge_requested_mandate", req.ThreeDS.ChallengeIndicator)
	assert.Equal(t, "ASOC.COM", req.BillingDescriptor.Name)
	assert.Equal(t, "http://localhost:8000/success", req.SuccessURL)
	assert.Equal(t, "http://localhost:8000/failure", req.FailureURL)
}

func TestSubmitCardPaymentWithoutRedirect(t *testing.T) {
	gw := &fakeGateway{paymentResp: &checkoutcom.PaymentResponse{ID: "pay_2", Status: "Authorized"}}

	res, err := newService(t, gw).SubmitCardPayment(context.Background(), testCard())
	require.NoError(t, err)
	assert.Nil(t, res.RedirectURL)

	body, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"pay_2","status":"Authorized","redirect_url":null}`, string(body))
}

func TestSubmitCardPaymentSurfacesProcessorError(t *testing.T) {
	gw := &fakeGateway{paymentErr: &apperr.ProcessorError{StatusCode: 422, ErrorType: "request_invalid", ErrorCodes: []string{"card_number_invalid"}}}

	_, err := newService(t, gw).SubmitCardPayment(context.Background(), testCard())
	require.Error(t, err)

	pe, ok := apperr.AsProcessor(err)
	require.True(t, ok)
	assert.Equal(t, "card_number_invalid", pe.FirstCode())
}

func TestCreatePaymentContext(t *testing.T) {
	raw := json.RawMessage(`{"id":"pct_1","partner_metadata":{"client_token":"tok","session_id":"s1"},"_links":{}}`)
	gw := &fakeGateway{contextRaw: raw}

	rec, err := newService(t, gw).CreatePaymentContext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pct_1", rec.ID)

	out, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, string(raw), string(out))

	require.Len(t, gw.contextReqs, 1)
	req := gw.contextReqs[0]
	require.Len(t, req.Items, 1)
	assert.Equal(t, int64(3250), req.Amount)
	assert.Equal(t, req.Items[0].TotalAmount, req.Amount)
	assert.Equal(t, "EUR", req.Currency)
	assert.Equal(t, "en-GB", req.Processing.Locale)
	src, ok := req.Source.(checkoutcom.KlarnaSource)
	require.True(t, ok)
	assert.Equal(t, "DE", src.AccountHolder.BillingAddress.Country)
}

func TestCreatePaymentContextFailure(t *testing.T) {
	gw := &fakeGateway{contextErr: &apperr.TransportError{Op: "POST /payment-contexts", Err: errors.New("connection refused")}}

	_, err := newService(t, gw).CreatePaymentContext(context.Background())
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "failed to create payment context"))
	assert.Equal(t, apperr.KindTransport, apperr.KindOf(err))
}

func TestFinalizePaymentRequiresContextID(t *testing.T) {
	for _, id := range []string{"", "   "} {
		gw := &fakeGateway{}

		_, err := newService(t, gw).FinalizePayment(context.Background(), id)
		require.Error(t, err)
		assert.ErrorIs(t, err, apperr.ErrContextIDRequired)
		assert.Equal(t, 0, gw.calls(), "no network call may be issued")
	}
}

func TestFinalizePaymentTwoStages(t *testing.T) {
	detail := json.RawMessage(`{"id":"pay_7","status":"Authorized","approved":true,"amount":3250}`)
	gw := &fakeGateway{
		paymentResp: &checkoutcom.PaymentResponse{ID: "pay_7", Status: "Pending"},
		detailRaw:   detail,
	}

	rec, err := newService(t, gw).FinalizePayment(context.Background(), "pct_1")
	require.NoError(t, err)

	require.Len(t, gw.paymentReqs, 1)
	assert.Equal(t, "pct_1", gw.paymentReqs[0].PaymentContextID)
	assert.Equal(t, "pc_test", gw.paymentReqs[0].ProcessingChannelID)
	assert.Nil(t, gw.paymentReqs[0].Source)
	assert.Equal(t, []string{"pay_7"}, gw.detailIDs)

	assert.Equal(t, "Authorized", rec.Status)
	out, _ := json.Marshal(rec)
	assert.JSONEq(t, string(detail), string(out))
}

func TestFinalizePaymentStageOneFailure(t *testing.T) {
	gw := &fakeGateway{paymentErr: &apperr.ProcessorError{StatusCode: 422}}

	_, err := newService(t, gw).FinalizePayment(context.Background(), "pct_1")
	require.Error(t, err)
	assert.Equal(t, apperr.KindProcessor, apperr.KindOf(err))
	assert.Empty(t, gw.detailIDs)
}

func TestFinalizePaymentStageTwoFailureIsIndeterminate(t *testing.T) {
	gw := &fakeGateway{
		paymentResp: &checkoutcom.PaymentResponse{ID: "pay_8"},
		detailErr:   &apperr.ProcessorError{StatusCode: 404},
	}

	_, err := newService(t, gw).FinalizePayment(context.Background(), "pct_1")
	require.Error(t, err)
	assert.Equal(t, apperr.KindIndeterminate, apperr.KindOf(err))

	var ind *apperr.IndeterminateError
	require.ErrorAs(t, err, &ind)
	assert.Equal(t, "pay_8", ind.PaymentID)
	assert.Contains(t, err.Error(), "failed to process payment")
}

func TestFinalizePaymentMissingPaymentID(t *testing.T) {
	gw := &fakeGateway{paymentResp: &checkoutcom.PaymentResponse{}}

	_, err := newService(t, gw).FinalizePayment(context.Background(), "pct_1")
	assert.ErrorIs(t, err, apperr.ErrMissingPaymentID)
	assert.Empty(t, gw.detailIDs)
}

func TestCreateRedirectPayment(t *testing.T) {
	gw := &fakeGateway{paymentResp: &checkoutcom.PaymentResponse{
		ID:    "pay_i",
		Links: map[string]checkoutcom.Link{"redirect": {Href: "https://bank.example/pay"}},
	}}

	res, err := newService(t, gw).CreateRedirectPayment(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://bank.example/pay", res.RedirectURL)

	require.Len(t, gw.paymentReqs, 1)
	req := gw.paymentReqs[0]
	src, ok := req.Source.(checkoutcom.IdealSource)
	require.True(t, ok)
	assert.Equal(t, "ideal", src.Type)
	assert.Equal(t, "nl", src.Language)
	assert.Equal(t, int64(2000), req.Amount)
	assert.Equal(t, "EUR", req.Currency)
	assert.True(t, strings.HasPrefix(req.Reference, "iDEAL"))
	assert.Len(t, req.Reference, len("iDEAL")+8)
}

func TestCreateRedirectPaymentWithoutLink(t *testing.T) {
	gw := &fakeGateway{paymentResp: &checkoutcom.PaymentResponse{ID: "pay_i", Status: "Pending"}}

	res, err := newService(t, gw).CreateRedirectPayment(context.Background())
	assert.Nil(t, res)
	assert.ErrorIs(t, err, apperr.ErrRedirectNotFound)
	assert.Equal(t, apperr.KindIntegration, apperr.KindOf(err))
}
