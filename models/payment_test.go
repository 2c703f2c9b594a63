package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"checkout-flow-api/apperr"
)

var validationNow = time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)

func validCard() CardDetails {
	return CardDetails{Number: "4242424242424242", ExpiryMonth: 12, ExpiryYear: 30, CVV: "123"}
}

func TestCardValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *CardDetails)
		wantMsg string
	}{
		{name: "valid", mutate: func(c *CardDetails) {}},
		{name: "current year", mutate: func(c *CardDetails) { c.ExpiryYear = 26 }},
		{name: "four digit year", mutate: func(c *CardDetails) { c.ExpiryYear = 2031 }},
		{name: "four digit cvv", mutate: func(c *CardDetails) { c.CVV = "1234" }},
		{name: "short number", mutate: func(c *CardDetails) { c.Number = "424242424242" }, wantMsg: "Please enter a valid card number"},
		{name: "empty number", mutate: func(c *CardDetails) { c.Number = "" }, wantMsg: "Please enter a valid card number"},
		{name: "letters in number", mutate: func(c *CardDetails) { c.Number = "4242abcd42424242" }, wantMsg: "Please enter a valid card number"},
		{name: "month zero", mutate: func(c *CardDetails) { c.ExpiryMonth = 0 }, wantMsg: "Please enter a valid expiry month (1-12)"},
		{name: "month thirteen", mutate: func(c *CardDetails) { c.ExpiryMonth = 13 }, wantMsg: "Please enter a valid expiry month (1-12)"},
		{name: "past year", mutate: func(c *CardDetails) { c.ExpiryYear = 25 }, wantMsg: "Card has expired"},
		{name: "past four digit year", mutate: func(c *CardDetails) { c.ExpiryYear = 2020 }, wantMsg: "Card has expired"},
		{name: "short cvv", mutate: func(c *CardDetails) { c.CVV = "12" }, wantMsg: "Please enter a valid security code"},
		{name: "first violation wins", mutate: func(c *CardDetails) { c.Number = "1"; c.CVV = "" }, wantMsg: "Please enter a valid card number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCard()
			tt.mutate(&c)

			err := c.Validate(validationNow)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}

			var ve *apperr.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantMsg, ve.Message)
		})
	}
}

func TestCardValidateRejectsEveryShortNumber(t *testing.T) {
	for n := 0; n < 16; n++ {
		c := validCard()
		c.Number = strings.Repeat("4", n)
		err := c.Validate(validationNow)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), "length %d", n)
	}
}

func TestNormalizeCardNumber(t *testing.T) {
	assert.Equal(t, "4242424242424242", NormalizeCardNumber("4242 4242 4242 4242"))
	assert.Equal(t, "4242424242424242", NormalizeCardNumber("4242-4242-4242-4242"))
	assert.Equal(t, "", NormalizeCardNumber(" - "))
}

func TestPaymentMethodText(t *testing.T) {
	for _, m := range Methods {
		parsed, err := ParsePaymentMethod(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
		assert.True(t, m.IsValid())
	}

	_, err := ParsePaymentMethod("paypal")
	assert.Error(t, err)
	assert.False(t, MethodNone.IsValid())
	assert.True(t, MethodContextBased.RequiresSetup())
	assert.False(t, MethodCard.RequiresSetup())

	var s SessionSummary
	require.NoError(t, json.Unmarshal([]byte(`{"method":"klarna","payment_context_id":"pct_1"}`), &s))
	assert.Equal(t, MethodContextBased, s.Method)
}

func TestNormalizeStatus(t *testing.T) {
	assert.Equal(t, OutcomeApproved, NormalizeStatus("Authorized"))
	assert.Equal(t, OutcomeApproved, NormalizeStatus("Card Verified"))
	assert.Equal(t, OutcomePending, NormalizeStatus("Pending"))
	assert.Equal(t, OutcomeDeclined, NormalizeStatus("Declined"))
	assert.Equal(t, OutcomeError, NormalizeStatus("Bogus"))
	assert.Equal(t, OutcomeError, NormalizeStatus(""))
}

func TestOutcomeFromCardResult(t *testing.T) {
	redirect := "https://3ds.example"

	assert.Equal(t, PaymentOutcome{Status: OutcomePending, RedirectURL: redirect},
		OutcomeFromCardResult(&CardPaymentResult{Status: "Pending", RedirectURL: &redirect}))
	assert.Equal(t, PaymentOutcome{Status: OutcomeApproved},
		OutcomeFromCardResult(&CardPaymentResult{Status: "Authorized"}))
	assert.Equal(t, OutcomeDeclined, OutcomeFromCardResult(&CardPaymentResult{Status: "Declined"}).Status)
	assert.NotEmpty(t, OutcomeFromCardResult(nil).Message)
}

func TestOutcomeFromRecord(t *testing.T) {
	var approved ProcessorRecord
	require.NoError(t, json.Unmarshal([]byte(`{"id":"p","approved":true}`), &approved))
	assert.Equal(t, OutcomeApproved, OutcomeFromRecord(&approved).Status)

	var pending ProcessorRecord
	require.NoError(t, json.Unmarshal([]byte(`{"id":"p","status":"Pending"}`), &pending))
	assert.True(t, OutcomeFromRecord(&pending).Status.Succeeded())

	var declined ProcessorRecord
	require.NoError(t, json.Unmarshal([]byte(`{"id":"p","status":"Declined"}`), &declined))
	out := OutcomeFromRecord(&declined)
	assert.False(t, out.Status.Succeeded())
	assert.Equal(t, "Payment not authorized", out.Message)
}

func TestProcessorRecordIsVerbatim(t *testing.T) {
	body := `{"id":"pct_1","partner_metadata":{"client_token":"tok"},"extra":[1,2,3]}`

	var rec ProcessorRecord
	require.NoError(t, json.Unmarshal([]byte(body), &rec))
	assert.Equal(t, "pct_1", rec.ID)

	out, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, body, string(out))

	empty, err := json.Marshal(ProcessorRecord{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(empty))
}
