package models

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	"checkout-flow-api/apperr"
)

var validate *validator.Validate

type nowKey struct{}

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// notexpired compares a two-digit expiry year against the year carried in
	// the validation context.
	validate.RegisterValidationCtx("notexpired", func(ctx context.Context, fl validator.FieldLevel) bool {
		now, ok := ctx.Value(nowKey{}).(time.Time)
		if !ok {
			now = time.Now()
		}
		year := int(fl.Field().Int())
		if year < 100 {
			return year >= now.Year()%100
		}
		return year >= now.Year()
	})
}

// CardDetails exists only for the duration of one submission.
type CardDetails struct {
	Number      string `json:"number" validate:"required,number,min=16"`
	ExpiryMonth int    `json:"expiry_month" validate:"min=1,max=12"`
	ExpiryYear  int    `json:"expiry_year" validate:"notexpired"`
	CVV         string `json:"cvv" validate:"required,number,min=3"`
}

var cardFieldMessages = map[string]string{
	"Number":      "Please enter a valid card number",
	"ExpiryMonth": "Please enter a valid expiry month (1-12)",
	"ExpiryYear":  "Card has expired",
	"CVV":         "Please enter a valid security code",
}

// NormalizeCardNumber strips every non-digit from a typed card number.
func NormalizeCardNumber(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

// Validate checks the card locally. The first violated constraint, in field
// order, is returned as an *apperr.ValidationError.
func (c CardDetails) Validate(now time.Time) error {
	ctx := context.WithValue(context.Background(), nowKey{}, now)

	err := validate.StructCtx(ctx, c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &apperr.ValidationError{Field: "card", Message: err.Error()}
	}

	field := fieldErrs[0].Field()
	msg, ok := cardFieldMessages[field]
	if !ok {
		msg = fieldErrs[0].Error()
	}
	return &apperr.ValidationError{Field: field, Message: msg}
}
