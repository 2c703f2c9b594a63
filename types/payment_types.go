package types

// Address is a billing or shipping address handed to the hosted widget.
type Address struct {
	GivenName     string `json:"given_name,omitempty"`
	FamilyName    string `json:"family_name,omitempty"`
	Email         string `json:"email,omitempty"`
	StreetAddress string `json:"street_address,omitempty"`
	PostalCode    string `json:"postal_code,omitempty"`
	City          string `json:"city,omitempty"`
	Country       string `json:"country,omitempty"`
	Phone         string `json:"phone,omitempty"`
}

type CustomerProfile struct {
	DateOfBirth string `json:"date_of_birth,omitempty"`
}

// AuthorizationData is the profile passed to the widget's authorize step.
type AuthorizationData struct {
	BillingAddress  Address         `json:"billing_address"`
	ShippingAddress Address         `json:"shipping_address"`
	Customer        CustomerProfile `json:"customer"`
}

// DemoAuthorizationData is the fixed profile the demo checkout authorizes with.
func DemoAuthorizationData() AuthorizationData {
	addr := Address{
		GivenName:     "John",
		FamilyName:    "Doe",
		Email:         "john@doe.com",
		StreetAddress: "Mainstrasse 1",
		PostalCode:    "12345",
		City:          "Berlin",
		Country:       "DE",
		Phone:         "+49123456789",
	}
	return AuthorizationData{
		BillingAddress:  addr,
		ShippingAddress: addr,
		Customer:        CustomerProfile{DateOfBirth: "1990-01-01"},
	}
}
