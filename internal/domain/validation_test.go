package domain_test

import (
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateShipping(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(s *domain.ShippingInfo)
		wantFields []string
	}{
		{
			name:   "all required fields: ok",
			mutate: func(*domain.ShippingInfo) {},
		},
		{
			name:   "apartment is optional: ok",
			mutate: func(s *domain.ShippingInfo) { s.Apartment = "" },
		},
		{
			name:       "missing first name: error",
			mutate:     func(s *domain.ShippingInfo) { s.FirstName = "" },
			wantFields: []string{"firstName"},
		},
		{
			name:       "whitespace counts as empty: error",
			mutate:     func(s *domain.ShippingInfo) { s.City = "   " },
			wantFields: []string{"city"},
		},
		{
			name:       "malformed email: error",
			mutate:     func(s *domain.ShippingInfo) { s.Email = "not-an-email" },
			wantFields: []string{"email"},
		},
		{
			name:       "everything empty: error",
			mutate:     func(s *domain.ShippingInfo) { *s = domain.ShippingInfo{} },
			wantFields: []string{"firstName", "lastName", "email", "phone", "address", "city", "zipCode"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validShipping()
			tt.mutate(&s)

			errs := domain.ValidateShipping(s)
			assert.Equal(t, tt.wantFields, fields(errs))
		})
	}
}

func TestValidatePayment(t *testing.T) {
	tests := []struct {
		name       string
		payment    domain.PaymentInfo
		wantFields []string
	}{
		{
			name:    "credit card with all fields: ok",
			payment: validCard(),
		},
		{
			name:    "paypal needs no card: ok",
			payment: domain.PaymentInfo{Method: domain.PaymentMethodPayPal},
		},
		{
			name:    "apple pay needs no card: ok",
			payment: domain.PaymentInfo{Method: domain.PaymentMethodApplePay},
		},
		{
			name:       "unknown method: error",
			payment:    domain.PaymentInfo{Method: "bitcoin"},
			wantFields: []string{"method"},
		},
		{
			name:       "credit card without details: error",
			payment:    domain.PaymentInfo{Method: domain.PaymentMethodCreditCard},
			wantFields: []string{"cardNumber", "expiryDate", "cvv", "cardHolder"},
		},
		{
			name: "card number format is not checked: ok",
			payment: domain.PaymentInfo{
				Method:     domain.PaymentMethodCreditCard,
				CardNumber: "1234",
				ExpiryDate: "x",
				CVV:        "1",
				CardHolder: "y",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := domain.ValidatePayment(tt.payment)
			assert.Equal(t, tt.wantFields, fields(errs))
		})
	}
}

func TestValidationErrors_Field(t *testing.T) {
	errs := domain.ValidateShipping(domain.ShippingInfo{})
	require.NotEmpty(t, errs)

	fe, ok := errs.Field("zipCode")
	require.True(t, ok)
	assert.Equal(t, "ZIP code is required", fe.Message)

	_, ok = errs.Field("apartment")
	assert.False(t, ok)

	assert.Contains(t, errs.Error(), "firstName: First name is required")
}

func validShipping() domain.ShippingInfo {
	return domain.ShippingInfo{
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
		Email:     gofakeit.Email(),
		Phone:     gofakeit.Phone(),
		Address:   gofakeit.Street(),
		Apartment: gofakeit.StreetNumber(),
		City:      gofakeit.City(),
		ZipCode:   gofakeit.Zip(),
		Country:   domain.DefaultCountry,
	}
}

func validCard() domain.PaymentInfo {
	return domain.PaymentInfo{
		Method:     domain.PaymentMethodCreditCard,
		CardNumber: gofakeit.CreditCardNumber(nil),
		ExpiryDate: gofakeit.CreditCardExp(),
		CVV:        gofakeit.CreditCardCvv(),
		CardHolder: gofakeit.Name(),
	}
}

func fields(errs domain.ValidationErrors) []string {
	var out []string
	for _, fe := range errs {
		out = append(out, fe.Field)
	}
	return out
}
