package domain

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func ValidateShipping(s ShippingInfo) ValidationErrors {
	var errs ValidationErrors

	required := []struct {
		field string
		value string
		msg   string
	}{
		{"firstName", s.FirstName, "First name is required"},
		{"lastName", s.LastName, "Last name is required"},
		{"email", s.Email, "Email is required"},
		{"phone", s.Phone, "Phone number is required"},
		{"address", s.Address, "Address is required"},
		{"city", s.City, "City is required"},
		{"zipCode", s.ZipCode, "ZIP code is required"},
	}
	for _, r := range required {
		if blank(r.value) {
			errs = append(errs, FieldError{Field: r.field, Message: r.msg})
		}
	}

	if !blank(s.Email) && !emailPattern.MatchString(strings.TrimSpace(s.Email)) {
		errs = append(errs, FieldError{Field: "email", Message: "Email is invalid"})
	}

	return errs
}

// ValidatePayment only checks presence; card number format and Luhn are not
// verified here.
func ValidatePayment(p PaymentInfo) ValidationErrors {
	var errs ValidationErrors

	if !p.Method.Valid() {
		return append(errs, FieldError{Field: "method", Message: "Payment method is invalid"})
	}
	if p.Method != PaymentMethodCreditCard {
		return nil
	}

	required := []struct {
		field string
		value string
		msg   string
	}{
		{"cardNumber", p.CardNumber, "Card number is required"},
		{"expiryDate", p.ExpiryDate, "Expiry date is required"},
		{"cvv", p.CVV, "CVV is required"},
		{"cardHolder", p.CardHolder, "Card holder name is required"},
	}
	for _, r := range required {
		if blank(r.value) {
			errs = append(errs, FieldError{Field: r.field, Message: r.msg})
		}
	}

	return errs
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
