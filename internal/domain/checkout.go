package domain

import (
	"github.com/google/uuid"
)

const DefaultCountry = "United States"

type PaymentMethod string

const (
	PaymentMethodCreditCard PaymentMethod = "credit_card"
	PaymentMethodPayPal     PaymentMethod = "paypal"
	PaymentMethodApplePay   PaymentMethod = "apple_pay"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCreditCard, PaymentMethodPayPal, PaymentMethodApplePay:
		return true
	default:
		return false
	}
}

func (m PaymentMethod) String() string {
	return string(m)
}

type ShippingInfo struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Address   string
	Apartment string
	City      string
	ZipCode   string
	Country   string
}

// PaymentInfo holds card details only for the lifetime of a checkout; orders
// keep the method alone.
type PaymentInfo struct {
	Method     PaymentMethod
	CardNumber string
	ExpiryDate string
	CVV        string
	CardHolder string
}

// DraftOrder is what gets handed to the order backend on submission.
type DraftOrder struct {
	CheckoutID uuid.UUID
	UserID     string
	Lines      []CartLine
	Totals     Totals
	Shipping   ShippingInfo
	Payment    PaymentInfo
}
