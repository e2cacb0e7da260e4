package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/nikolayk812/storefront/internal/checkout"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/spf13/cobra"
)

func newCheckoutCmd(c *cli) *cobra.Command {
	var (
		shipping domain.ShippingInfo
		payment  domain.PaymentInfo
		method   string
	)

	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for the current cart",
		Long: "Runs shipping, payment and review in one go and submits the order.\n" +
			"The cart is only cleared when the order is recorded.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			payment.Method = domain.PaymentMethod(method)

			m, err := c.app.NewCheckout(c.userID, shipping.Email)
			if errors.Is(err, domain.ErrEmptyCart) {
				return errors.New("cart is empty, add products before checking out")
			}
			if err != nil {
				return fmt.Errorf("app.NewCheckout: %w", err)
			}

			if err := m.SetShipping(shipping); err != nil {
				return err
			}
			if err := advance(out, m); err != nil {
				return err
			}
			if err := m.SetPayment(payment); err != nil {
				return err
			}
			if err := advance(out, m); err != nil {
				return err
			}

			review, err := m.Review()
			if err != nil {
				return err
			}
			printCart(out, review.Lines, review.Totals)

			order, err := m.SubmitOrder(cmd.Context())
			var serr *domain.SubmissionError
			if errors.As(err, &serr) && serr.Retryable() {
				return fmt.Errorf("%w; the cart is unchanged, try again", err)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "order %s %s, total %s\n", order.ID, order.Status, order.Total)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&shipping.FirstName, "first-name", "", "shipping first name")
	f.StringVar(&shipping.LastName, "last-name", "", "shipping last name")
	f.StringVar(&shipping.Email, "email", "", "contact email")
	f.StringVar(&shipping.Phone, "phone", "", "contact phone")
	f.StringVar(&shipping.Address, "address", "", "street address")
	f.StringVar(&shipping.Apartment, "apartment", "", "apartment, suite, etc.")
	f.StringVar(&shipping.City, "city", "", "city")
	f.StringVar(&shipping.ZipCode, "zip", "", "ZIP code")
	f.StringVar(&shipping.Country, "country", domain.DefaultCountry, "country")

	f.StringVar(&method, "payment", string(domain.PaymentMethodCreditCard), "credit_card, paypal or apple_pay")
	f.StringVar(&payment.CardNumber, "card-number", "", "card number")
	f.StringVar(&payment.ExpiryDate, "card-expiry", "", "card expiry date")
	f.StringVar(&payment.CVV, "card-cvv", "", "card CVV")
	f.StringVar(&payment.CardHolder, "card-holder", "", "name on the card")

	return cmd
}

func advance(w io.Writer, m *checkout.Machine) error {
	stage := m.Stage()

	err := m.Advance()
	var errs domain.ValidationErrors
	if errors.As(err, &errs) {
		fmt.Fprintf(w, "%s details are incomplete:\n", stage)
		for _, fe := range errs {
			fmt.Fprintf(w, "  --%s: %s\n", flagName(fe.Field), fe.Message)
		}
		return fmt.Errorf("%s stage failed validation", stage)
	}

	return err
}

var fieldFlags = map[string]string{
	"firstName":  "first-name",
	"lastName":   "last-name",
	"zipCode":    "zip",
	"method":     "payment",
	"cardNumber": "card-number",
	"expiryDate": "card-expiry",
	"cvv":        "card-cvv",
	"cardHolder": "card-holder",
}

func flagName(field string) string {
	if name, ok := fieldFlags[field]; ok {
		return name
	}
	return field
}
