package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newCartCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show and change the shopping cart",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print cart lines and totals",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				printCart(cmd.OutOrStdout(), c.app.Cart.Lines(), c.app.Cart.Totals())
				return nil
			},
		},
		newCartAddCmd(c),
		&cobra.Command{
			Use:   "remove <product-id>",
			Short: "Remove a product from the cart",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c.app.Cart.RemoveItem(cmd.Context(), args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "set-qty <product-id> <quantity>",
			Short: "Set the quantity of a product; 0 removes it",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if !c.app.Cart.SetQuantityInput(cmd.Context(), args[0], args[1]) {
					return fmt.Errorf("quantity[%s] is not a number", args[1])
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Empty the cart",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				c.app.Cart.Clear(cmd.Context())
				return nil
			},
		},
	)

	return cmd
}

func newCartAddCmd(c *cli) *cobra.Command {
	var (
		p     domain.Product
		price string
		qty   int
	)

	cmd := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(price)
			if err != nil {
				return fmt.Errorf("price[%s] is not a number: %w", price, err)
			}

			p.ID = args[0]
			p.Price = amount
			if p.Name == "" {
				p.Name = p.ID
			}

			if err := c.app.Cart.AddItem(cmd.Context(), p, qty); err != nil {
				return fmt.Errorf("cart.AddItem: %w", err)
			}

			printCart(cmd.OutOrStdout(), c.app.Cart.Lines(), c.app.Cart.Totals())
			return nil
		},
	}

	cmd.Flags().StringVar(&p.Name, "name", "", "product name")
	cmd.Flags().StringVar(&price, "price", "0", "unit price")
	cmd.Flags().IntVar(&qty, "qty", 1, "quantity to add")
	cmd.Flags().StringVar(&p.SellerID, "seller", "", "seller id")
	cmd.Flags().StringVar(&p.ImageRef, "image", "", "image reference")

	return cmd
}

func printCart(w io.Writer, lines []domain.CartLine, totals domain.Totals) {
	if len(lines) == 0 {
		fmt.Fprintln(w, "cart is empty")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCT\tNAME\tPRICE\tQTY\tLINE TOTAL")
	for _, l := range lines {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			l.ProductID,
			l.Name,
			l.UnitPrice.StringFixed(domain.MoneyPlaces),
			l.Quantity,
			domain.LineTotal(l).StringFixed(domain.MoneyPlaces))
	}
	_ = tw.Flush()

	printTotals(w, totals)
}

func printTotals(w io.Writer, totals domain.Totals) {
	fmt.Fprintf(w, "items:    %d\n", totals.ItemCount)
	fmt.Fprintf(w, "subtotal: %s\n", totals.Subtotal)
	fmt.Fprintf(w, "tax:      %s\n", totals.Tax)
	fmt.Fprintf(w, "total:    %s\n", totals.Total)
}
