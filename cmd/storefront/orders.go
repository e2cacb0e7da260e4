package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/spf13/cobra"
)

func newOrdersCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Browse order history",
	}

	cmd.AddCommand(
		newOrdersListCmd(c),
		&cobra.Command{
			Use:   "summary",
			Short: "Print order count, spend and per-status counts",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				s := c.app.History.Summary(c.userID)
				out := cmd.OutOrStdout()

				fmt.Fprintf(out, "orders:      %d\n", s.OrderCount)
				fmt.Fprintf(out, "total spent: %s\n", s.TotalSpent)
				other := slices.SortedFunc(maps.Values(s.OtherSpent), func(a, b domain.Money) int {
					return strings.Compare(a.Currency.String(), b.Currency.String())
				})
				for _, spent := range other {
					fmt.Fprintf(out, "             %s\n", spent)
				}
				fmt.Fprintf(out, "line items:  %d\n", s.LineItemCount)

				statuses := make([]domain.OrderStatus, 0, len(s.ByStatus))
				for status := range s.ByStatus {
					statuses = append(statuses, status)
				}
				slices.Sort(statuses)
				for _, status := range statuses {
					fmt.Fprintf(out, "  %-11s %d\n", status, s.ByStatus[status])
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "set-status <order-id> <status>",
			Short: "Move an order along the fulfilment pipeline",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := uuid.Parse(args[0])
				if err != nil {
					return fmt.Errorf("order id[%s] is not valid: %w", args[0], err)
				}
				status, ok := domain.ParseOrderStatus(args[1])
				if !ok {
					return fmt.Errorf("status[%s] is not valid", args[1])
				}

				order, err := c.app.History.UpdateStatus(cmd.Context(), id, status)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "order %s is %s (%d%%)\n", order.ID, order.Status, order.Status.Progress())
				return nil
			},
		},
	)

	return cmd
}

func newOrdersListCmd(c *cli) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List orders, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			orders, err := c.app.History.FilterByStatus(c.userID, domain.OrderStatus(status))
			if err != nil {
				return fmt.Errorf("history.FilterByStatus: %w", err)
			}

			printOrders(cmd.OutOrStdout(), orders)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", string(domain.OrderStatusAll), "all, confirmed, processing, shipped, delivered or cancelled")

	return cmd
}

func printOrders(w io.Writer, orders []domain.Order) {
	if len(orders) == 0 {
		fmt.Fprintln(w, "no orders")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tPLACED\tSTATUS\tITEMS\tTOTAL")
	for _, o := range orders {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			o.ID,
			o.CreatedAt.Format("2006-01-02 15:04"),
			o.Status,
			domain.ItemCount(o.Items),
			o.Total)
	}
	_ = tw.Flush()
}
