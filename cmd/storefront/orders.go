package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/storefront/internal/orders"
)

func newOrdersCommand() *cobra.Command {
	var orderID int64
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Show order history",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			ctx := cmd.Context()
			if err := a.requireAuth(ctx); err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			if orderID > 0 {
				o, err := a.orders.Get(ctx, orderID)
				if err != nil {
					return err
				}
				products := a.orders.Products()
				fmt.Fprintf(w, "Order #%d\t%s\t%s\n", o.UserOrderNumber, o.Status.Label(), o.Total.StringFixed(2))
				for _, item := range o.Items {
					fmt.Fprintf(w, "  %s\tx%d\t%s\n", orders.LineName(item, products), item.Quantity, item.LineTotal().StringFixed(2))
				}
				return w.Flush()
			}

			list, err := a.orders.Load(ctx)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No orders yet.")
				return nil
			}
			if pending, ok := a.checkout.PendingOrder(ctx); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "Order %d is waiting for payment.\n", pending)
			}
			fmt.Fprintln(w, "ID\tNUMBER\tSTATUS\tITEMS\tTOTAL")
			for _, o := range list {
				fmt.Fprintf(w, "%d\t%d\t%s\t%d\t%s\n", o.ID, o.UserOrderNumber, o.Status.Label(), o.ItemCount(), o.Total.StringFixed(2))
			}
			return w.Flush()
		},
	}
	cmd.Flags().Int64Var(&orderID, "id", 0, "show a single order")
	return cmd
}
