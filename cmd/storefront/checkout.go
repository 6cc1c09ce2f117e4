package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/storefront/internal/address"
	"github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/internal/navigation"
	"github.com/angelmondragon/storefront/pkg/enums"
)

func newCheckoutCommand() *cobra.Command {
	var addressID int64
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Create an order and open the hosted payment page",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			if err := a.requireAuth(ctx); err != nil {
				return err
			}

			current := a.cart.Load(ctx)
			if len(current.Items) == 0 {
				fmt.Fprintln(out, "Your cart is empty.")
				return nil
			}

			addrs, err := a.addresses.List(ctx)
			if err != nil {
				return err
			}
			if addressID == 0 {
				addressID = address.DefaultSelection(addrs)
			}

			stopSteps := a.checkout.SubscribeSteps(func(step enums.CheckoutStep) {
				if step != enums.CheckoutStepIdle {
					a.logg.Debug(a.logg.WithField(ctx, "step", step.String()), "checkout step")
				}
			})
			defer stopSteps()
			stopNav := a.nav.Subscribe(func(t navigation.Target) {
				if t.External {
					fmt.Fprintf(out, "Continue to payment: %s\n", t.URL)
				}
			})
			defer stopNav()

			res, err := a.checkout.ProcessCheckout(ctx, checkout.Request{Addresses: addrs, SelectedAddressID: addressID})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Order %d created. Run `storefront serve` to receive the payment result.\n", res.Order.ID)
			return nil
		},
	}
	cmd.Flags().Int64Var(&addressID, "address", 0, "shipping address id (defaults to the first saved address)")
	return cmd
}
