package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/storefront/internal/backend"
	"github.com/angelmondragon/storefront/internal/cart"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

func newCartCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show or change the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			if err := a.requireAuth(cmd.Context()); err != nil {
				return err
			}
			return printCart(cmd.OutOrStdout(), a.cart.Load(cmd.Context()))
		},
	}
	cmd.AddCommand(newCartAddCommand(), newCartRemoveCommand(), newCartUpdateCommand(), newCartClearCommand())
	return cmd
}

func newCartAddCommand() *cobra.Command {
	var quantity int
	cmd := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			if err := a.requireAuth(cmd.Context()); err != nil {
				return err
			}
			id, err := parseID(args[0], "product id")
			if err != nil {
				return err
			}
			p, err := a.catalog.Product(cmd.Context(), id)
			if err != nil {
				return err
			}
			if quantity == 1 {
				err = a.cart.AddProduct(cmd.Context(), *p)
			} else {
				err = a.cart.AddItem(cmd.Context(), backend.CartItem{
					ProductID:          p.ID,
					ProductName:        p.Name,
					ProductDescription: p.Description,
					ProductImageURL:    p.ImageURL,
					ProductPrice:       p.Price,
					ProductCategory:    a.catalog.CategoryLabel(*p),
					Quantity:           quantity,
				})
			}
			if err != nil {
				return err
			}
			return printCart(cmd.OutOrStdout(), a.cart.Current())
		},
	}
	cmd.Flags().IntVar(&quantity, "qty", 1, "quantity to add")
	return cmd
}

func newCartRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <item-id>",
		Short: "Remove a line from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			if err := a.requireAuth(cmd.Context()); err != nil {
				return err
			}
			id, err := parseID(args[0], "item id")
			if err != nil {
				return err
			}
			a.cart.Load(cmd.Context())
			if err := a.cart.RemoveItem(cmd.Context(), id); err != nil {
				return err
			}
			return printCart(cmd.OutOrStdout(), a.cart.Current())
		},
	}
}

func newCartUpdateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "update <item-id> <quantity>",
		Short: "Set a line's quantity; 0 removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			if err := a.requireAuth(cmd.Context()); err != nil {
				return err
			}
			id, err := parseID(args[0], "item id")
			if err != nil {
				return err
			}
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid quantity %q", args[1]))
			}
			a.cart.Load(cmd.Context())
			if err := a.cart.UpdateQuantity(cmd.Context(), id, qty); err != nil {
				return err
			}
			return printCart(cmd.OutOrStdout(), a.cart.Current())
		},
	}
}

func newCartClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			if err := a.requireAuth(cmd.Context()); err != nil {
				return err
			}
			if err := a.cart.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cart cleared.")
			return nil
		},
	}
}

func printCart(out io.Writer, c backend.Cart) error {
	if len(c.Items) == 0 {
		fmt.Fprintln(out, "Your cart is empty.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ITEM\tPRODUCT\tCATEGORY\tQTY\tPRICE\tSUBTOTAL")
	for _, item := range c.Items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\n",
			item.ID, item.ProductName, item.ProductCategory, item.Quantity,
			item.ProductPrice.StringFixed(2), item.Subtotal().StringFixed(2))
	}
	fmt.Fprintf(w, "\t\t\t%d\t\t%s\n", cart.ItemsCount(c), cart.Total(c).StringFixed(2))
	return w.Flush()
}
