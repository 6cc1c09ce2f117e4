package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newFavoritesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorites",
		Short: "Show or change favorite products",
		RunE: func(cmd *cobra.Command, args []string) error {
			items := appFrom(cmd).favorites.Items()
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No favorites yet.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tPRICE")
			for _, p := range items {
				fmt.Fprintf(w, "%d\t%s\t%s\n", p.ID, p.Name, p.Price.StringFixed(2))
			}
			return w.Flush()
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "toggle <product-id>",
			Short: "Add or remove a favorite",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a := appFrom(cmd)
				id, err := parseID(args[0], "product id")
				if err != nil {
					return err
				}
				p, err := a.catalog.Product(cmd.Context(), id)
				if err != nil {
					return err
				}
				on, err := a.favorites.Toggle(cmd.Context(), *p)
				if err != nil {
					return err
				}
				if on {
					fmt.Fprintf(cmd.OutOrStdout(), "Added %s to favorites.\n", p.Name)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from favorites.\n", p.Name)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove <product-id>",
			Short: "Remove a favorite",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0], "product id")
				if err != nil {
					return err
				}
				return appFrom(cmd).favorites.Remove(cmd.Context(), id)
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove every favorite",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := appFrom(cmd).favorites.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Favorites cleared.")
				return nil
			},
		},
	)
	return cmd
}
