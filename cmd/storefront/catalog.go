package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

func newProductsCommand() *cobra.Command {
	var categoryID int64
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			if _, err := a.catalog.Categories(cmd.Context()); err != nil {
				a.logg.Warn(a.logg.WithField(cmd.Context(), "error", err.Error()), "categories unavailable")
			}
			list, err := a.catalog.Products(cmd.Context(), categoryID)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK\tFAV")
			for _, p := range list {
				fav := ""
				if a.favorites.Contains(p.ID) {
					fav = "*"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\n", p.ID, p.Name, a.catalog.CategoryLabel(p), p.Price.StringFixed(2), p.Stock, fav)
			}
			return w.Flush()
		},
	}
	cmd.Flags().Int64Var(&categoryID, "category", 0, "only list this category id")
	return cmd
}

func newCategoriesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List product categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := appFrom(cmd).catalog.Categories(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
			for _, c := range list {
				fmt.Fprintf(w, "%d\t%s\t%s\n", c.ID, c.Name, c.Description)
			}
			return w.Flush()
		},
	}
}

func parseID(raw, what string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid %s %q", what, raw))
	}
	return id, nil
}
