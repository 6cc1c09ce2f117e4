package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/storefront/internal/address"
	"github.com/angelmondragon/storefront/internal/backend"
)

func newAddressCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "address",
		Aliases: []string{"addresses"},
		Short:   "Manage saved shipping addresses",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			if err := a.requireAuth(cmd.Context()); err != nil {
				return err
			}
			list, err := a.addresses.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No saved addresses.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tADDRESS\tPHONE")
			for _, addr := range list {
				fmt.Fprintf(w, "%d\t%s %s\t%s\t%s\n", addr.ID, addr.Name, addr.LastName, address.Display(addr), addr.PhoneNumber)
			}
			return w.Flush()
		},
	}
	cmd.AddCommand(newAddressAddCommand(), newAddressUpdateCommand(), newAddressDeleteCommand())
	return cmd
}

func bindAddressFlags(cmd *cobra.Command, addr *backend.Address) {
	cmd.Flags().StringVar(&addr.Name, "name", "", "first name")
	cmd.Flags().StringVar(&addr.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&addr.PhoneNumber, "phone", "", "phone number")
	cmd.Flags().StringVar(&addr.Email, "email", "", "contact email")
	cmd.Flags().StringVar(&addr.Country, "country", "", "country")
	cmd.Flags().StringVar(&addr.Street, "street", "", "street and number")
	cmd.Flags().StringVar(&addr.City, "city", "", "city")
	cmd.Flags().StringVar(&addr.State, "state", "", "state or province")
	cmd.Flags().StringVar(&addr.ZipCode, "zip", "", "postal code")
}

func newAddressAddCommand() *cobra.Command {
	var addr backend.Address
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Save a new address",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			if err := a.requireAuth(cmd.Context()); err != nil {
				return err
			}
			created, err := a.addresses.Create(cmd.Context(), addr)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved address %d: %s\n", created.ID, address.Display(*created))
			return nil
		},
	}
	bindAddressFlags(cmd, &addr)
	return cmd
}

func newAddressUpdateCommand() *cobra.Command {
	var addr backend.Address
	cmd := &cobra.Command{
		Use:   "update <address-id>",
		Short: "Replace a saved address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			if err := a.requireAuth(cmd.Context()); err != nil {
				return err
			}
			id, err := parseID(args[0], "address id")
			if err != nil {
				return err
			}
			updated, err := a.addresses.Update(cmd.Context(), id, addr)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated address %d: %s\n", updated.ID, address.Display(*updated))
			return nil
		},
	}
	bindAddressFlags(cmd, &addr)
	return cmd
}

func newAddressDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <address-id>",
		Short: "Delete a saved address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			if err := a.requireAuth(cmd.Context()); err != nil {
				return err
			}
			id, err := parseID(args[0], "address id")
			if err != nil {
				return err
			}
			if err := a.addresses.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted address %d.\n", id)
			return nil
		},
	}
}
