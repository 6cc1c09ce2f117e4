package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

var errNotSignedIn = pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in with `storefront login` first")

type appKey struct{}

func newRootCommand() *cobra.Command {
	var a *app

	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Storefront client: catalog, cart, checkout and orders",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations["standalone"] == "true" {
				return nil
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logg := logger.New(logger.Options{
				ServiceName: "storefront",
				Level:       logger.ParseLevel(cfg.App.LogLevel),
				WarnStack:   cfg.App.LogWarnStack,
			})
			a, err = newApp(cmd.Context(), cfg, logg)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, a))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a == nil {
				return nil
			}
			return a.Close()
		},
	}

	root.AddCommand(
		newLoginCommand(),
		newRegisterCommand(),
		newLogoutCommand(),
		newWhoamiCommand(),
		newResetPasswordCommand(),
		newProductsCommand(),
		newCategoriesCommand(),
		newCartCommand(),
		newAddressCommand(),
		newFavoritesCommand(),
		newCheckoutCommand(),
		newOrdersCommand(),
		newServeCommand(),
		newMigrateCommand(),
	)
	return root
}

func appFrom(cmd *cobra.Command) *app {
	a, _ := cmd.Context().Value(appKey{}).(*app)
	return a
}
