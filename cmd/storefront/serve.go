package main

import (
	"github.com/spf13/cobra"

	"github.com/angelmondragon/storefront/api"
	"github.com/angelmondragon/storefront/api/controllers"
	"github.com/angelmondragon/storefront/api/routes"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the payment return routes",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			ready := map[string]controllers.Pinger{}
			if a.redis != nil {
				ready["redis"] = a.redis
			}
			handler := routes.NewRouter(a.cfg, a.logg, routes.Deps{
				Checkout: a.checkout,
				Cart:     a.cart,
				Orders:   a.orders,
				Gatherer: a.registry,
				Ready:    ready,
			})
			return api.Serve(cmd.Context(), api.NewServer(a.cfg.Server, handler), a.logg)
		},
	}
}
