package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/internal/backend"
	"github.com/angelmondragon/storefront/internal/cart"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/shopspring/decimal"
)

// CartLoader reloads the authoritative cart.
type CartLoader interface {
	Load(ctx context.Context) backend.Cart
}

type cartResponse struct {
	Cart       backend.Cart    `json:"cart"`
	ItemsCount int             `json:"items_count"`
	Total      decimal.Decimal `json:"total"`
}

// CartSummary reloads the cart so the return page can show it after a
// confirmed payment.
func CartSummary(svc CartLoader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}
		current := svc.Load(r.Context())
		responses.WriteSuccess(w, cartResponse{
			Cart:       current,
			ItemsCount: cart.ItemsCount(current),
			Total:      cart.Total(current),
		})
	}
}
