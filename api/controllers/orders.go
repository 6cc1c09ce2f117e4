package controllers

import (
	"context"
	"net/http"
	"sort"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/backend"
	"github.com/angelmondragon/storefront/internal/orders"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/pagination"
)

// OrderLoader loads the order history and its product detail.
type OrderLoader interface {
	Load(ctx context.Context) ([]backend.Order, error)
	Products() map[int64]backend.Product
}

type orderLineResponse struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"line_total"`
}

type orderResponse struct {
	ID          int64               `json:"id"`
	Number      int64               `json:"number"`
	Status      string              `json:"status"`
	StatusLabel string              `json:"status_label"`
	Total       string              `json:"total"`
	ItemCount   int                 `json:"item_count"`
	Lines       []orderLineResponse `json:"lines"`
}

type orderListResponse struct {
	Orders     []orderResponse `json:"orders"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

// OrderList returns the newest orders first, paged by ?limit= and ?cursor=.
func OrderList(svc OrderLoader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order history unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.Load(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		products := svc.Products()

		sorted := append([]backend.Order(nil), list...)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID > sorted[j].ID })
		page, next, err := pagination.Page(sorted, func(o backend.Order) int64 { return o.ID }, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor"))
			return
		}
		out := orderListResponse{Orders: make([]orderResponse, 0, len(page)), NextCursor: next}
		for _, o := range page {
			out.Orders = append(out.Orders, newOrderResponse(o, products))
		}
		responses.WriteSuccess(w, out)
	}
}

func newOrderResponse(o backend.Order, products map[int64]backend.Product) orderResponse {
	lines := make([]orderLineResponse, 0, len(o.Items))
	for _, item := range o.Items {
		lines = append(lines, orderLineResponse{
			ProductID: item.ProductID,
			Name:      orders.LineName(item, products),
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal().StringFixed(2),
		})
	}
	return orderResponse{
		ID:          o.ID,
		Number:      o.UserOrderNumber,
		Status:      o.Status.String(),
		StatusLabel: o.Status.Label(),
		Total:       o.Total.StringFixed(2),
		ItemCount:   o.ItemCount(),
		Lines:       lines,
	}
}
