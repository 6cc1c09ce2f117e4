// Package orders reads the user's order history and enriches its lines with
// current product detail.
package orders

import (
	"context"
	"sort"
	"sync"

	"github.com/angelmondragon/storefront/internal/backend"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/pubsub"
	"golang.org/x/sync/errgroup"
)

const defaultFetchLimit = 8

// Backend is the order and product slice of the REST client.
type Backend interface {
	ListOrders(ctx context.Context) ([]backend.Order, error)
	GetOrder(ctx context.Context, orderID int64) (*backend.Order, error)
	GetProduct(ctx context.Context, id int64) (*backend.Product, error)
}

// View is what the order list renders. Loading is always cleared once a
// load settles, whatever the outcome.
type View struct {
	Orders   []backend.Order
	Products map[int64]backend.Product
	Loading  bool
	Err      error
}

type History struct {
	api     Backend
	cache   ProductCache
	logg    *logger.Logger
	metrics *metrics.Storefront
	limit   int

	view *pubsub.Subject[View]

	mu       sync.RWMutex
	products map[int64]backend.Product
}

type Option func(*History)

func WithCache(c ProductCache) Option {
	return func(h *History) { h.cache = c }
}

func WithMetrics(m *metrics.Storefront) Option {
	return func(h *History) { h.metrics = m }
}

// WithFetchLimit bounds concurrent product fetches.
func WithFetchLimit(n int) Option {
	return func(h *History) {
		if n > 0 {
			h.limit = n
		}
	}
}

func NewHistory(api Backend, logg *logger.Logger, opts ...Option) *History {
	h := &History{
		api:      api,
		logg:     logg,
		limit:    defaultFetchLimit,
		view:     pubsub.NewSubject(View{}),
		products: map[int64]backend.Product{},
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.cache == nil {
		h.cache = NewMemoryProductCache(0)
	}
	return h
}

// Load fetches the user's orders and then their product detail. A failed
// order fetch publishes an empty list; failed product fetches only leave
// those lines on their denormalized names.
func (h *History) Load(ctx context.Context) ([]backend.Order, error) {
	h.view.Update(func(v View) View {
		v.Loading = true
		v.Err = nil
		return v
	})

	orders, err := h.api.ListOrders(ctx)
	if err != nil {
		if h.logg != nil {
			h.logg.Error(ctx, "loading orders", err)
		}
		h.view.Publish(View{Products: h.Products(), Err: err})
		return nil, err
	}
	if orders == nil {
		orders = []backend.Order{}
	}

	h.enrich(ctx, orders)
	h.view.Publish(View{Orders: orders, Products: h.Products()})
	return orders, nil
}

// Get fetches one order and enriches its lines. It does not touch the
// published list.
func (h *History) Get(ctx context.Context, orderID int64) (*backend.Order, error) {
	if orderID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := h.api.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	h.enrich(ctx, []backend.Order{*order})
	return order, nil
}

// Orders returns the last published list.
func (h *History) Orders() []backend.Order {
	return h.view.Value().Orders
}

// Products returns a copy of every product detail known so far.
func (h *History) Products() map[int64]backend.Product {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[int64]backend.Product, len(h.products))
	for id, p := range h.products {
		out[id] = p
	}
	return out
}

func (h *History) Product(id int64) (backend.Product, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	p, ok := h.products[id]
	return p, ok
}

// Subscribe registers fn for every view change, starting with the current one.
func (h *History) Subscribe(fn func(View)) func() {
	return h.view.Subscribe(fn)
}

func (h *History) enrich(ctx context.Context, orders []backend.Order) {
	var missing []int64
	for _, id := range ProductIDs(orders) {
		if p, ok := h.cache.Get(ctx, id); ok {
			h.metrics.IncCacheLookup(true)
			h.remember(p)
			continue
		}
		h.metrics.IncCacheLookup(false)
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.limit)
	for _, id := range missing {
		g.Go(func() error {
			p, err := h.api.GetProduct(gctx, id)
			if err != nil || p == nil {
				if h.logg != nil && err != nil {
					h.logg.Warn(h.logg.WithFields(ctx, map[string]any{"product_id": id, "error": err.Error()}), "product detail unavailable")
				}
				return nil
			}
			h.cache.Put(ctx, *p)
			h.remember(*p)
			return nil
		})
	}
	_ = g.Wait()
}

func (h *History) remember(p backend.Product) {
	h.mu.Lock()
	h.products[p.ID] = p
	h.mu.Unlock()
}

// ProductIDs returns the distinct product ids referenced by orders, in
// ascending order.
func ProductIDs(orders []backend.Order) []int64 {
	seen := map[int64]struct{}{}
	var ids []int64
	for _, o := range orders {
		for _, item := range o.Items {
			if item.ProductID <= 0 {
				continue
			}
			if _, ok := seen[item.ProductID]; ok {
				continue
			}
			seen[item.ProductID] = struct{}{}
			ids = append(ids, item.ProductID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// LineName prefers the current product name and falls back to the name
// captured when the order was placed.
func LineName(item backend.OrderItem, products map[int64]backend.Product) string {
	if p, ok := products[item.ProductID]; ok && p.Name != "" {
		return p.Name
	}
	return item.ProductName
}
