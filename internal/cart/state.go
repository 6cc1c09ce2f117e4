// Package cart mirrors the server-authoritative cart. Every mutation ends
// in exactly one publish of the cart stream, except RemoveItem which
// publishes an optimistic value first and the reconciled value second.
package cart

import (
	"context"

	"github.com/angelmondragon/storefront/internal/backend"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/optimistic"
	"github.com/angelmondragon/storefront/pkg/pubsub"
	"github.com/shopspring/decimal"
)

const defaultCategoryLabel = "Uncategorized"

// Backend is the cart slice of the REST client.
type Backend interface {
	GetCart(ctx context.Context) (backend.Cart, error)
	AddCartItem(ctx context.Context, item backend.CartItem) (backend.Cart, error)
	UpdateCartItem(ctx context.Context, itemID int64, quantity int) (backend.Cart, error)
	RemoveCartItem(ctx context.Context, itemID int64) (backend.Cart, error)
	ClearCart(ctx context.Context) (backend.Cart, error)
}

// Labeler names a product's category for the denormalized cart line.
type Labeler interface {
	CategoryLabel(p backend.Product) string
}

type State struct {
	api     Backend
	labels  Labeler
	logg    *logger.Logger
	metrics *metrics.Storefront
	cart    *pubsub.Subject[backend.Cart]
}

type Option func(*State)

func WithLabeler(l Labeler) Option {
	return func(s *State) { s.labels = l }
}

func WithMetrics(m *metrics.Storefront) Option {
	return func(s *State) { s.metrics = m }
}

func NewState(api Backend, logg *logger.Logger, opts ...Option) *State {
	s := &State{
		api:  api,
		logg: logg,
		cart: pubsub.NewSubject(backend.EmptyCart()),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Load fetches the authoritative cart and publishes it. Failures publish
// an empty cart instead of surfacing.
func (s *State) Load(ctx context.Context) backend.Cart {
	cart, err := s.api.GetCart(ctx)
	if err != nil {
		s.logError(ctx, "loading cart", err)
		cart = backend.EmptyCart()
	}
	s.cart.Publish(cart)
	return cart
}

// AddItem posts a line and publishes the backend's cart. The backend merges
// lines for the same product.
func (s *State) AddItem(ctx context.Context, item backend.CartItem) error {
	if item.ProductID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if item.Quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	cart, err := s.api.AddCartItem(ctx, item)
	s.metrics.IncCartMutation("add", err)
	return s.settle(ctx, "adding cart item", cart, err)
}

// AddProduct adds one unit of p, denormalizing its display fields.
func (s *State) AddProduct(ctx context.Context, p backend.Product) error {
	return s.AddItem(ctx, backend.CartItem{
		ProductID:          p.ID,
		ProductName:        p.Name,
		ProductDescription: p.Description,
		ProductImageURL:    p.ImageURL,
		ProductPrice:       p.Price,
		ProductCategory:    s.categoryLabel(p),
		Quantity:           1,
	})
}

// RemoveItem drops the line locally right away, then reconciles with the
// backend's answer or, on failure, with a fresh Load.
func (s *State) RemoveItem(ctx context.Context, itemID int64) error {
	_, err := optimistic.Run(ctx, optimistic.Op[backend.Cart]{
		Apply: func() {
			s.cart.Publish(withoutItem(s.cart.Value(), itemID))
		},
		Commit: func(ctx context.Context) (backend.Cart, error) {
			return s.api.RemoveCartItem(ctx, itemID)
		},
		Reconcile: func(cart backend.Cart) {
			s.cart.Publish(cart)
		},
		Rollback: func(ctx context.Context, err error) {
			s.logError(ctx, "removing cart item", err)
			s.Load(ctx)
		},
	})
	s.metrics.IncCartMutation("remove", err)
	return err
}

// UpdateQuantity sets a line's quantity; zero or less removes the line.
func (s *State) UpdateQuantity(ctx context.Context, itemID int64, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, itemID)
	}
	cart, err := s.api.UpdateCartItem(ctx, itemID, quantity)
	s.metrics.IncCartMutation("update", err)
	return s.settle(ctx, "updating cart quantity", cart, err)
}

// Clear empties the server cart and publishes the result.
func (s *State) Clear(ctx context.Context) error {
	cart, err := s.api.ClearCart(ctx)
	s.metrics.IncCartMutation("clear", err)
	return s.settle(ctx, "clearing cart", cart, err)
}

// Reset publishes an empty cart without calling the backend. Used on
// sign-out.
func (s *State) Reset() {
	s.cart.Publish(backend.EmptyCart())
}

// settle publishes the authoritative cart, or resynchronizes when the
// mutation failed.
func (s *State) settle(ctx context.Context, action string, cart backend.Cart, err error) error {
	if err != nil {
		s.logError(ctx, action, err)
		s.Load(ctx)
		return err
	}
	s.cart.Publish(cart)
	return nil
}

func (s *State) Current() backend.Cart {
	return s.cart.Value()
}

// ItemsCount is the sum of quantities in the current cart.
func (s *State) ItemsCount() int {
	return ItemsCount(s.cart.Value())
}

// Total is the sum of price*quantity in the current cart.
func (s *State) Total() decimal.Decimal {
	return Total(s.cart.Value())
}

// Subscribe registers fn for every published cart, starting with the current one.
func (s *State) Subscribe(fn func(backend.Cart)) func() {
	return s.cart.Subscribe(fn)
}

func ItemsCount(c backend.Cart) int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

func Total(c backend.Cart) decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

func withoutItem(c backend.Cart, itemID int64) backend.Cart {
	items := make([]backend.CartItem, 0, len(c.Items))
	for _, item := range c.Items {
		if item.ID == itemID {
			continue
		}
		items = append(items, item)
	}
	return backend.Cart{ID: c.ID, Items: items}
}

func (s *State) categoryLabel(p backend.Product) string {
	if s.labels != nil {
		if label := s.labels.CategoryLabel(p); label != "" {
			return label
		}
	}
	if p.Category != nil && p.Category.Name != "" {
		return p.Category.Name
	}
	return defaultCategoryLabel
}

func (s *State) logError(ctx context.Context, action string, err error) {
	if s.logg == nil {
		return
	}
	if id := s.cart.Value().ID; id != 0 {
		ctx = s.logg.WithCartID(ctx, id)
	}
	s.logg.Error(ctx, action, err)
}
