// Package favorites keeps the user's liked products in the local store so
// they survive restarts.
package favorites

import (
	"context"

	"github.com/angelmondragon/storefront/internal/backend"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/localstore"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/pubsub"
)

// List is the favorites stream. Each mutation persists the new list and
// then publishes it once.
type List struct {
	store localstore.Store
	logg  *logger.Logger
	items *pubsub.Subject[[]backend.Product]
}

func NewList(store localstore.Store, logg *logger.Logger) *List {
	return &List{store: store, logg: logg, items: pubsub.NewSubject([]backend.Product{})}
}

// Restore loads the persisted list. A corrupt value is dropped.
func (l *List) Restore(ctx context.Context) []backend.Product {
	var items []backend.Product
	ok, err := localstore.GetJSON(ctx, l.store, localstore.KeyFavorites, &items)
	if err != nil {
		if l.logg != nil {
			l.logg.Warn(l.logg.WithField(ctx, "error", err.Error()), "dropping unreadable favorites")
		}
		_ = l.store.Delete(ctx, localstore.KeyFavorites)
		ok = false
	}
	if !ok || items == nil {
		items = []backend.Product{}
	}
	l.items.Publish(items)
	return items
}

func (l *List) Items() []backend.Product {
	return clone(l.items.Value())
}

func (l *List) Contains(productID int64) bool {
	return indexOf(l.items.Value(), productID) >= 0
}

func (l *List) Count() int {
	return len(l.items.Value())
}

// Add appends p unless it is already present.
func (l *List) Add(ctx context.Context, p backend.Product) error {
	if p.ID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	current := l.items.Value()
	if indexOf(current, p.ID) >= 0 {
		return nil
	}
	return l.commit(ctx, append(clone(current), p))
}

func (l *List) Remove(ctx context.Context, productID int64) error {
	current := l.items.Value()
	i := indexOf(current, productID)
	if i < 0 {
		return nil
	}
	next := make([]backend.Product, 0, len(current)-1)
	next = append(next, current[:i]...)
	next = append(next, current[i+1:]...)
	return l.commit(ctx, next)
}

// Toggle adds p when absent and removes it otherwise. It reports whether p
// is a favorite afterwards.
func (l *List) Toggle(ctx context.Context, p backend.Product) (bool, error) {
	if l.Contains(p.ID) {
		return false, l.Remove(ctx, p.ID)
	}
	if err := l.Add(ctx, p); err != nil {
		return false, err
	}
	return true, nil
}

func (l *List) Clear(ctx context.Context) error {
	if err := l.store.Delete(ctx, localstore.KeyFavorites); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear favorites")
	}
	l.items.Publish([]backend.Product{})
	return nil
}

// Subscribe registers fn for every change, starting with the current list.
func (l *List) Subscribe(fn func([]backend.Product)) func() {
	return l.items.Subscribe(fn)
}

func (l *List) commit(ctx context.Context, next []backend.Product) error {
	if err := localstore.SetJSON(ctx, l.store, localstore.KeyFavorites, next); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save favorites")
	}
	l.items.Publish(next)
	return nil
}

func indexOf(items []backend.Product, id int64) int {
	for i, p := range items {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func clone(items []backend.Product) []backend.Product {
	out := make([]backend.Product, len(items))
	copy(out, items)
	return out
}
