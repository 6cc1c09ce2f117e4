// Package products reads the public catalog: products and their
// categories.
package products

import (
	"context"
	"strings"
	"sync"

	"github.com/angelmondragon/storefront/internal/backend"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// FallbackCategoryLabel names products whose category is unknown.
const FallbackCategoryLabel = "Uncategorized"

// Backend is the catalog slice of the REST client.
type Backend interface {
	ListProducts(ctx context.Context) ([]backend.Product, error)
	GetProduct(ctx context.Context, id int64) (*backend.Product, error)
	ListCategories(ctx context.Context) ([]backend.Category, error)
	GetCategory(ctx context.Context, id int64) (*backend.Category, error)
}

// Catalog remembers categories once listed so labels can be resolved
// without another round trip.
type Catalog struct {
	api  Backend
	logg *logger.Logger

	mu         sync.RWMutex
	categories map[int64]backend.Category
}

func NewCatalog(api Backend, logg *logger.Logger) *Catalog {
	return &Catalog{api: api, logg: logg, categories: map[int64]backend.Category{}}
}

// Products lists the catalog. A positive categoryID keeps only that
// category.
func (c *Catalog) Products(ctx context.Context, categoryID int64) ([]backend.Product, error) {
	items, err := c.api.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range items {
		if p.Category != nil {
			c.rememberCategory(*p.Category)
		}
	}
	if categoryID <= 0 {
		return items, nil
	}
	filtered := make([]backend.Product, 0, len(items))
	for _, p := range items {
		if productCategoryID(p) == categoryID {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

func (c *Catalog) Product(ctx context.Context, id int64) (*backend.Product, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	p, err := c.api.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if p.Category != nil {
		c.rememberCategory(*p.Category)
	}
	return p, nil
}

func (c *Catalog) Categories(ctx context.Context) ([]backend.Category, error) {
	items, err := c.api.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	for _, cat := range items {
		c.rememberCategory(cat)
	}
	return items, nil
}

func (c *Catalog) Category(ctx context.Context, id int64) (*backend.Category, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category id is required")
	}
	if cat, ok := c.cachedCategory(id); ok {
		return &cat, nil
	}
	cat, err := c.api.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	c.rememberCategory(*cat)
	return cat, nil
}

// CategoryLabel names p's category from the embedded category, then from
// categories seen so far, then FallbackCategoryLabel.
func (c *Catalog) CategoryLabel(p backend.Product) string {
	if p.Category != nil && strings.TrimSpace(p.Category.Name) != "" {
		return p.Category.Name
	}
	if cat, ok := c.cachedCategory(p.CategoryID); ok && strings.TrimSpace(cat.Name) != "" {
		return cat.Name
	}
	return FallbackCategoryLabel
}

func (c *Catalog) cachedCategory(id int64) (backend.Category, bool) {
	if id <= 0 {
		return backend.Category{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	cat, ok := c.categories[id]
	return cat, ok
}

func (c *Catalog) rememberCategory(cat backend.Category) {
	if cat.ID <= 0 {
		return
	}
	c.mu.Lock()
	c.categories[cat.ID] = cat
	c.mu.Unlock()
}

func productCategoryID(p backend.Product) int64 {
	if p.CategoryID > 0 {
		return p.CategoryID
	}
	if p.Category != nil {
		return p.Category.ID
	}
	return 0
}
