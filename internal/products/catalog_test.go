package products

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/storefront/internal/backend"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

type stubCatalog struct {
	products      []backend.Product
	categories    []backend.Category
	err           error
	categoryCalls int
}

func (s *stubCatalog) ListProducts(context.Context) ([]backend.Product, error) {
	return s.products, s.err
}

func (s *stubCatalog) GetProduct(_ context.Context, id int64) (*backend.Product, error) {
	for _, p := range s.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, s.err
}

func (s *stubCatalog) ListCategories(context.Context) ([]backend.Category, error) {
	return s.categories, s.err
}

func (s *stubCatalog) GetCategory(_ context.Context, id int64) (*backend.Category, error) {
	s.categoryCalls++
	for _, c := range s.categories {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, s.err
}

func TestProductsFiltersByCategory(t *testing.T) {
	api := &stubCatalog{products: []backend.Product{
		{ID: 1, Name: "Beans", CategoryID: 2},
		{ID: 2, Name: "Ground", Category: &backend.Category{ID: 3, Name: "Ground"}},
		{ID: 3, Name: "Whole", CategoryID: 2},
	}}
	c := NewCatalog(api, nil)

	all, err := c.Products(context.Background(), 0)
	if err != nil {
		t.Fatalf("products: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 products, got %d", len(all))
	}

	beans, err := c.Products(context.Background(), 2)
	if err != nil {
		t.Fatalf("products: %v", err)
	}
	if len(beans) != 2 || beans[0].ID != 1 || beans[1].ID != 3 {
		t.Fatalf("unexpected filter result %+v", beans)
	}

	ground, _ := c.Products(context.Background(), 3)
	if len(ground) != 1 || ground[0].ID != 2 {
		t.Fatalf("embedded category should match filter, got %+v", ground)
	}
}

func TestCategoryLabel(t *testing.T) {
	api := &stubCatalog{categories: []backend.Category{{ID: 2, Name: "Whole bean"}}}
	c := NewCatalog(api, nil)

	if got := c.CategoryLabel(backend.Product{CategoryID: 2}); got != FallbackCategoryLabel {
		t.Fatalf("unknown category should fall back, got %q", got)
	}
	if _, err := c.Categories(context.Background()); err != nil {
		t.Fatalf("categories: %v", err)
	}
	if got := c.CategoryLabel(backend.Product{CategoryID: 2}); got != "Whole bean" {
		t.Fatalf("expected cached label, got %q", got)
	}
	if got := c.CategoryLabel(backend.Product{Category: &backend.Category{ID: 9, Name: "Special"}}); got != "Special" {
		t.Fatalf("embedded category wins, got %q", got)
	}
	if got := c.CategoryLabel(backend.Product{Category: &backend.Category{ID: 9, Name: " "}}); got != FallbackCategoryLabel {
		t.Fatalf("blank name should fall back, got %q", got)
	}
}

func TestCategoryUsesCache(t *testing.T) {
	api := &stubCatalog{categories: []backend.Category{{ID: 4, Name: "Decaf"}}}
	c := NewCatalog(api, nil)

	for i := 0; i < 2; i++ {
		cat, err := c.Category(context.Background(), 4)
		if err != nil {
			t.Fatalf("category: %v", err)
		}
		if cat.Name != "Decaf" {
			t.Fatalf("unexpected category %+v", cat)
		}
	}
	if api.categoryCalls != 1 {
		t.Fatalf("expected one backend call, got %d", api.categoryCalls)
	}
}

func TestProductErrors(t *testing.T) {
	c := NewCatalog(&stubCatalog{}, nil)
	if _, err := c.Product(context.Background(), 0); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := c.Product(context.Background(), 5); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	failing := NewCatalog(&stubCatalog{err: errors.New("offline")}, nil)
	if _, err := failing.Products(context.Background(), 0); err == nil {
		t.Fatal("expected error")
	}
}
