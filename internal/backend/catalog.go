package backend

import (
	"context"
	"net/http"
)

func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var out []Product
	if err := c.do(ctx, request{name: "products.list", method: http.MethodGet, path: "/products"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetProduct(ctx context.Context, id int64) (*Product, error) {
	var out *Product
	if err := c.do(ctx, request{name: "products.get", method: http.MethodGet, path: "/products/" + pathID(id)}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	if err := c.do(ctx, request{name: "category.list", method: http.MethodGet, path: "/category"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetCategory(ctx context.Context, id int64) (*Category, error) {
	var out *Category
	if err := c.do(ctx, request{name: "category.get", method: http.MethodGet, path: "/category/" + pathID(id)}, &out); err != nil {
		return nil, err
	}
	return out, nil
}
