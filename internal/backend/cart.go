package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// GetCart fetches the authoritative cart.
func (c *Client) GetCart(ctx context.Context) (Cart, error) {
	var out Cart
	err := c.do(ctx, request{name: "cart.get", method: http.MethodGet, path: "/cart"}, &out)
	return normalizeCart(out), err
}

// AddCartItem posts a new or incremented line. The backend merges lines
// for the same product.
func (c *Client) AddCartItem(ctx context.Context, item CartItem) (Cart, error) {
	var out Cart
	err := c.do(ctx, request{name: "cart.add", method: http.MethodPost, path: "/cart/add", body: item}, &out)
	return normalizeCart(out), err
}

func (c *Client) UpdateCartItem(ctx context.Context, itemID int64, quantity int) (Cart, error) {
	var out Cart
	err := c.do(ctx, request{
		name:   "cart.update",
		method: http.MethodPut,
		path:   "/cart/update/" + pathID(itemID),
		query:  url.Values{"quantity": []string{strconv.Itoa(quantity)}},
	}, &out)
	return normalizeCart(out), err
}

func (c *Client) RemoveCartItem(ctx context.Context, itemID int64) (Cart, error) {
	var out Cart
	err := c.do(ctx, request{name: "cart.remove", method: http.MethodDelete, path: "/cart/remove/" + pathID(itemID)}, &out)
	return normalizeCart(out), err
}

func (c *Client) ClearCart(ctx context.Context) (Cart, error) {
	var out Cart
	err := c.do(ctx, request{name: "cart.clear", method: http.MethodDelete, path: "/cart/clear"}, &out)
	return normalizeCart(out), err
}

func normalizeCart(c Cart) Cart {
	if c.Items == nil {
		c.Items = []CartItem{}
	}
	return c
}
