package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// CreateOrder turns the server cart into an order shipped to addressID.
// A 2xx answer without a body yields a nil order.
func (c *Client) CreateOrder(ctx context.Context, addressID int64) (*Order, error) {
	var out *Order
	err := c.do(ctx, request{
		name:   "orders.create",
		method: http.MethodPost,
		path:   "/orders/create",
		query:  url.Values{"addressId": []string{strconv.FormatInt(addressID, 10)}},
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListOrders(ctx context.Context) ([]Order, error) {
	var out []Order
	if err := c.do(ctx, request{name: "orders.list", method: http.MethodGet, path: "/orders"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetOrder(ctx context.Context, orderID int64) (*Order, error) {
	var out *Order
	if err := c.do(ctx, request{name: "orders.get", method: http.MethodGet, path: "/orders/" + pathID(orderID)}, &out); err != nil {
		return nil, err
	}
	return out, nil
}
