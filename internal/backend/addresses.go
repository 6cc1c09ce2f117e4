package backend

import (
	"context"
	"net/http"
)

func (c *Client) ListAddresses(ctx context.Context) ([]Address, error) {
	var out []Address
	if err := c.do(ctx, request{name: "address.list", method: http.MethodGet, path: "/address"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateAddress(ctx context.Context, addr Address) (*Address, error) {
	out := &Address{}
	if err := c.do(ctx, request{name: "address.create", method: http.MethodPost, path: "/address", body: addr}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateAddress(ctx context.Context, id int64, addr Address) (*Address, error) {
	out := &Address{}
	if err := c.do(ctx, request{name: "address.update", method: http.MethodPut, path: "/address/" + pathID(id), body: addr}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteAddress(ctx context.Context, id int64) error {
	return c.do(ctx, request{name: "address.delete", method: http.MethodDelete, path: "/address/" + pathID(id)}, nil)
}
