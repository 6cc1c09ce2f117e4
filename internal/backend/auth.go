package backend

import (
	"context"
	"net/http"
)

func (c *Client) Login(ctx context.Context, req LoginRequest) (AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, request{name: "auth.login", method: http.MethodPost, path: "/auth/login", body: req}, &out)
	return out, err
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, request{name: "auth.register", method: http.MethodPost, path: "/auth/register", body: req}, &out)
	return out, err
}

// ResetPassword asks the backend to send a reset link to email.
func (c *Client) ResetPassword(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return c.do(ctx, request{name: "auth.reset_password", method: http.MethodPost, path: "/auth/reset-password", body: body}, nil)
}
