package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// CreateCheckoutSession requests a hosted payment page for orderID. The
// success and cancel URLs are where the processor sends the user back.
func (c *Client) CreateCheckoutSession(ctx context.Context, orderID int64, successURL, cancelURL string) (*CheckoutSession, error) {
	query := url.Values{"orderId": []string{strconv.FormatInt(orderID, 10)}}
	if successURL != "" {
		query.Set("successUrl", successURL)
	}
	if cancelURL != "" {
		query.Set("cancelUrl", cancelURL)
	}
	var out *CheckoutSession
	err := c.do(ctx, request{
		name:   "payments.checkout_session",
		method: http.MethodPost,
		path:   "/stripe/checkout-session",
		query:  query,
		body:   struct{}{},
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// VerifyPayment asks the backend whether the hosted session was paid.
func (c *Client) VerifyPayment(ctx context.Context, sessionID string) (*PaymentVerification, error) {
	out := &PaymentVerification{}
	err := c.do(ctx, request{
		name:   "payments.verify",
		method: http.MethodGet,
		path:   "/stripe/verify-payment/" + url.PathEscape(sessionID),
	}, out)
	if err != nil {
		return nil, err
	}
	return out, nil
}
