package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/shopspring/decimal"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

type stubAuth struct {
	token        string
	unauthorized int
}

func (s *stubAuth) BearerToken(context.Context) string { return s.token }
func (s *stubAuth) HandleUnauthorized(context.Context) { s.unauthorized++ }

func newTestClient(t *testing.T, rt roundTripFunc, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithHTTPClient(&http.Client{Transport: rt})}, opts...)
	client, err := NewClient("http://api.test/api/", opts...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient("  "); err == nil {
		t.Fatal("expected error for empty base url")
	}
}

func TestClientAttachesBearerAndRequestID(t *testing.T) {
	var captured *http.Request
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		captured = req
		return jsonResponse(http.StatusOK, `{"id":9,"items":[{"id":1,"productId":5,"productPrice":12.5,"quantity":2}]}`), nil
	})
	client.SetAuthenticator(&stubAuth{token: "a.b.c"})

	cart, err := client.GetCart(context.Background())
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if captured.URL.String() != "http://api.test/api/cart" {
		t.Fatalf("unexpected url %q", captured.URL.String())
	}
	if got := captured.Header.Get("Authorization"); got != "Bearer a.b.c" {
		t.Fatalf("unexpected authorization %q", got)
	}
	if captured.Header.Get(requestIDHeader) == "" {
		t.Fatal("expected request id header")
	}
	if cart.ID != 9 || len(cart.Items) != 1 || !cart.Items[0].ProductPrice.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("unexpected cart %+v", cart)
	}
}

func TestClientOmitsBearerWithoutToken(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.Header.Get("Authorization") != "" {
			t.Fatalf("unexpected authorization header")
		}
		return jsonResponse(http.StatusOK, `[]`), nil
	})
	client.SetAuthenticator(&stubAuth{})
	if _, err := client.ListProducts(context.Background()); err != nil {
		t.Fatalf("list products: %v", err)
	}
}

func TestClientUnauthorizedInvokesHandler(t *testing.T) {
	auth := &stubAuth{token: "a.b.c"}
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusUnauthorized, `{"message":"token expired"}`), nil
	})
	client.SetAuthenticator(auth)

	_, err := client.GetCart(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if auth.unauthorized != 1 {
		t.Fatalf("expected unauthorized hook once, got %d", auth.unauthorized)
	}
	if pkgerrors.StatusOf(err) != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", pkgerrors.StatusOf(err))
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Message() != "token expired" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestClientCartMutationRequests(t *testing.T) {
	type call struct{ method, url, body string }
	var calls []call
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		var body string
		if req.Body != nil {
			b, _ := io.ReadAll(req.Body)
			body = string(b)
		}
		calls = append(calls, call{req.Method, req.URL.String(), body})
		return jsonResponse(http.StatusOK, `{"id":1}`), nil
	})
	ctx := context.Background()

	if _, err := client.AddCartItem(ctx, CartItem{ProductID: 3, ProductPrice: decimal.RequireFromString("4.25"), Quantity: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := client.UpdateCartItem(ctx, 7, 3); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := client.RemoveCartItem(ctx, 7); err != nil {
		t.Fatalf("remove: %v", err)
	}
	cart, err := client.ClearCart(ctx)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if cart.Items == nil {
		t.Fatal("expected normalized empty items")
	}

	want := []call{
		{http.MethodPost, "http://api.test/api/cart/add", ""},
		{http.MethodPut, "http://api.test/api/cart/update/7?quantity=3", ""},
		{http.MethodDelete, "http://api.test/api/cart/remove/7", ""},
		{http.MethodDelete, "http://api.test/api/cart/clear", ""},
	}
	if len(calls) != len(want) {
		t.Fatalf("expected %d calls, got %d", len(want), len(calls))
	}
	for i := range want {
		if calls[i].method != want[i].method || calls[i].url != want[i].url {
			t.Fatalf("call %d: got %s %s", i, calls[i].method, calls[i].url)
		}
	}
	var posted map[string]any
	if err := json.Unmarshal([]byte(calls[0].body), &posted); err != nil {
		t.Fatalf("decode add body: %v", err)
	}
	if posted["productPrice"] != 4.25 {
		t.Fatalf("expected numeric price, got %#v", posted["productPrice"])
	}
}

func TestClientCheckoutRequests(t *testing.T) {
	var urls []string
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		urls = append(urls, req.URL.String())
		switch {
		case strings.Contains(req.URL.Path, "/orders/create"):
			return jsonResponse(http.StatusOK, `{"id":42,"status":"PENDING","total":"10.00"}`), nil
		case strings.Contains(req.URL.Path, "/stripe/checkout-session"):
			return jsonResponse(http.StatusOK, `{"checkoutUrl":"https://pay/x","sessionId":"cs_1"}`), nil
		}
		return jsonResponse(http.StatusOK, `{"paid":true}`), nil
	})
	ctx := context.Background()

	order, err := client.CreateOrder(ctx, 7)
	if err != nil || order == nil || order.ID != 42 {
		t.Fatalf("create order: %+v %v", order, err)
	}
	session, err := client.CreateCheckoutSession(ctx, order.ID, "http://localhost:4200/payment-success", "")
	if err != nil || session.CheckoutURL != "https://pay/x" {
		t.Fatalf("create session: %+v %v", session, err)
	}
	verification, err := client.VerifyPayment(ctx, "cs_1")
	if err != nil || !verification.Confirmed() {
		t.Fatalf("verify: %+v %v", verification, err)
	}

	if urls[0] != "http://api.test/api/orders/create?addressId=7" {
		t.Fatalf("unexpected create order url %q", urls[0])
	}
	if !strings.HasPrefix(urls[1], "http://api.test/api/stripe/checkout-session?") || !strings.Contains(urls[1], "orderId=42") {
		t.Fatalf("unexpected session url %q", urls[1])
	}
	if strings.Contains(urls[1], "cancelUrl") {
		t.Fatalf("empty cancel url should be omitted: %q", urls[1])
	}
	if urls[2] != "http://api.test/api/stripe/verify-payment/cs_1" {
		t.Fatalf("unexpected verify url %q", urls[2])
	}
}

func TestCreateOrderEmptyBodyYieldsNil(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, ``), nil
	})
	order, err := client.CreateOrder(context.Background(), 1)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order != nil {
		t.Fatalf("expected nil order, got %+v", order)
	}
}

func TestPaymentVerificationConfirmed(t *testing.T) {
	yes, no := true, false
	cases := []struct {
		name string
		v    *PaymentVerification
		want bool
	}{
		{"nil", nil, false},
		{"empty body", &PaymentVerification{}, true},
		{"paid", &PaymentVerification{Paid: &yes}, true},
		{"unpaid", &PaymentVerification{Paid: &no, Status: "PAID"}, false},
		{"status paid", &PaymentVerification{Status: "paid"}, true},
		{"status pending", &PaymentVerification{Status: "PENDING"}, false},
		{"unknown status", &PaymentVerification{Status: "complete"}, true},
	}
	for _, tc := range cases {
		if got := tc.v.Confirmed(); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestUserAcceptsNumericID(t *testing.T) {
	var u User
	if err := json.Unmarshal([]byte(`{"id":12,"username":"ana","email":"a@b.c"}`), &u); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if u.ID != "12" || u.Username != "ana" {
		t.Fatalf("unexpected user %+v", u)
	}
	if err := json.Unmarshal([]byte(`{"id":"u-1"}`), &u); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if u.ID != "u-1" {
		t.Fatalf("unexpected id %q", u.ID)
	}
}

func TestOrderHelpers(t *testing.T) {
	sub := decimal.RequireFromString("9.00")
	order := Order{Items: []OrderItem{
		{Quantity: 2, Price: decimal.RequireFromString("3.50")},
		{Quantity: 1, Price: decimal.RequireFromString("1.00"), Subtotal: &sub},
	}}
	if order.ItemCount() != 3 {
		t.Fatalf("expected 3 items, got %d", order.ItemCount())
	}
	if !order.Items[0].LineTotal().Equal(decimal.RequireFromString("7")) {
		t.Fatalf("unexpected line total %s", order.Items[0].LineTotal())
	}
	if !order.Items[1].LineTotal().Equal(sub) {
		t.Fatalf("expected subtotal to win")
	}
}

func TestBreakerOpensAfterServerErrors(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(http.StatusBadGateway, `upstream down`), nil
	}, WithBreaker(config.BreakerConfig{MaxRequests: 1, Timeout: time.Minute, ConsecutiveFailures: 2}))

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := client.ListProducts(ctx); err == nil {
			t.Fatal("expected error")
		}
	}
	_, err := client.ListProducts(ctx)
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected breaker to short-circuit third call, got %d calls", calls)
	}
}

func TestBreakerIgnoresClientErrors(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(http.StatusNotFound, `{"error":"missing"}`), nil
	}, WithBreaker(config.BreakerConfig{MaxRequests: 1, Timeout: time.Minute, ConsecutiveFailures: 1}))

	for i := 0; i < 3; i++ {
		_, err := client.GetProduct(context.Background(), 99)
		if pkgerrors.StatusOf(err) != http.StatusNotFound {
			t.Fatalf("expected 404, got %v", err)
		}
	}
	if calls != 3 {
		t.Fatalf("expected all calls to reach the backend, got %d", calls)
	}
}

func TestClientAgainstHTTPServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/address":
			_, _ = w.Write([]byte(`[{"id":1,"name":"Ana","city":"Lima"}]`))
		case r.Method == http.MethodDelete && r.URL.Path == "/api/address/1":
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL + "/api")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	addrs, err := client.ListAddresses(context.Background())
	if err != nil || len(addrs) != 1 || addrs[0].City != "Lima" {
		t.Fatalf("list addresses: %+v %v", addrs, err)
	}
	if err := client.DeleteAddress(context.Background(), 1); err != nil {
		t.Fatalf("delete address: %v", err)
	}
	if _, err := client.GetCategory(context.Background(), 5); pkgerrors.StatusOf(err) != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestTransportErrorIsDependency(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})
	_, err := client.ListOrders(context.Background())
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
