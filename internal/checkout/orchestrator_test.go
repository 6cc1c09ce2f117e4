package checkout

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/angelmondragon/storefront/internal/backend"
	"github.com/angelmondragon/storefront/internal/navigation"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/localstore"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBackend struct {
	orderAddressIDs []int64
	sessionOrderIDs []int64
	verifyCalls     int

	order      *backend.Order
	orderErr   error
	session    *backend.CheckoutSession
	sessionErr error
	// verify answers per attempt; the last one repeats
	verify   []verifyAnswer
	onVerify func()
}

type verifyAnswer struct {
	result *backend.PaymentVerification
	err    error
}

func (s *stubBackend) CreateOrder(_ context.Context, addressID int64) (*backend.Order, error) {
	s.orderAddressIDs = append(s.orderAddressIDs, addressID)
	return s.order, s.orderErr
}

func (s *stubBackend) CreateCheckoutSession(_ context.Context, orderID int64, _, _ string) (*backend.CheckoutSession, error) {
	s.sessionOrderIDs = append(s.sessionOrderIDs, orderID)
	return s.session, s.sessionErr
}

func (s *stubBackend) VerifyPayment(context.Context, string) (*backend.PaymentVerification, error) {
	s.verifyCalls++
	if s.onVerify != nil {
		s.onVerify()
	}
	i := s.verifyCalls - 1
	if i >= len(s.verify) {
		i = len(s.verify) - 1
	}
	return s.verify[i].result, s.verify[i].err
}

func (s *stubBackend) networkCalls() int {
	return len(s.orderAddressIDs) + len(s.sessionOrderIDs) + s.verifyCalls
}

type countingCart struct{ loads int }

func (c *countingCart) Load(context.Context) backend.Cart {
	c.loads++
	return backend.EmptyCart()
}

type fixedAuth bool

func (a fixedAuth) IsAuthenticated(context.Context) bool { return bool(a) }

type harness struct {
	api   *stubBackend
	cart  *countingCart
	nav   *navigation.Navigator
	store *localstore.Memory
	sched *scheduler.Manual
	orch  *Orchestrator
	steps []enums.CheckoutStep
}

func newHarness(t *testing.T, api *stubBackend) *harness {
	t.Helper()
	h := &harness{
		api:   api,
		cart:  &countingCart{},
		nav:   navigation.New("/cart"),
		store: localstore.NewMemory(),
		sched: scheduler.NewManual(),
	}
	h.orch = New(Deps{
		API:      api,
		Cart:     h.cart,
		Nav:      h.nav,
		Session:  fixedAuth(true),
		Store:    h.store,
		Sched:    h.sched,
		Settings: DefaultSettings(),
		Logger:   logger.Nop(),
	})
	cancel := h.orch.SubscribeSteps(func(s enums.CheckoutStep) { h.steps = append(h.steps, s) })
	t.Cleanup(cancel)
	return h
}

func addresses(ids ...int64) []backend.Address {
	out := make([]backend.Address, 0, len(ids))
	for _, id := range ids {
		out = append(out, backend.Address{ID: id})
	}
	return out
}

func paid() *backend.PaymentVerification {
	yes := true
	return &backend.PaymentVerification{Paid: &yes}
}

func TestProcessCheckoutHappyPath(t *testing.T) {
	h := newHarness(t, &stubBackend{
		order:   &backend.Order{ID: 42},
		session: &backend.CheckoutSession{CheckoutURL: "https://pay/x", SessionID: "cs_1"},
	})

	res, err := h.orch.ProcessCheckout(context.Background(), Request{Addresses: addresses(3, 7), SelectedAddressID: 7})
	require.NoError(t, err)

	assert.Equal(t, []int64{7}, h.api.orderAddressIDs)
	assert.Equal(t, []int64{42}, h.api.sessionOrderIDs)
	assert.Equal(t, navigation.Target{URL: "https://pay/x", External: true}, h.nav.Last())
	assert.Equal(t, "/cart", h.nav.Location())
	assert.Equal(t, int64(42), res.Order.ID)

	assert.Equal(t, []enums.CheckoutStep{
		enums.CheckoutStepIdle,
		enums.CheckoutStepAddressSelected,
		enums.CheckoutStepOrderCreating,
		enums.CheckoutStepOrderCreated,
		enums.CheckoutStepPaymentSessionCreating,
		enums.CheckoutStepRedirected,
	}, h.steps)

	pending, ok := h.orch.PendingOrder(context.Background())
	assert.True(t, ok)
	assert.Equal(t, int64(42), pending)
}

func TestProcessCheckoutGuards(t *testing.T) {
	h := newHarness(t, &stubBackend{})
	ctx := context.Background()

	_, err := h.orch.ProcessCheckout(ctx, Request{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNoAddresses))
	assert.Equal(t, pkgerrors.MsgNoAddresses, pkgerrors.UserMessage(err))

	_, err = h.orch.ProcessCheckout(ctx, Request{Addresses: addresses(1)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeAddressNotSelected))
	assert.Equal(t, pkgerrors.MsgAddressNotSelected, pkgerrors.UserMessage(err))

	_, err = h.orch.ProcessCheckout(ctx, Request{Addresses: addresses(1), SelectedAddressID: 99})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeAddressNotSelected))

	assert.Zero(t, h.api.networkCalls())
	assert.Equal(t, []enums.CheckoutStep{enums.CheckoutStepIdle}, h.steps)
}

func TestProcessCheckoutRequiresSession(t *testing.T) {
	api := &stubBackend{}
	orch := New(Deps{API: api, Session: fixedAuth(false), Sched: scheduler.NewManual(), Settings: DefaultSettings()})
	_, err := orch.ProcessCheckout(context.Background(), Request{Addresses: addresses(1), SelectedAddressID: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
	assert.Zero(t, api.networkCalls())
}

func TestProcessCheckoutOrderFailuresAreTerminal(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"bad request", pkgerrors.FromStatus(http.StatusBadRequest, "invalid address"), pkgerrors.MsgInvalidInput},
		{"expired", pkgerrors.FromStatus(http.StatusUnauthorized, "expired"), pkgerrors.MsgSessionExpired},
		{"forbidden", pkgerrors.FromStatus(http.StatusForbidden, "nope"), pkgerrors.MsgUnauthorized},
		{"server", pkgerrors.FromStatus(http.StatusInternalServerError, "boom"), pkgerrors.MsgOrderCreate},
		{"nil order", nil, pkgerrors.MsgOrderCreate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, &stubBackend{orderErr: tc.err})
			_, err := h.orch.ProcessCheckout(context.Background(), Request{Addresses: addresses(7), SelectedAddressID: 7})
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeOrderCreateFailed))
			assert.Equal(t, tc.wantMsg, pkgerrors.UserMessage(err))
			assert.Len(t, h.api.orderAddressIDs, 1, "order creation is never retried")
			assert.Empty(t, h.api.sessionOrderIDs)
			assert.Equal(t, enums.CheckoutStepFailed, h.orch.Step())
			assert.False(t, h.nav.Last().External)
		})
	}
}

func TestProcessCheckoutSessionFailures(t *testing.T) {
	cases := []struct {
		name    string
		session *backend.CheckoutSession
		err     error
		wantMsg string
	}{
		{"no url", &backend.CheckoutSession{SessionID: "cs"}, nil, pkgerrors.MsgPaymentSession},
		{"nil session", nil, nil, pkgerrors.MsgPaymentSession},
		{"forbidden", nil, pkgerrors.FromStatus(http.StatusForbidden, "nope"), pkgerrors.MsgUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, &stubBackend{order: &backend.Order{ID: 5}, session: tc.session, sessionErr: tc.err})
			_, err := h.orch.ProcessCheckout(context.Background(), Request{Addresses: addresses(7), SelectedAddressID: 7})
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodePaymentSessionFailed))
			assert.Equal(t, tc.wantMsg, pkgerrors.UserMessage(err))
			assert.Len(t, h.api.sessionOrderIDs, 1)
			assert.Equal(t, enums.CheckoutStepFailed, h.orch.Step())
			assert.False(t, h.nav.Last().External)
		})
	}
}

func TestVerificationSucceedsOnThirdAttempt(t *testing.T) {
	unpaid := false
	h := newHarness(t, &stubBackend{verify: []verifyAnswer{
		{err: pkgerrors.FromStatus(http.StatusNotFound, "not yet")},
		{result: &backend.PaymentVerification{Paid: &unpaid}},
		{result: paid()},
	}})
	require.NoError(t, h.store.Set(context.Background(), localstore.KeyPendingOrder, "42"))

	v, err := h.orch.HandleReturn(context.Background(), "cs_1")
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStepVerifyingPayment, h.orch.Step())

	h.sched.Advance(999 * time.Millisecond)
	assert.Zero(t, h.api.verifyCalls, "grace delay must elapse first")

	h.sched.RunAll()

	step, err := v.Result()
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStepPaymentConfirmed, step)
	assert.Equal(t, enums.CheckoutStepPaymentConfirmed, h.orch.Step())
	assert.Equal(t, 3, v.Attempts())
	assert.Equal(t, 1, h.cart.loads, "cart resync exactly once")
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 2 * time.Second}, h.sched.Delays())

	_, ok := h.orch.PendingOrder(context.Background())
	assert.False(t, ok, "pending marker cleared on confirmation")

	select {
	case <-v.Done():
	default:
		t.Fatal("verification should be settled")
	}
}

func TestVerificationStopsAtFirstSuccess(t *testing.T) {
	h := newHarness(t, &stubBackend{verify: []verifyAnswer{{result: paid()}}})
	v, err := h.orch.HandleReturn(context.Background(), "cs_1")
	require.NoError(t, err)

	h.sched.RunAll()
	assert.Equal(t, 1, v.Attempts())
	assert.Equal(t, 1, h.cart.loads)
	assert.Zero(t, h.sched.Pending())
}

func TestVerificationExhaustsAfterThreeAttempts(t *testing.T) {
	h := newHarness(t, &stubBackend{verify: []verifyAnswer{{err: errors.New("timeout")}}})
	require.NoError(t, h.store.Set(context.Background(), localstore.KeyPendingOrder, "42"))

	v, err := h.orch.HandleReturn(context.Background(), "cs_1")
	require.NoError(t, err)

	h.sched.Advance(time.Second)
	assert.Equal(t, 1, h.api.verifyCalls)
	h.sched.Advance(2*time.Second - time.Millisecond)
	assert.Equal(t, 1, h.api.verifyCalls, "backoff separates attempts")
	h.sched.Advance(time.Millisecond)
	assert.Equal(t, 2, h.api.verifyCalls)
	h.sched.Advance(2 * time.Second)
	assert.Equal(t, 3, h.api.verifyCalls)
	h.sched.Advance(time.Minute)
	assert.Equal(t, 3, h.api.verifyCalls, "no attempts past the budget")

	step, verr := v.Result()
	assert.Equal(t, enums.CheckoutStepPaymentFailed, step)
	assert.True(t, pkgerrors.IsCode(verr, pkgerrors.CodePaymentUnverified))
	assert.Equal(t, pkgerrors.MsgPaymentUnverified, pkgerrors.UserMessage(verr))
	assert.Equal(t, enums.CheckoutStepPaymentFailed, h.orch.Step())
	assert.Zero(t, h.cart.loads, "cart resync never triggered")
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 2 * time.Second}, h.sched.Delays())

	_, ok := h.orch.PendingOrder(context.Background())
	assert.True(t, ok, "pending marker kept after failure")
}

func TestVerificationWait(t *testing.T) {
	h := newHarness(t, &stubBackend{verify: []verifyAnswer{{result: paid()}}})
	v, err := h.orch.HandleReturn(context.Background(), "cs_1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	step, err := v.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, enums.CheckoutStepVerifyingPayment, step)

	h.sched.RunAll()
	step, err = v.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStepPaymentConfirmed, step)
}

func TestCloseCancelsPendingVerification(t *testing.T) {
	h := newHarness(t, &stubBackend{verify: []verifyAnswer{{err: errors.New("timeout")}}})
	v, err := h.orch.HandleReturn(context.Background(), "cs_1")
	require.NoError(t, err)
	h.sched.Advance(time.Second)

	h.orch.Close()
	assert.Zero(t, h.sched.Pending())
	h.sched.RunAll()
	assert.Equal(t, 1, h.api.verifyCalls)

	_, verr := v.Result()
	assert.ErrorIs(t, verr, context.Canceled)
	assert.Equal(t, enums.CheckoutStepVerifyingPayment, h.orch.Step())

	_, err = h.orch.HandleReturn(context.Background(), "cs_2")
	assert.Error(t, err)
}

func TestVerificationExhaustedAfterClientError(t *testing.T) {
	h := newHarness(t, &stubBackend{verify: []verifyAnswer{{err: pkgerrors.FromStatus(http.StatusBadRequest, "unknown session")}}})
	v, err := h.orch.HandleReturn(context.Background(), "cs_1")
	require.NoError(t, err)

	h.sched.Advance(time.Second)
	h.sched.Advance(2 * time.Second)
	h.sched.Advance(2 * time.Second)
	assert.Equal(t, 3, h.api.verifyCalls)

	step, verr := v.Result()
	assert.Equal(t, enums.CheckoutStepPaymentFailed, step)
	assert.Equal(t, pkgerrors.MsgPaymentUnverified, pkgerrors.UserMessage(verr))
}

func TestCloseDuringVerifyCallSkipsSideEffects(t *testing.T) {
	api := &stubBackend{verify: []verifyAnswer{{result: paid()}}}
	h := newHarness(t, api)
	require.NoError(t, h.store.Set(context.Background(), localstore.KeyPendingOrder, "42"))
	api.onVerify = h.orch.Close

	v, err := h.orch.HandleReturn(context.Background(), "cs_1")
	require.NoError(t, err)
	h.sched.Advance(time.Second)
	assert.Equal(t, 1, api.verifyCalls)

	_, verr := v.Result()
	assert.ErrorIs(t, verr, context.Canceled)
	assert.Zero(t, h.cart.loads, "no cart resync after teardown")
	assert.Equal(t, enums.CheckoutStepVerifyingPayment, h.orch.Step())
	assert.NotContains(t, h.steps, enums.CheckoutStepPaymentConfirmed)
	_, ok := h.orch.PendingOrder(context.Background())
	assert.True(t, ok, "pending marker untouched")
}

func TestHandleReturnRequiresSessionID(t *testing.T) {
	h := newHarness(t, &stubBackend{})
	_, err := h.orch.HandleReturn(context.Background(), "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Zero(t, h.sched.Pending())
}

func TestHandleCancelKeepsPendingOrder(t *testing.T) {
	h := newHarness(t, &stubBackend{})
	require.NoError(t, h.store.Set(context.Background(), localstore.KeyPendingOrder, "42"))

	id, ok := h.orch.HandleCancel(context.Background())
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, enums.CheckoutStepPaymentCancelled, h.orch.Step())
}
