// Package checkout drives the handoff to the hosted payment page (create
// order, create payment session, redirect) and the verification that runs
// when the user comes back.
package checkout

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/angelmondragon/storefront/internal/backend"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/localstore"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/pubsub"
	"github.com/angelmondragon/storefront/pkg/scheduler"
)

// Backend is the order and payment slice of the REST client.
type Backend interface {
	CreateOrder(ctx context.Context, addressID int64) (*backend.Order, error)
	CreateCheckoutSession(ctx context.Context, orderID int64, successURL, cancelURL string) (*backend.CheckoutSession, error)
	VerifyPayment(ctx context.Context, sessionID string) (*backend.PaymentVerification, error)
}

// CartSyncer reloads the authoritative cart.
type CartSyncer interface {
	Load(ctx context.Context) backend.Cart
}

// Redirector hands control to an external URL.
type Redirector interface {
	Redirect(externalURL string)
}

// Authorizer reports whether a usable session exists.
type Authorizer interface {
	IsAuthenticated(ctx context.Context) bool
}

// Settings are the timing and return-URL knobs of the flow.
type Settings struct {
	GraceDelay  time.Duration
	MaxAttempts int
	Backoff     time.Duration
	SuccessURL  string
	CancelURL   string
}

func SettingsFromConfig(cfg config.CheckoutConfig) Settings {
	return Settings{
		GraceDelay:  cfg.GraceDelay,
		MaxAttempts: cfg.MaxAttempts,
		Backoff:     cfg.Backoff,
		SuccessURL:  cfg.SuccessURL,
		CancelURL:   cfg.CancelURL,
	}
}

// DefaultSettings match the stock configuration: 1s grace, 3 attempts, 2s
// apart.
func DefaultSettings() Settings {
	return Settings{GraceDelay: time.Second, MaxAttempts: 3, Backoff: 2 * time.Second}
}

// Request carries the user's saved addresses and the one chosen for
// shipping.
type Request struct {
	Addresses         []backend.Address
	SelectedAddressID int64
}

// Result is what a successful handoff produced before control left the client.
type Result struct {
	Order   *backend.Order
	Session *backend.CheckoutSession
}

type Deps struct {
	API      Backend
	Cart     CartSyncer
	Nav      Redirector
	Session  Authorizer
	Store    localstore.Store
	Sched    scheduler.Scheduler
	Settings Settings
	Logger   *logger.Logger
	Metrics  *metrics.Storefront
}

type Orchestrator struct {
	api      Backend
	cart     CartSyncer
	nav      Redirector
	session  Authorizer
	store    localstore.Store
	sched    scheduler.Scheduler
	settings Settings
	logg     *logger.Logger
	metrics  *metrics.Storefront
	step     *pubsub.Subject[enums.CheckoutStep]

	mu     sync.Mutex
	active map[*Verification]struct{}
	closed bool
}

func New(deps Deps) *Orchestrator {
	settings := deps.Settings
	if settings.MaxAttempts < 1 {
		settings.MaxAttempts = 1
	}
	sched := deps.Sched
	if sched == nil {
		sched = scheduler.Real()
	}
	return &Orchestrator{
		api:      deps.API,
		cart:     deps.Cart,
		nav:      deps.Nav,
		session:  deps.Session,
		store:    deps.Store,
		sched:    sched,
		settings: settings,
		logg:     deps.Logger,
		metrics:  deps.Metrics,
		step:     pubsub.NewSubject(enums.CheckoutStepIdle),
		active:   map[*Verification]struct{}{},
	}
}

// Step returns the latest published step.
func (o *Orchestrator) Step() enums.CheckoutStep {
	return o.step.Value()
}

// SubscribeSteps registers fn for every step, starting with the current one.
func (o *Orchestrator) SubscribeSteps(fn func(enums.CheckoutStep)) func() {
	return o.step.Subscribe(fn)
}

// ProcessCheckout creates the order for the selected address, opens a
// payment session for it and redirects to the hosted page. Guard failures
// happen before any network call. Order and session failures are terminal.
func (o *Orchestrator) ProcessCheckout(ctx context.Context, req Request) (*Result, error) {
	if len(req.Addresses) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNoAddresses, "no saved addresses")
	}
	if req.SelectedAddressID == 0 || !containsAddress(req.Addresses, req.SelectedAddressID) {
		return nil, pkgerrors.New(pkgerrors.CodeAddressNotSelected, "no shipping address selected")
	}
	if o.session != nil && !o.session.IsAuthenticated(ctx) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to check out")
	}

	o.step.Publish(enums.CheckoutStepAddressSelected)
	ctx = o.withField(ctx, "address_id", req.SelectedAddressID)

	o.step.Publish(enums.CheckoutStepOrderCreating)
	order, err := o.api.CreateOrder(ctx, req.SelectedAddressID)
	if err != nil {
		return nil, o.fail(ctx, pkgerrors.Wrap(pkgerrors.CodeOrderCreateFailed, err, "create order"))
	}
	if order == nil || order.ID == 0 {
		return nil, o.fail(ctx, pkgerrors.New(pkgerrors.CodeOrderCreateFailed, "backend returned no order"))
	}
	if o.logg != nil {
		ctx = o.logg.WithOrderID(ctx, order.ID)
	}
	o.step.Publish(enums.CheckoutStepOrderCreated)
	o.markPending(ctx, order.ID)

	o.step.Publish(enums.CheckoutStepPaymentSessionCreating)
	session, err := o.api.CreateCheckoutSession(ctx, order.ID, o.settings.SuccessURL, o.settings.CancelURL)
	if err != nil {
		return nil, o.fail(ctx, pkgerrors.Wrap(pkgerrors.CodePaymentSessionFailed, err, "create payment session"))
	}
	if session == nil || session.CheckoutURL == "" {
		return nil, o.fail(ctx, pkgerrors.New(pkgerrors.CodePaymentSessionFailed, "backend returned no payment url"))
	}

	o.step.Publish(enums.CheckoutStepRedirected)
	o.metrics.IncCheckout(enums.CheckoutStepRedirected.String())
	if o.nav != nil {
		o.nav.Redirect(session.CheckoutURL)
	}
	if o.logg != nil {
		o.logg.Info(ctx, "redirecting to hosted payment page")
	}
	return &Result{Order: order, Session: session}, nil
}

// HandleReturn starts verifying the payment session the user came back
// with. Verification waits the grace delay, then tries up to MaxAttempts
// times, Backoff apart, stopping at the first confirmation.
func (o *Orchestrator) HandleReturn(ctx context.Context, sessionID string) (*Verification, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment session id is required")
	}

	v := newVerification(o, o.withField(ctx, "session_id", sessionID), sessionID)
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		v.cancel()
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "checkout orchestrator closed")
	}
	o.active[v] = struct{}{}
	o.mu.Unlock()

	o.step.Publish(enums.CheckoutStepVerifyingPayment)
	v.schedule(o.settings.GraceDelay)
	return v, nil
}

// HandleCancel records that the user abandoned the hosted page. The
// pending order marker is kept so the order can be paid later; its id is
// returned when present.
func (o *Orchestrator) HandleCancel(ctx context.Context) (int64, bool) {
	o.step.Publish(enums.CheckoutStepPaymentCancelled)
	o.metrics.IncCheckout(enums.CheckoutStepPaymentCancelled.String())
	return o.PendingOrder(ctx)
}

// PendingOrder returns the order created by the last unfinished checkout.
func (o *Orchestrator) PendingOrder(ctx context.Context) (int64, bool) {
	if o.store == nil {
		return 0, false
	}
	raw, ok, err := o.store.Get(ctx, localstore.KeyPendingOrder)
	if err != nil || !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Close cancels every running verification and its pending timer. Later
// HandleReturn calls fail.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	o.closed = true
	active := make([]*Verification, 0, len(o.active))
	for v := range o.active {
		active = append(active, v)
	}
	o.mu.Unlock()

	for _, v := range active {
		v.Cancel()
	}
}

func (o *Orchestrator) confirm(ctx context.Context) {
	if o.cart != nil {
		o.cart.Load(ctx)
	}
	if o.store != nil {
		if err := o.store.Delete(ctx, localstore.KeyPendingOrder); err != nil && o.logg != nil {
			o.logg.Warn(o.logg.WithField(ctx, "error", err.Error()), "clearing pending order marker")
		}
	}
	o.step.Publish(enums.CheckoutStepPaymentConfirmed)
	o.metrics.IncCheckout(enums.CheckoutStepPaymentConfirmed.String())
	if o.logg != nil {
		o.logg.Info(ctx, "payment confirmed")
	}
}

func (o *Orchestrator) exhausted(ctx context.Context, err error) {
	o.step.Publish(enums.CheckoutStepPaymentFailed)
	o.metrics.IncCheckout(enums.CheckoutStepPaymentFailed.String())
	if o.logg != nil {
		o.logg.Error(ctx, "payment verification exhausted", err)
	}
}

func (o *Orchestrator) release(v *Verification) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.active, v)
}

func (o *Orchestrator) fail(ctx context.Context, err *pkgerrors.Error) error {
	o.step.Publish(enums.CheckoutStepFailed)
	o.metrics.IncCheckout(enums.CheckoutStepFailed.String())
	if o.logg != nil {
		o.logg.Error(ctx, "checkout failed", err)
	}
	return err
}

func (o *Orchestrator) markPending(ctx context.Context, orderID int64) {
	if o.store == nil {
		return
	}
	if err := o.store.Set(ctx, localstore.KeyPendingOrder, strconv.FormatInt(orderID, 10)); err != nil && o.logg != nil {
		o.logg.Warn(o.logg.WithField(ctx, "error", err.Error()), "saving pending order marker")
	}
}

func (o *Orchestrator) withField(ctx context.Context, key string, value any) context.Context {
	if o.logg == nil {
		return ctx
	}
	return o.logg.WithField(ctx, key, value)
}

func containsAddress(addrs []backend.Address, id int64) bool {
	for _, a := range addrs {
		if a.ID == id {
			return true
		}
	}
	return false
}
