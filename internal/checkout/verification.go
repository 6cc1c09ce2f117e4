package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/scheduler"
)

// Verification is one running payment check. It settles exactly once, on
// PaymentConfirmed, PaymentFailed or cancellation.
type Verification struct {
	o         *Orchestrator
	sessionID string
	ctx       context.Context
	cancel    context.CancelFunc

	mu       sync.Mutex
	attempts int
	timer    scheduler.Timer
	settled  bool
	step     enums.CheckoutStep
	err      error
	done     chan struct{}
}

func newVerification(o *Orchestrator, ctx context.Context, sessionID string) *Verification {
	// attempts outlive the caller's request
	vctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	return &Verification{
		o:         o,
		sessionID: sessionID,
		ctx:       vctx,
		cancel:    cancel,
		step:      enums.CheckoutStepVerifyingPayment,
		done:      make(chan struct{}),
	}
}

func (v *Verification) SessionID() string { return v.sessionID }

// Done is closed once the verification settles.
func (v *Verification) Done() <-chan struct{} { return v.done }

func (v *Verification) Attempts() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.attempts
}

// Result returns the settled step and error. Before settling it reports
// VerifyingPayment.
func (v *Verification) Result() (enums.CheckoutStep, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.step, v.err
}

// Wait blocks until the verification settles or ctx ends.
func (v *Verification) Wait(ctx context.Context) (enums.CheckoutStep, error) {
	select {
	case <-v.done:
		return v.Result()
	case <-ctx.Done():
		return enums.CheckoutStepVerifyingPayment, ctx.Err()
	}
}

// Cancel stops any pending attempt. A cancelled verification publishes no
// step and triggers no side effects.
func (v *Verification) Cancel() {
	v.mu.Lock()
	if v.settled {
		v.mu.Unlock()
		return
	}
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
	v.settled = true
	v.err = context.Canceled
	close(v.done)
	v.mu.Unlock()

	v.cancel()
	v.o.release(v)
}

func (v *Verification) schedule(d time.Duration) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.settled {
		return
	}
	v.timer = v.o.sched.AfterFunc(d, v.attempt)
}

func (v *Verification) attempt() {
	v.mu.Lock()
	if v.settled {
		v.mu.Unlock()
		return
	}
	v.timer = nil
	v.attempts++
	n := v.attempts
	v.mu.Unlock()

	ctx := v.ctx
	if v.o.logg != nil {
		ctx = v.o.logg.WithField(ctx, "attempt", n)
	}

	result, err := v.o.api.VerifyPayment(ctx, v.sessionID)
	if err == nil && !result.Confirmed() {
		err = pkgerrors.New(pkgerrors.CodePaymentUnverified, "payment not confirmed yet")
	}
	v.o.metrics.IncVerifyAttempt(err)

	if err == nil {
		if !v.claim() {
			return
		}
		v.o.confirm(ctx)
		v.finish(enums.CheckoutStepPaymentConfirmed, nil)
		return
	}

	if n >= v.o.settings.MaxAttempts {
		if !v.claim() {
			return
		}
		final := pkgerrors.Wrap(pkgerrors.CodePaymentUnverified, err, "payment verification exhausted")
		v.o.exhausted(ctx, final)
		v.finish(enums.CheckoutStepPaymentFailed, final)
		return
	}

	if v.o.logg != nil {
		v.o.logg.Warn(v.o.logg.WithField(ctx, "error", err.Error()), "payment not verified, retrying")
	}
	v.schedule(v.o.settings.Backoff)
}

// claim marks the verification settled so a concurrent Cancel becomes a
// no-op. It reports false when Cancel got there first.
func (v *Verification) claim() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.settled {
		return false
	}
	v.settled = true
	return true
}

// finish records the outcome of a claimed verification and releases it.
func (v *Verification) finish(step enums.CheckoutStep, err error) {
	v.mu.Lock()
	v.step = step
	v.err = err
	close(v.done)
	v.mu.Unlock()

	v.cancel()
	v.o.release(v)
}
