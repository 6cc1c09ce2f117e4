package enums

// CheckoutStep is a client-observable step of the checkout handoff.
type CheckoutStep string

const (
	CheckoutStepIdle                   CheckoutStep = "idle"
	CheckoutStepAddressSelected        CheckoutStep = "address_selected"
	CheckoutStepOrderCreating          CheckoutStep = "order_creating"
	CheckoutStepOrderCreated           CheckoutStep = "order_created"
	CheckoutStepPaymentSessionCreating CheckoutStep = "payment_session_creating"
	CheckoutStepRedirected             CheckoutStep = "redirected"
	CheckoutStepVerifyingPayment       CheckoutStep = "verifying_payment"
	CheckoutStepPaymentConfirmed       CheckoutStep = "payment_confirmed"
	CheckoutStepPaymentFailed          CheckoutStep = "payment_failed"
	CheckoutStepPaymentCancelled       CheckoutStep = "payment_cancelled"
	CheckoutStepFailed                 CheckoutStep = "failed"
)

// String implements fmt.Stringer.
func (c CheckoutStep) String() string {
	return string(c)
}

// IsTerminal reports whether the flow has settled.
func (c CheckoutStep) IsTerminal() bool {
	switch c {
	case CheckoutStepRedirected, CheckoutStepPaymentConfirmed, CheckoutStepPaymentFailed,
		CheckoutStepPaymentCancelled, CheckoutStepFailed:
		return true
	}
	return false
}
