package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storefront"

// Storefront records client-side activity: backend calls, cart mutations,
// checkout outcomes, payment verification attempts and product cache use.
// A nil *Storefront is a valid no-op recorder.
type Storefront struct {
	requestDuration *prometheus.HistogramVec
	cartMutations   *prometheus.CounterVec
	checkouts       *prometheus.CounterVec
	verifyAttempts  *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
}

// NewStorefront registers the storefront metrics on the provided registerer.
func NewStorefront(reg prometheus.Registerer) *Storefront {
	if reg == nil {
		return &Storefront{}
	}
	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backend_request_duration_seconds",
		Help:      "Duration of backend REST calls in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint", "status"})
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_mutations_total",
		Help:      "Cart mutations by operation and result.",
	}, []string{"op", "result"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkouts_total",
		Help:      "Checkout attempts by terminal step.",
	}, []string{"step"})
	verifyAttempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_verify_attempts_total",
		Help:      "Payment verification attempts by result.",
	}, []string{"result"})
	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "product_cache_lookups_total",
		Help:      "Product cache lookups by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(requestDuration, cartMutations, checkouts, verifyAttempts, cacheLookups)
	return &Storefront{
		requestDuration: requestDuration,
		cartMutations:   cartMutations,
		checkouts:       checkouts,
		verifyAttempts:  verifyAttempts,
		cacheLookups:    cacheLookups,
	}
}

// ObserveRequest records one backend call.
func (s *Storefront) ObserveRequest(endpoint, status string, duration time.Duration) {
	if s == nil || s.requestDuration == nil {
		return
	}
	s.requestDuration.WithLabelValues(normalizeLabel(endpoint), normalizeLabel(status)).Observe(duration.Seconds())
}

func (s *Storefront) IncCartMutation(op string, err error) {
	if s == nil || s.cartMutations == nil {
		return
	}
	s.cartMutations.WithLabelValues(normalizeLabel(op), resultLabel(err)).Inc()
}

// IncCheckout counts a checkout that settled on the given step.
func (s *Storefront) IncCheckout(step string) {
	if s == nil || s.checkouts == nil {
		return
	}
	s.checkouts.WithLabelValues(normalizeLabel(step)).Inc()
}

func (s *Storefront) IncVerifyAttempt(err error) {
	if s == nil || s.verifyAttempts == nil {
		return
	}
	s.verifyAttempts.WithLabelValues(resultLabel(err)).Inc()
}

// IncCacheLookup records a product cache hit or miss.
func (s *Storefront) IncCacheLookup(hit bool) {
	if s == nil || s.cacheLookups == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	s.cacheLookups.WithLabelValues(outcome).Inc()
}

func resultLabel(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
