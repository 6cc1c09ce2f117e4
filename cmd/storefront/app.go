package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/storefront/internal/address"
	"github.com/angelmondragon/storefront/internal/backend"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/internal/favorites"
	"github.com/angelmondragon/storefront/internal/navigation"
	"github.com/angelmondragon/storefront/internal/orders"
	"github.com/angelmondragon/storefront/internal/products"
	"github.com/angelmondragon/storefront/internal/session"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/localstore"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	pkgredis "github.com/angelmondragon/storefront/pkg/redis"
	"github.com/angelmondragon/storefront/pkg/scheduler"
)

// app is the process-wide object graph. Every command builds one and
// closes it on exit.
type app struct {
	cfg      *config.Config
	logg     *logger.Logger
	registry *prometheus.Registry
	metrics  *metrics.Storefront

	store       localstore.Store
	redis       *pkgredis.Client
	api         *backend.Client
	nav         *navigation.Navigator
	session     *session.Manager
	cart        *cart.State
	catalog     *products.Catalog
	addresses   address.Directory
	orders      *orders.History
	favorites   *favorites.List
	checkout    *checkout.Orchestrator
	unsubscribe []func()
	closers     []func() error
}

func newApp(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*app, error) {
	a := &app{
		cfg:      cfg,
		logg:     logg,
		registry: prometheus.NewRegistry(),
		nav:      navigation.New(cfg.Routes.Home),
	}
	a.metrics = metrics.NewStorefront(a.registry)

	store, closeStore, err := localstore.Open(ctx, cfg, logg)
	if err != nil {
		return nil, err
	}
	a.store = store
	a.closers = append(a.closers, closeStore)

	cache, err := a.productCache(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	api, err := backend.New(cfg, logg, a.metrics)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("backend client: %w", err)
	}
	a.api = api

	a.session = session.NewManager(api, store, a.nav, cfg.Routes, logg)
	api.SetAuthenticator(a.session)

	a.catalog = products.NewCatalog(api, logg)
	a.cart = cart.NewState(api, logg, cart.WithLabeler(a.catalog), cart.WithMetrics(a.metrics))
	a.addresses = address.NewDirectory(api, logg)
	a.orders = orders.NewHistory(api, logg, orders.WithCache(cache), orders.WithMetrics(a.metrics))
	a.favorites = favorites.NewList(store, logg)
	a.checkout = checkout.New(checkout.Deps{
		API:      api,
		Cart:     a.cart,
		Nav:      a.nav,
		Session:  a.session,
		Store:    store,
		Sched:    scheduler.Real(),
		Settings: checkout.SettingsFromConfig(cfg.Checkout),
		Logger:   logg,
		Metrics:  a.metrics,
	})

	// signing out drops the mirrored cart
	a.unsubscribe = append(a.unsubscribe, a.session.SubscribeAuthenticated(func(ok bool) {
		if !ok {
			a.cart.Reset()
		}
	}))

	a.session.Restore(ctx)
	a.favorites.Restore(ctx)
	return a, nil
}

func (a *app) productCache(ctx context.Context) (orders.ProductCache, error) {
	if !strings.EqualFold(a.cfg.Cache.Backend, config.CacheBackendRedis) {
		return orders.NewMemoryProductCache(a.cfg.Cache.ProductTTL), nil
	}
	client, err := pkgredis.New(ctx, a.cfg.Redis, a.logg)
	if err != nil {
		return nil, fmt.Errorf("open product cache: %w", err)
	}
	a.redis = client
	a.closers = append(a.closers, client.Close)
	return orders.NewRedisProductCache(client, a.cfg.Cache.ProductTTL), nil
}

// requireAuth runs the private-route guard and fails when it redirected.
func (a *app) requireAuth(ctx context.Context) error {
	if a.session.RequireAuth(ctx) {
		return nil
	}
	return errNotSignedIn
}

func (a *app) Close() error {
	if a.checkout != nil {
		a.checkout.Close()
	}
	for _, cancel := range a.unsubscribe {
		cancel()
	}
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}
