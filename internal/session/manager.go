// Package session owns the bearer token and current user: validity checks
// against token expiry, login/register/sign-out, persistence in the local
// store and the route guards that depend on them.
package session

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/storefront/internal/backend"
	"github.com/angelmondragon/storefront/internal/navigation"
	"github.com/angelmondragon/storefront/pkg/auth"
	"github.com/angelmondragon/storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/localstore"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/pubsub"
	"github.com/angelmondragon/storefront/pkg/validate"
)

// Backend is the part of the REST client the session needs.
type Backend interface {
	Login(ctx context.Context, req backend.LoginRequest) (backend.AuthResponse, error)
	Register(ctx context.Context, req backend.RegisterRequest) (backend.AuthResponse, error)
	ResetPassword(ctx context.Context, email string) error
}

// AuthResult is what LogIn and SignUp hand back on success.
type AuthResult struct {
	Token string
	User  *backend.User
}

// Manager is the single owner of session state. Safe for concurrent use.
type Manager struct {
	api    Backend
	store  localstore.Store
	nav    *navigation.Navigator
	routes config.RoutesConfig
	logg   *logger.Logger
	now    func() time.Time

	mu            sync.Mutex
	user          *pubsub.Subject[*backend.User]
	authenticated *pubsub.Subject[bool]
}

type Option func(*Manager)

// WithClock overrides time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func NewManager(api Backend, store localstore.Store, nav *navigation.Navigator, routes config.RoutesConfig, logg *logger.Logger, opts ...Option) *Manager {
	m := &Manager{
		api:           api,
		store:         store,
		nav:           nav,
		routes:        routes,
		logg:          logg,
		now:           time.Now,
		user:          pubsub.NewSubject[*backend.User](nil),
		authenticated: pubsub.NewSubject(false),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Restore loads a persisted session at startup. An expired or unreadable
// session is purged.
func (m *Manager) Restore(ctx context.Context) {
	token, hasToken := m.storedToken(ctx)
	var user backend.User
	hasUser, err := localstore.GetJSON(ctx, m.store, localstore.KeyCurrentUser, &user)
	if !hasToken || (!hasUser && err == nil) {
		m.user.Publish(nil)
		m.authenticated.Publish(false)
		return
	}
	if err != nil {
		m.warn(ctx, "stored user unreadable", err)
		m.clear(ctx)
		return
	}
	if _, err := auth.Validate(token, m.now()); err != nil {
		m.warn(ctx, "stored session rejected", err)
		m.clear(ctx)
		return
	}
	m.user.Publish(&user)
	m.authenticated.Publish(true)
}

// IsAuthenticated reports whether a well-formed, unexpired token is stored.
// Any other stored token is purged together with the user.
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	_, ok := m.validToken(ctx)
	return ok
}

// BearerToken returns the stored token when it is valid, "" otherwise.
func (m *Manager) BearerToken(ctx context.Context) string {
	token, _ := m.validToken(ctx)
	return token
}

// Token is an alias of BearerToken for callers that only want the value.
func (m *Manager) Token(ctx context.Context) string {
	return m.BearerToken(ctx)
}

func (m *Manager) validToken(ctx context.Context) (string, bool) {
	token, ok := m.storedToken(ctx)
	if !ok {
		return "", false
	}
	if _, err := auth.Validate(token, m.now()); err != nil {
		m.warn(ctx, "purging invalid token", err)
		m.clear(ctx)
		return "", false
	}
	return token, true
}

// CurrentUser returns the cached identity, lazily reloading it from the
// store while the token is still valid.
func (m *Manager) CurrentUser(ctx context.Context) *backend.User {
	if current := m.user.Value(); current != nil {
		return current
	}
	if !m.IsAuthenticated(ctx) {
		return nil
	}
	var user backend.User
	ok, err := localstore.GetJSON(ctx, m.store, localstore.KeyCurrentUser, &user)
	if err != nil {
		m.warn(ctx, "stored user unreadable", err)
		m.SignOut(ctx)
		return nil
	}
	if !ok {
		return nil
	}
	m.user.Publish(&user)
	m.authenticated.Publish(true)
	return &user
}

// LogIn authenticates against the backend and persists the session.
func (m *Manager) LogIn(ctx context.Context, req backend.LoginRequest) (*AuthResult, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	resp, err := m.api.Login(ctx, req)
	if err != nil {
		return nil, err
	}
	return m.handleAuthSuccess(ctx, resp)
}

// SignUp registers a new account and persists the returned session.
func (m *Manager) SignUp(ctx context.Context, req backend.RegisterRequest) (*AuthResult, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	resp, err := m.api.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	return m.handleAuthSuccess(ctx, resp)
}

func (m *Manager) handleAuthSuccess(ctx context.Context, resp backend.AuthResponse) (*AuthResult, error) {
	token, user, ok := ExtractAuth(resp)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "unrecognized authentication response")
	}

	m.mu.Lock()
	err := m.store.Set(ctx, localstore.KeyToken, token)
	if err == nil {
		err = localstore.SetJSON(ctx, m.store, localstore.KeyCurrentUser, user)
	}
	m.mu.Unlock()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist session")
	}

	m.user.Publish(user)
	m.authenticated.Publish(true)
	if m.logg != nil {
		m.logg.Info(m.logg.WithUserID(ctx, user.ID), "session established")
	}
	return &AuthResult{Token: token, User: user}, nil
}

// SignOut drops the session and sends the user to the login route. Safe to
// call when already signed out.
func (m *Manager) SignOut(ctx context.Context) {
	m.clear(ctx)
	if m.nav != nil {
		m.nav.Navigate(m.routes.Login, nil)
	}
}

// HandleUnauthorized reacts to a 401 from any backend call: the session is
// purged and, unless the user is on a public page, sent to login.
func (m *Manager) HandleUnauthorized(ctx context.Context) {
	m.clear(ctx)
	if m.nav == nil {
		return
	}
	if m.isPublic(m.nav.Path()) {
		return
	}
	m.nav.Navigate(m.routes.Login, nil)
}

// ResetPassword requests a password reset email.
func (m *Manager) ResetPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if err := validate.Var("email", email, "required,email"); err != nil {
		return err
	}
	return m.api.ResetPassword(ctx, email)
}

// RequireAuth guards private routes. When unauthenticated it redirects to
// login carrying the current location as returnUrl and returns false.
func (m *Manager) RequireAuth(ctx context.Context) bool {
	if m.IsAuthenticated(ctx) {
		return true
	}
	if m.nav != nil {
		m.nav.Navigate(m.routes.Login, url.Values{"returnUrl": []string{m.nav.Location()}})
	}
	return false
}

// RequireAnonymous guards login and register: signed-in users go home.
func (m *Manager) RequireAnonymous(ctx context.Context) bool {
	if !m.IsAuthenticated(ctx) {
		return true
	}
	if m.nav != nil {
		m.nav.Navigate(m.routes.Home, nil)
	}
	return false
}

// SubscribeUser registers fn for identity changes, starting with the current one.
func (m *Manager) SubscribeUser(fn func(*backend.User)) func() {
	return m.user.Subscribe(fn)
}

// SubscribeAuthenticated registers fn for authenticated-flag changes.
func (m *Manager) SubscribeAuthenticated(fn func(bool)) func() {
	return m.authenticated.Subscribe(fn)
}

func (m *Manager) isPublic(path string) bool {
	for _, route := range m.routes.Public {
		if path == strings.TrimSpace(route) {
			return true
		}
	}
	for _, route := range []string{m.routes.Login, m.routes.Register} {
		if route != "" && strings.Contains(path, route) {
			return true
		}
	}
	return false
}

func (m *Manager) storedToken(ctx context.Context) (string, bool) {
	token, ok, err := m.store.Get(ctx, localstore.KeyToken)
	if err != nil {
		m.warn(ctx, "reading stored token", err)
		return "", false
	}
	if !ok || strings.TrimSpace(token) == "" {
		return "", false
	}
	return token, true
}

func (m *Manager) clear(ctx context.Context) {
	m.mu.Lock()
	err := m.store.Delete(ctx, localstore.KeyToken, localstore.KeyCurrentUser)
	m.mu.Unlock()
	if err != nil {
		m.warn(ctx, "clearing stored session", err)
	}
	// only a signed-in to signed-out change is published
	m.user.PublishChange(nil, func(a, b *backend.User) bool { return a == b })
	m.authenticated.PublishChange(false, func(a, b bool) bool { return a == b })
}

func (m *Manager) warn(ctx context.Context, msg string, err error) {
	if m.logg == nil {
		return
	}
	if errors.Is(err, auth.ErrTokenExpired) {
		m.logg.Debug(ctx, msg+": token expired")
		return
	}
	m.logg.Warn(m.logg.WithField(ctx, "error", err.Error()), msg)
}
