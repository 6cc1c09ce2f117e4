package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
)

const (
	defaultTimeout             = 15 * time.Second
	requestBodyReadLimit int64 = 4096
	requestIDHeader            = "X-Request-Id"
)

var errBaseURLRequired = errors.New("backend base url is required")

// Authenticator supplies the bearer token and reacts to authorization
// denials. The session manager implements it.
type Authenticator interface {
	// BearerToken returns a valid token or "" when none is usable.
	BearerToken(ctx context.Context) string
	HandleUnauthorized(ctx context.Context)
}

// Client talks to the storefront REST backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	breaker    *gobreaker.CircuitBreaker
	logg       *logger.Logger
	metrics    *metrics.Storefront

	mu   sync.RWMutex
	auth Authenticator
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) { c.logg = logg }
}

func WithMetrics(m *metrics.Storefront) Option {
	return func(c *Client) { c.metrics = m }
}

// WithBreaker wraps every call in a circuit breaker built from cfg.
func WithBreaker(cfg config.BreakerConfig) Option {
	return func(c *Client) {
		c.breaker = newBreaker(cfg, c)
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(ua); trimmed != "" {
			c.userAgent = trimmed
		}
	}
}

// NewClient builds a backend client rooted at baseURL (for example
// http://localhost:8080/api).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
		userAgent:  "storefront-cli",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return client, nil
}

// New builds the client from application config.
func New(cfg *config.Config, logg *logger.Logger, m *metrics.Storefront) (*Client, error) {
	return NewClient(cfg.API.BaseURL,
		WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}),
		WithUserAgent(cfg.API.UserAgent),
		WithLogger(logg),
		WithMetrics(m),
		WithBreaker(cfg.Breaker),
	)
}

// SetAuthenticator installs the token source and unauthorized hook.
func (c *Client) SetAuthenticator(a Authenticator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.auth = a
}

func (c *Client) authenticator() Authenticator {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.auth
}

type request struct {
	name   string
	method string
	path   string
	query  url.Values
	body   any
}

// do executes req and decodes a 2xx body into out (when non-nil). Non-2xx
// answers become *pkgerrors.Error carrying the status.
func (c *Client) do(ctx context.Context, req request, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "backend client not configured")
	}
	if c.breaker == nil {
		return c.roundTrip(ctx, req, out)
	}
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.roundTrip(ctx, req, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "backend temporarily unavailable")
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, req request, out any) error {
	started := time.Now()
	status := "error"
	defer func() {
		c.metrics.ObserveRequest(req.name, status, time.Since(started))
	}()

	endpoint := c.baseURL + req.path
	if len(req.query) > 0 {
		endpoint += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal "+req.name+" request")
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint, body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build "+req.name+" request")
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set(requestIDHeader, uuid.NewString())

	auth := c.authenticator()
	if auth != nil {
		if token := auth.BearerToken(ctx); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute "+req.name+" request")
	}
	defer func() { _ = resp.Body.Close() }()
	status = fmt.Sprintf("%d", resp.StatusCode)

	if resp.StatusCode == http.StatusUnauthorized && auth != nil {
		auth.HandleUnauthorized(ctx)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
		apiErr := pkgerrors.FromStatus(resp.StatusCode, errorMessage(req.name, msg))
		if c.logg != nil {
			logCtx := c.logg.WithFields(ctx, map[string]any{
				"endpoint":   req.name,
				"status":     resp.StatusCode,
				"request_id": httpReq.Header.Get(requestIDHeader),
			})
			c.logg.Warn(logCtx, "backend request failed")
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read "+req.name+" response")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode "+req.name+" response")
	}
	return nil
}

// errorMessage prefers a message/error field from a JSON error body.
func errorMessage(name string, body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return name + " request failed"
}

func newBreaker(cfg config.BreakerConfig, c *Client) *gobreaker.CircuitBreaker {
	threshold := cfg.ConsecutiveFailures
	if threshold == 0 {
		threshold = 5
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "storefront-backend",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			// only transport failures and 5xx answers count against the backend
			if err == nil {
				return true
			}
			status := pkgerrors.StatusOf(err)
			return status != 0 && status < 500
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if c.logg == nil {
				return
			}
			ctx := c.logg.WithFields(context.Background(), map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			c.logg.Warn(ctx, "backend circuit breaker state changed")
		},
	})
}

func pathID(id int64) string {
	return url.PathEscape(fmt.Sprintf("%d", id))
}
