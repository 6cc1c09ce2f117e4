package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	API      APIConfig
	Store    StoreConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Breaker  BreakerConfig
	Checkout CheckoutConfig
	Routes   RoutesConfig
	Server   ServerConfig
	Metrics  MetricsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type APIConfig struct {
	BaseURL   string        `envconfig:"STOREFRONT_API_URL" required:"true"`
	Timeout   time.Duration `envconfig:"STOREFRONT_API_TIMEOUT" default:"15s"`
	UserAgent string        `envconfig:"STOREFRONT_API_USER_AGENT" default:"storefront-cli"`
}

// StoreConfig selects where persisted client state (token, user, favorites,
// pending order marker) lives between runs.
type StoreConfig struct {
	Driver      string `envconfig:"STOREFRONT_STORE_DRIVER" default:"sqlite"`
	DSN         string `envconfig:"STOREFRONT_STORE_DSN" default:"storefront.db"`
	AutoMigrate bool   `envconfig:"STOREFRONT_STORE_AUTO_MIGRATE" default:"true"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any Redis endpoint is configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type CacheConfig struct {
	Backend    string        `envconfig:"STOREFRONT_CACHE_BACKEND" default:"memory"`
	ProductTTL time.Duration `envconfig:"STOREFRONT_CACHE_PRODUCT_TTL" default:"10m"`
}

type BreakerConfig struct {
	MaxRequests         uint32        `envconfig:"STOREFRONT_BREAKER_MAX_REQUESTS" default:"1"`
	Interval            time.Duration `envconfig:"STOREFRONT_BREAKER_INTERVAL" default:"60s"`
	Timeout             time.Duration `envconfig:"STOREFRONT_BREAKER_TIMEOUT" default:"30s"`
	ConsecutiveFailures uint32        `envconfig:"STOREFRONT_BREAKER_CONSECUTIVE_FAILURES" default:"5"`
}

type CheckoutConfig struct {
	GraceDelay  time.Duration `envconfig:"STOREFRONT_CHECKOUT_GRACE_DELAY" default:"1s"`
	MaxAttempts int           `envconfig:"STOREFRONT_CHECKOUT_VERIFY_ATTEMPTS" default:"3"`
	Backoff     time.Duration `envconfig:"STOREFRONT_CHECKOUT_VERIFY_BACKOFF" default:"2s"`
	SuccessURL  string        `envconfig:"STOREFRONT_CHECKOUT_SUCCESS_URL" default:"http://localhost:4200/payment-success"`
	CancelURL   string        `envconfig:"STOREFRONT_CHECKOUT_CANCEL_URL" default:"http://localhost:4200/payment-cancel"`
}

type RoutesConfig struct {
	Public   []string `envconfig:"STOREFRONT_PUBLIC_ROUTES" default:"/,/home,/products,/about,/contact,/recipes"`
	Login    string   `envconfig:"STOREFRONT_LOGIN_ROUTE" default:"/login"`
	Register string   `envconfig:"STOREFRONT_REGISTER_ROUTE" default:"/register"`
	Home     string   `envconfig:"STOREFRONT_HOME_ROUTE" default:"/home"`
}

// ServerConfig drives the local server that receives the payment return
// redirects.
type ServerConfig struct {
	Port           string        `envconfig:"STOREFRONT_SERVER_PORT" default:"4200"`
	ReturnWait     time.Duration `envconfig:"STOREFRONT_SERVER_RETURN_WAIT" default:"15s"`
	AllowedOrigins []string      `envconfig:"STOREFRONT_SERVER_ALLOWED_ORIGINS" default:"http://localhost:4200"`
	ReadTimeout    time.Duration `envconfig:"STOREFRONT_SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout   time.Duration `envconfig:"STOREFRONT_SERVER_WRITE_TIMEOUT" default:"30s"`
}

type MetricsConfig struct {
	Enabled bool `envconfig:"STOREFRONT_METRICS_ENABLED" default:"true"`
}

func (c *Config) validate() error {
	base, err := url.Parse(strings.TrimSpace(c.API.BaseURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return fmt.Errorf("%s must be an absolute url", EnvAPIURL)
	}
	switch strings.ToLower(c.Store.Driver) {
	case StoreDriverSQLite, StoreDriverPostgres, StoreDriverMemory:
	case StoreDriverRedis:
		if !c.Redis.Enabled() {
			return fmt.Errorf("%s=redis requires %s or %s", EnvStoreDriver, EnvRedisURL, EnvRedisAddr)
		}
	default:
		return fmt.Errorf("unsupported %s %q", EnvStoreDriver, c.Store.Driver)
	}
	if strings.EqualFold(c.Cache.Backend, CacheBackendRedis) && !c.Redis.Enabled() {
		return fmt.Errorf("%s=redis requires %s or %s", EnvCacheBackend, EnvRedisURL, EnvRedisAddr)
	}
	if c.Checkout.MaxAttempts < 1 {
		return fmt.Errorf("%s must be at least 1", EnvCheckoutAttempts)
	}
	if c.Checkout.Backoff < 0 || c.Checkout.GraceDelay < 0 {
		return fmt.Errorf("checkout delays must not be negative")
	}
	return nil
}
