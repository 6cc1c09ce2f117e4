package config

const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"
	StoreDriverRedis    = "redis"
	StoreDriverMemory   = "memory"

	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

const (
	EnvAppEnv           = "STOREFRONT_APP_ENV"
	EnvAPIURL           = "STOREFRONT_API_URL"
	EnvStoreDriver      = "STOREFRONT_STORE_DRIVER"
	EnvStoreDSN         = "STOREFRONT_STORE_DSN"
	EnvRedisURL         = "STOREFRONT_REDIS_URL"
	EnvRedisAddr        = "STOREFRONT_REDIS_ADDR"
	EnvCacheBackend     = "STOREFRONT_CACHE_BACKEND"
	EnvCheckoutAttempts = "STOREFRONT_CHECKOUT_VERIFY_ATTEMPTS"
	EnvCheckoutBackoff  = "STOREFRONT_CHECKOUT_VERIFY_BACKOFF"
	EnvCheckoutGrace    = "STOREFRONT_CHECKOUT_GRACE_DELAY"
	EnvPublicRoutes     = "STOREFRONT_PUBLIC_ROUTES"
)
