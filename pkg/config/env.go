package config

// Environment variable names used by tests and tooling.
const (
	EnvAppEnv            = "STOREFRONT_APP_ENV"
	EnvPort              = "STOREFRONT_APP_PORT"
	EnvDBDSN             = "STOREFRONT_DB_DSN"
	EnvRedisURL          = "STOREFRONT_REDIS_URL"
	EnvJWTSecret         = "STOREFRONT_JWT_SECRET"
	EnvLowStockThreshold = "STOREFRONT_LOW_STOCK_THRESHOLD"
	EnvCatalogCacheTTL   = "STOREFRONT_CATALOG_CACHE_TTL"
)
