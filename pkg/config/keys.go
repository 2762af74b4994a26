package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
	DefaultSQLiteDSN = "file:storefront.db?cache=shared&_foreign_keys=on"

	EnvAppEnv                 = "STOREFRONT_APP_ENV"
	EnvPort                   = "STOREFRONT_APP_PORT"
	EnvDBDSN                  = "STOREFRONT_DB_DSN"
	EnvDBDriver               = "STOREFRONT_DB_DRIVER"
	EnvDBHost                 = "STOREFRONT_DB_HOST"
	EnvDBPort                 = "STOREFRONT_DB_PORT"
	EnvDBUser                 = "STOREFRONT_DB_USER"
	EnvDBPassword             = "STOREFRONT_DB_PASSWORD"
	EnvDBName                 = "STOREFRONT_DB_NAME"
	EnvRedisURL               = "STOREFRONT_REDIS_URL"
	EnvJWTSecret              = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer              = "STOREFRONT_JWT_ISSUER"
	EnvJWTExpMins             = "STOREFRONT_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "STOREFRONT_REFRESH_TOKEN_TTL_MINUTES"
	EnvUseSQLite              = "STOREFRONT_USE_SQLITE"
	EnvCORSAllowedOrigins     = "STOREFRONT_CORS_ALLOWED_ORIGINS"
	EnvGCPProjectID           = "STOREFRONT_GCP_PROJECT_ID"
	EnvPubSubOrdersTopic      = "STOREFRONT_PUBSUB_ORDERS_TOPIC"
	EnvPubSubUsersTopic       = "STOREFRONT_PUBSUB_USERS_TOPIC"
)
