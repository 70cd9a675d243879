package config

const (
	EnvPrefix = "SURPRISEBAG"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	DefaultMarketTimezone = "Asia/Tashkent"
)

const (
	EnvAppEnv      = "SURPRISEBAG_APP_ENV"
	EnvPort        = "SURPRISEBAG_APP_PORT"
	EnvLogFormat   = "SURPRISEBAG_LOG_FORMAT"
	EnvDBDSN       = "SURPRISEBAG_DB_DSN"
	EnvDBHost      = "SURPRISEBAG_DB_HOST"
	EnvDBUser      = "SURPRISEBAG_DB_USER"
	EnvDBName      = "SURPRISEBAG_DB_NAME"
	EnvDBPassword  = "SURPRISEBAG_DB_PASSWORD"
	EnvUseSQLite   = "SURPRISEBAG_USE_SQLITE"
	EnvRedisURL    = "SURPRISEBAG_REDIS_URL"
	EnvJWTSecret   = "SURPRISEBAG_JWT_SECRET"
	EnvJWTIssuer   = "SURPRISEBAG_JWT_ISSUER"
	EnvTimezone    = "SURPRISEBAG_MARKET_TIMEZONE"
	EnvDeliveryFee = "SURPRISEBAG_MARKET_DELIVERY_FEE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
