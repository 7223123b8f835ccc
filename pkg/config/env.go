package config

// EnvPrefix is passed to envconfig; every field also declares its explicit name.
const EnvPrefix = "KUKUMART"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv       = "KUKUMART_APP_ENV"
	EnvPort         = "KUKUMART_APP_PORT"
	EnvLogLevel     = "KUKUMART_LOG_LEVEL"
	EnvCORSOrigins  = "KUKUMART_CORS_ALLOWED_ORIGINS"
	EnvDBDSN        = "KUKUMART_DB_DSN"
	EnvDBHost       = "KUKUMART_DB_HOST"
	EnvDBUser       = "KUKUMART_DB_USER"
	EnvDBName       = "KUKUMART_DB_NAME"
	EnvRedisURL     = "KUKUMART_REDIS_URL"
	EnvJWTSecret    = "KUKUMART_JWT_SECRET"
	EnvJWTIssuer    = "KUKUMART_JWT_ISSUER"
	EnvJWTExpMins   = "KUKUMART_JWT_EXPIRATION_MINUTES"
	EnvUseSQLite    = "KUKUMART_USE_SQLITE"
	EnvCommission   = "KUKUMART_COMMISSION_BPS"
	EnvMinWithdraw  = "KUKUMART_MIN_WITHDRAWAL"
	EnvAdminWA      = "KUKUMART_ADMIN_WHATSAPP"
	EnvAdminEmail   = "KUKUMART_ADMIN_EMAIL"
	EnvAdminPass    = "KUKUMART_ADMIN_PASSWORD"
	EnvImageKitPub  = "KUKUMART_IMAGEKIT_PUBLIC_KEY"
	EnvImageKitPriv = "KUKUMART_IMAGEKIT_PRIVATE_KEY"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
