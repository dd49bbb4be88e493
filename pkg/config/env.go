package config

const EnvPrefix = "INVOICEDESK"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv = "INVOICEDESK_APP_ENV"
	EnvPort   = "INVOICEDESK_APP_PORT"

	EnvBackendBaseURL       = "INVOICEDESK_BACKEND_BASE_URL"
	EnvBackendSubmitTimeout = "INVOICEDESK_BACKEND_SUBMIT_TIMEOUT"

	EnvDBDSN  = "INVOICEDESK_DB_DSN"
	EnvDBHost = "INVOICEDESK_DB_HOST"
	EnvDBUser = "INVOICEDESK_DB_USER"
	EnvDBName = "INVOICEDESK_DB_NAME"

	EnvUseSQLite = "INVOICEDESK_USE_SQLITE"
	EnvRedisURL  = "INVOICEDESK_REDIS_URL"
	EnvJWTSecret = "INVOICEDESK_JWT_SECRET"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
