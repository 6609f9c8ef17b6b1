package config

const (
	EnvPrefix = "ORDERBOT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	EnvAppEnv      = "ORDERBOT_APP_ENV"
	EnvPort        = "ORDERBOT_APP_PORT"
	EnvAppTimezone = "ORDERBOT_APP_TIMEZONE"

	EnvDBDSN    = "ORDERBOT_DB_DSN"
	EnvDBDriver = "ORDERBOT_DB_DRIVER"
	EnvDBHost   = "ORDERBOT_DB_HOST"
	EnvDBUser   = "ORDERBOT_DB_USER"
	EnvDBName   = "ORDERBOT_DB_NAME"

	EnvRedisURL = "ORDERBOT_REDIS_URL"

	EnvJWTSecret = "ORDERBOT_JWT_SECRET"
	EnvJWTIssuer = "ORDERBOT_JWT_ISSUER"

	EnvAdminRegistrationPassword = "ORDERBOT_ADMIN_REGISTRATION_PASSWORD"
	EnvAdminBootstrapChatID      = "ORDERBOT_ADMIN_BOOTSTRAP_CHAT_ID"

	EnvFreeDeliveryThreshold = "ORDERBOT_DELIVERY_FREE_THRESHOLD"
	EnvCustomerCancel        = "ORDERBOT_FEATURE_CUSTOMER_CANCEL"
	EnvPubSubOrdersTopic     = "ORDERBOT_PUBSUB_ORDERS_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
