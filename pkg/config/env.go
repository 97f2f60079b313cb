package config

// EnvPrefix namespaces every variable read by Load.
const EnvPrefix = "SEEDSHOP"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	defaultSQLiteDSN = "file:seedshop.db?cache=shared"
)

const (
	EnvAppEnv      = "SEEDSHOP_APP_ENV"
	EnvPort        = "SEEDSHOP_APP_PORT"
	EnvLogLevel    = "SEEDSHOP_LOG_LEVEL"
	EnvFrontendURL = "SEEDSHOP_FRONTEND_URL"

	EnvDBDSN    = "SEEDSHOP_DB_DSN"
	EnvDBDriver = "SEEDSHOP_DB_DRIVER"
	EnvDBHost   = "SEEDSHOP_DB_HOST"
	EnvDBUser   = "SEEDSHOP_DB_USER"
	EnvDBName   = "SEEDSHOP_DB_NAME"

	EnvRedisURL = "SEEDSHOP_REDIS_URL"

	EnvJWTSecret = "SEEDSHOP_JWT_SECRET"
	EnvJWTIssuer = "SEEDSHOP_JWT_ISSUER"

	EnvStripeAPIKey = "SEEDSHOP_STRIPE_API_KEY"
	EnvStripeSecret = "SEEDSHOP_STRIPE_SECRET"

	EnvCheckoutCompensate = "SEEDSHOP_CHECKOUT_COMPENSATE_ON_PAYMENT_FAILURE"
	EnvPendingOrderTTL    = "SEEDSHOP_PENDING_ORDER_TTL"

	EnvGCPProjectID      = "SEEDSHOP_GCP_PROJECT_ID"
	EnvPubSubOrdersTopic = "SEEDSHOP_PUBSUB_ORDERS_TOPIC"
	EnvPubSubOrdersSub   = "SEEDSHOP_PUBSUB_ORDERS_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
