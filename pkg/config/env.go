package config

const (
	EnvPrefix = "FULFILLMENT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	EnvAppEnv                = "FULFILLMENT_APP_ENV"
	EnvLogLevel              = "FULFILLMENT_LOG_LEVEL"
	EnvDBDSN                 = "FULFILLMENT_DB_DSN"
	EnvDBHost                = "FULFILLMENT_DB_HOST"
	EnvDBUser                = "FULFILLMENT_DB_USER"
	EnvDBName                = "FULFILLMENT_DB_NAME"
	EnvDBPassword            = "FULFILLMENT_DB_PASSWORD"
	EnvUseSQLite             = "FULFILLMENT_USE_SQLITE"
	EnvRedisURL              = "FULFILLMENT_REDIS_URL"
	EnvIdempotencyTTL        = "FULFILLMENT_IDEMPOTENCY_TTL"
	EnvEnforceDelivered      = "FULFILLMENT_ENFORCE_DELIVERED_WITHIN_PRODUCED"
	EnvCancellationReasonMin = "FULFILLMENT_CANCELLATION_REASON_MIN_LENGTH"
	EnvPlacementAttempts     = "FULFILLMENT_PLACEMENT_ATTEMPTS"
	EnvGCPProjectID          = "FULFILLMENT_GCP_PROJECT_ID"
	EnvPubSubTopic           = "FULFILLMENT_PUBSUB_FULFILLMENT_TOPIC"
)

// legacyDBEnvVars must all be present when no DSN is given.
var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
