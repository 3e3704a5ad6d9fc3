package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Fulfillment  FulfillmentConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Ops          OpsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DriverSQLite
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Fulfillment.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FULFILLMENT_APP_ENV" required:"true"`
	LogLevel     string `envconfig:"FULFILLMENT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FULFILLMENT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind string `envconfig:"FULFILLMENT_SERVICE_KIND" default:"core"`
}

type DBConfig struct {
	DSN    string `envconfig:"FULFILLMENT_DB_DSN"`
	Driver string `envconfig:"FULFILLMENT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FULFILLMENT_DB_HOST"`
	LegacyPort     int    `envconfig:"FULFILLMENT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FULFILLMENT_DB_USER"`
	LegacyPassword string `envconfig:"FULFILLMENT_DB_PASSWORD"`
	LegacyName     string `envconfig:"FULFILLMENT_DB_NAME"`
	LegacySSLMode  string `envconfig:"FULFILLMENT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FULFILLMENT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FULFILLMENT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FULFILLMENT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FULFILLMENT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FULFILLMENT_REDIS_URL"`
	Address      string        `envconfig:"FULFILLMENT_REDIS_ADDR"`
	Password     string        `envconfig:"FULFILLMENT_REDIS_PASSWORD"`
	DB           int           `envconfig:"FULFILLMENT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FULFILLMENT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FULFILLMENT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FULFILLMENT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FULFILLMENT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FULFILLMENT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint was configured. Placement
// idempotency is skipped without one.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FULFILLMENT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FULFILLMENT_AUTO_MIGRATE" default:"false"`
}

type FulfillmentConfig struct {
	IdempotencyTTL                 time.Duration `envconfig:"FULFILLMENT_IDEMPOTENCY_TTL" default:"24h"`
	EnforceDeliveredWithinProduced bool          `envconfig:"FULFILLMENT_ENFORCE_DELIVERED_WITHIN_PRODUCED" default:"true"`
	CancellationReasonMinLength    int           `envconfig:"FULFILLMENT_CANCELLATION_REASON_MIN_LENGTH" default:"5"`
	PlacementAttempts              int           `envconfig:"FULFILLMENT_PLACEMENT_ATTEMPTS" default:"3"`
}

func (f FulfillmentConfig) validate() error {
	if f.CancellationReasonMinLength < 1 {
		return fmt.Errorf("%s must be positive", EnvCancellationReasonMin)
	}
	if f.PlacementAttempts < 1 {
		return fmt.Errorf("%s must be positive", EnvPlacementAttempts)
	}
	return nil
}

type GCPConfig struct {
	ProjectID       string `envconfig:"FULFILLMENT_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"FULFILLMENT_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	FulfillmentTopic string `envconfig:"FULFILLMENT_PUBSUB_FULFILLMENT_TOPIC" default:"fulfillment-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"FULFILLMENT_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"FULFILLMENT_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"FULFILLMENT_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type OpsConfig struct {
	Addr string `envconfig:"FULFILLMENT_OPS_ADDR" default:":9090"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" {
		return nil
	}
	if useSQLite {
		db.DSN = "file:fulfillment.db?_foreign_keys=on"
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
