package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	Service  ServiceConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Stripe   StripeConfig
	Checkout CheckoutConfig
	GCP      GCPConfig
	PubSub   PubSubConfig
	Outbox   OutboxConfig
	Cron     CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SEEDSHOP_APP_ENV" required:"true"`
	Port         string `envconfig:"SEEDSHOP_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SEEDSHOP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SEEDSHOP_LOG_WARN_STACK" default:"false"`
	FrontendURL  string `envconfig:"SEEDSHOP_FRONTEND_URL" default:"http://localhost:8080"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SEEDSHOP_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SEEDSHOP_DB_DSN"`
	Driver string `envconfig:"SEEDSHOP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SEEDSHOP_DB_HOST"`
	LegacyPort     int    `envconfig:"SEEDSHOP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SEEDSHOP_DB_USER"`
	LegacyPassword string `envconfig:"SEEDSHOP_DB_PASSWORD"`
	LegacyName     string `envconfig:"SEEDSHOP_DB_NAME"`
	LegacySSLMode  string `envconfig:"SEEDSHOP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SEEDSHOP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SEEDSHOP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SEEDSHOP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SEEDSHOP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the local development driver is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"SEEDSHOP_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SEEDSHOP_REDIS_ADDR"`
	Password     string        `envconfig:"SEEDSHOP_REDIS_PASSWORD"`
	DB           int           `envconfig:"SEEDSHOP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SEEDSHOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SEEDSHOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SEEDSHOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SEEDSHOP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SEEDSHOP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig describes how access tokens issued by the identity provider are verified.
type JWTConfig struct {
	Secret   string `envconfig:"SEEDSHOP_JWT_SECRET" required:"true"`
	Issuer   string `envconfig:"SEEDSHOP_JWT_ISSUER"`
	Audience string `envconfig:"SEEDSHOP_JWT_AUDIENCE" default:"authenticated"`
}

type StripeConfig struct {
	APIKey   string `envconfig:"SEEDSHOP_STRIPE_API_KEY"`
	Secret   string `envconfig:"SEEDSHOP_STRIPE_SECRET"`
	Env      string `envconfig:"SEEDSHOP_STRIPE_ENV" default:"test"`
	Currency string `envconfig:"SEEDSHOP_STRIPE_CURRENCY" default:"brl"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type CheckoutConfig struct {
	CompensateOnPaymentFailure bool          `envconfig:"SEEDSHOP_CHECKOUT_COMPENSATE_ON_PAYMENT_FAILURE" default:"true"`
	CartTTL                    time.Duration `envconfig:"SEEDSHOP_CART_TTL" default:"720h"`
	PendingOrderTTL            time.Duration `envconfig:"SEEDSHOP_PENDING_ORDER_TTL" default:"48h"`
	WebhookIdempotencyTTL      time.Duration `envconfig:"SEEDSHOP_WEBHOOK_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"SEEDSHOP_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"SEEDSHOP_PUBSUB_ORDERS_TOPIC" default:"seedshop-orders"`
	OrdersSubscription string `envconfig:"SEEDSHOP_PUBSUB_ORDERS_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SEEDSHOP_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SEEDSHOP_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SEEDSHOP_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"SEEDSHOP_OUTBOX_RETENTION_DAYS" default:"30"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"SEEDSHOP_CRON_INTERVAL" default:"15m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = defaultSQLiteDSN
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
