package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "COZIYOO"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "COZIYOO_DB_DSN"
	EnvDBHost = "COZIYOO_DB_HOST"
	EnvDBUser = "COZIYOO_DB_USER"
	EnvDBName = "COZIYOO_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	RateLimit     RateLimitConfig
	Payments      PaymentsConfig
	DeliveryProof DeliveryProofConfig
	Outbox        OutboxConfig
	PubSub        PubSubConfig
	GCP           GCPConfig
	FeatureFlags  FeatureFlagsConfig
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
	Env          string `envconfig:"COZIYOO_APP_ENV" required:"true"`
	Port         string `envconfig:"COZIYOO_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"COZIYOO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"COZIYOO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"COZIYOO_DB_DSN"`
	Driver string `envconfig:"COZIYOO_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"COZIYOO_DB_HOST"`
	LegacyPort     int    `envconfig:"COZIYOO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"COZIYOO_DB_USER"`
	LegacyPassword string `envconfig:"COZIYOO_DB_PASSWORD"`
	LegacyName     string `envconfig:"COZIYOO_DB_NAME"`
	LegacySSLMode  string `envconfig:"COZIYOO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"COZIYOO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"COZIYOO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"COZIYOO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"COZIYOO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"COZIYOO_REDIS_URL" required:"true"`
	Address      string        `envconfig:"COZIYOO_REDIS_ADDR"`
	Password     string        `envconfig:"COZIYOO_REDIS_PASSWORD"`
	DB           int           `envconfig:"COZIYOO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"COZIYOO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"COZIYOO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"COZIYOO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"COZIYOO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"COZIYOO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"COZIYOO_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"COZIYOO_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"COZIYOO_JWT_EXPIRATION_MINUTES" default:"60"`
}

// RateLimitConfig throttles the payment and proof endpoints.
type RateLimitConfig struct {
	Window    time.Duration `envconfig:"COZIYOO_RATE_LIMIT_WINDOW" default:"1m"`
	IPLimit   int           `envconfig:"COZIYOO_RATE_LIMIT_IP" default:"60"`
	UserLimit int           `envconfig:"COZIYOO_RATE_LIMIT_USER" default:"30"`
}

// PaymentsConfig drives the provider session client and webhook verification.
type PaymentsConfig struct {
	WebhookSecret  string        `envconfig:"COZIYOO_PAYMENTS_WEBHOOK_SECRET" required:"true"`
	ProviderURL    string        `envconfig:"COZIYOO_PAYMENTS_PROVIDER_URL"`
	ProviderAPIKey string        `envconfig:"COZIYOO_PAYMENTS_PROVIDER_API_KEY"`
	ReturnURL      string        `envconfig:"COZIYOO_PAYMENTS_RETURN_URL" default:"https://app.coziyoo.com/payments/return"`
	RequestTimeout time.Duration `envconfig:"COZIYOO_PAYMENTS_REQUEST_TIMEOUT" default:"10s"`
}

type DeliveryProofConfig struct {
	PinTTL      time.Duration `envconfig:"COZIYOO_DELIVERY_PIN_TTL" default:"30m"`
	MaxAttempts int           `envconfig:"COZIYOO_DELIVERY_PIN_MAX_ATTEMPTS" default:"5"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"COZIYOO_OUTBOX_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"COZIYOO_OUTBOX_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"COZIYOO_OUTBOX_MAX_ATTEMPTS" default:"8"`
}

type PubSubConfig struct {
	DomainTopic string `envconfig:"COZIYOO_PUBSUB_DOMAIN_TOPIC" default:"coziyoo-domain-events"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"COZIYOO_GCP_PROJECT_ID"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"COZIYOO_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"COZIYOO_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
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
