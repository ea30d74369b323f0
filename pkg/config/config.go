package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "CHOWLINE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv          = "CHOWLINE_APP_ENV"
	EnvPort            = "CHOWLINE_APP_PORT"
	EnvDBDSN           = "CHOWLINE_DB_DSN"
	EnvDBHost          = "CHOWLINE_DB_HOST"
	EnvDBUser          = "CHOWLINE_DB_USER"
	EnvDBName          = "CHOWLINE_DB_NAME"
	EnvRedisURL        = "CHOWLINE_REDIS_URL"
	EnvJWTSecret       = "CHOWLINE_JWT_SECRET"
	EnvJWTIssuer       = "CHOWLINE_JWT_ISSUER"
	EnvGCPProjectID    = "CHOWLINE_GCP_PROJECT_ID"
	EnvPubSubDomainSub = "CHOWLINE_PUBSUB_DOMAIN_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	RateLimit     RateLimitConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Eventing      EventingConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Checkout      CheckoutConfig
	Worker        WorkerConfig
	Cron          CronConfig
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
	Env          string `envconfig:"CHOWLINE_APP_ENV" required:"true"`
	Port         string `envconfig:"CHOWLINE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CHOWLINE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CHOWLINE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"CHOWLINE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"CHOWLINE_DB_DSN"`
	Driver string `envconfig:"CHOWLINE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CHOWLINE_DB_HOST"`
	LegacyPort     int    `envconfig:"CHOWLINE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CHOWLINE_DB_USER"`
	LegacyPassword string `envconfig:"CHOWLINE_DB_PASSWORD"`
	LegacyName     string `envconfig:"CHOWLINE_DB_NAME"`
	LegacySSLMode  string `envconfig:"CHOWLINE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CHOWLINE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CHOWLINE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CHOWLINE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CHOWLINE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CHOWLINE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CHOWLINE_REDIS_ADDR"`
	Password     string        `envconfig:"CHOWLINE_REDIS_PASSWORD"`
	DB           int           `envconfig:"CHOWLINE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CHOWLINE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CHOWLINE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CHOWLINE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CHOWLINE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CHOWLINE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"CHOWLINE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"CHOWLINE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"CHOWLINE_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"CHOWLINE_JWT_REFRESH_TTL_MINUTES" default:"10080"`
}

func (j JWTConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"CHOWLINE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CHOWLINE_ARGON_TIME" default:"1"`
	ArgonParallelism int `envconfig:"CHOWLINE_ARGON_PARALLELISM" default:"4"`
	ArgonSaltLen     int `envconfig:"CHOWLINE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CHOWLINE_ARGON_KEY_LEN" default:"32"`
}

type RateLimitConfig struct {
	CartWindow    time.Duration `envconfig:"CHOWLINE_RATE_LIMIT_CART_WINDOW" default:"1m"`
	CartUserLimit int           `envconfig:"CHOWLINE_RATE_LIMIT_CART_USER_LIMIT" default:"60"`
	CartIPLimit   int           `envconfig:"CHOWLINE_RATE_LIMIT_CART_IP_LIMIT" default:"120"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"CHOWLINE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"CHOWLINE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"CHOWLINE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"CHOWLINE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"CHOWLINE_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"CHOWLINE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CHOWLINE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CHOWLINE_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"CHOWLINE_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"CHOWLINE_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"CHOWLINE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"CHOWLINE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"CHOWLINE_PUBSUB_DOMAIN_TOPIC" default:"cl-domain-events"`
	DomainSubscription string `envconfig:"CHOWLINE_PUBSUB_DOMAIN_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"CHOWLINE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"CHOWLINE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"CHOWLINE_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CheckoutConfig struct {
	ReconciliationSurcharge string `envconfig:"CHOWLINE_CHECKOUT_RECONCILIATION_SURCHARGE" default:"5.00"`
	ReferenceCodeAttempts   int    `envconfig:"CHOWLINE_CHECKOUT_REFERENCE_CODE_ATTEMPTS" default:"5"`
}

type WorkerConfig struct {
	PushPoolSize       int           `envconfig:"CHOWLINE_WORKER_PUSH_POOL_SIZE" default:"8"`
	PushTimeout        time.Duration `envconfig:"CHOWLINE_WORKER_PUSH_TIMEOUT" default:"10s"`
	MaxOutstandingMsgs int           `envconfig:"CHOWLINE_WORKER_MAX_OUTSTANDING_MSGS" default:"32"`
}

type CronConfig struct {
	TickInterval          time.Duration `envconfig:"CHOWLINE_CRON_TICK_INTERVAL" default:"1m"`
	LockTTL               time.Duration `envconfig:"CHOWLINE_CRON_LOCK_TTL" default:"5m"`
	NotificationRetention time.Duration `envconfig:"CHOWLINE_CRON_NOTIFICATION_RETENTION" default:"720h"`
	OutboxRetention       time.Duration `envconfig:"CHOWLINE_CRON_OUTBOX_RETENTION" default:"168h"`
	StaleCartRetention    time.Duration `envconfig:"CHOWLINE_CRON_STALE_CART_RETENTION" default:"720h"`
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
		Path:   "/" + db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
