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
	JWT          JWTConfig
	Password     PasswordConfig
	Admin        AdminConfig
	Orders       OrdersConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Housekeeping HousekeepingConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.App.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"ORDERBOT_APP_ENV" required:"true"`
	Port         string   `envconfig:"ORDERBOT_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"ORDERBOT_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"ORDERBOT_LOG_WARN_STACK" default:"false"`
	Timezone     string   `envconfig:"ORDERBOT_APP_TIMEZONE" default:"UTC"`
	CORSOrigins  []string `envconfig:"ORDERBOT_APP_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

// Location resolves the business timezone used for "today" and delivery slots.
func (a AppConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(a.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", EnvAppTimezone, name, err)
	}
	return loc, nil
}

type ServiceConfig struct {
	Kind string `envconfig:"ORDERBOT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"ORDERBOT_DB_DSN"`
	Driver string `envconfig:"ORDERBOT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ORDERBOT_DB_HOST"`
	LegacyPort     int    `envconfig:"ORDERBOT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ORDERBOT_DB_USER"`
	LegacyPassword string `envconfig:"ORDERBOT_DB_PASSWORD"`
	LegacyName     string `envconfig:"ORDERBOT_DB_NAME"`
	LegacySSLMode  string `envconfig:"ORDERBOT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ORDERBOT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ORDERBOT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ORDERBOT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ORDERBOT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite driver was selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"ORDERBOT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ORDERBOT_REDIS_ADDR"`
	Password     string        `envconfig:"ORDERBOT_REDIS_PASSWORD"`
	DB           int           `envconfig:"ORDERBOT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ORDERBOT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ORDERBOT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ORDERBOT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ORDERBOT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ORDERBOT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig signs the service tokens the chat transport presents on every call.
type JWTConfig struct {
	Secret            string `envconfig:"ORDERBOT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ORDERBOT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"ORDERBOT_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ORDERBOT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ORDERBOT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ORDERBOT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ORDERBOT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ORDERBOT_ARGON_KEY_LEN" default:"32"`
}

type AdminConfig struct {
	RegistrationPassword string        `envconfig:"ORDERBOT_ADMIN_REGISTRATION_PASSWORD"`
	BootstrapChatID      int64         `envconfig:"ORDERBOT_ADMIN_BOOTSTRAP_CHAT_ID" default:"0"`
	BootstrapPassword    string        `envconfig:"ORDERBOT_ADMIN_BOOTSTRAP_PASSWORD"`
	CacheTTL             time.Duration `envconfig:"ORDERBOT_ADMIN_CACHE_TTL" default:"30s"`
	LoginAttemptLimit    int64         `envconfig:"ORDERBOT_ADMIN_LOGIN_ATTEMPT_LIMIT" default:"5"`
	LoginAttemptWindow   time.Duration `envconfig:"ORDERBOT_ADMIN_LOGIN_ATTEMPT_WINDOW" default:"15m"`
}

type OrdersConfig struct {
	FreeDeliveryThreshold string        `envconfig:"ORDERBOT_DELIVERY_FREE_THRESHOLD" default:"1000"`
	HistoryWindowDays     int           `envconfig:"ORDERBOT_ORDERS_HISTORY_WINDOW_DAYS" default:"2"`
	HistoryLimit          int           `envconfig:"ORDERBOT_ORDERS_HISTORY_LIMIT" default:"10"`
	CheckoutDraftTTL      time.Duration `envconfig:"ORDERBOT_CHECKOUT_DRAFT_TTL" default:"30m"`
	IdempotencyTTL        time.Duration `envconfig:"ORDERBOT_IDEMPOTENCY_TTL" default:"24h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate    bool `envconfig:"ORDERBOT_AUTO_MIGRATE" default:"false"`
	CustomerCancel bool `envconfig:"ORDERBOT_FEATURE_CUSTOMER_CANCEL" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"ORDERBOT_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"ORDERBOT_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"ORDERBOT_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"ORDERBOT_PUBSUB_ORDERS_TOPIC" default:"orderbot-order-events"`
	OrdersSubscription string `envconfig:"ORDERBOT_PUBSUB_ORDERS_SUBSCRIPTION"`
}

type HousekeepingConfig struct {
	Interval            time.Duration `envconfig:"ORDERBOT_HOUSEKEEPING_INTERVAL" default:"1h"`
	OutboxRetentionDays int           `envconfig:"ORDERBOT_OUTBOX_RETENTION_DAYS" default:"30"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"ORDERBOT_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"ORDERBOT_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"ORDERBOT_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
