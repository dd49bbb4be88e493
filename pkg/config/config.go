package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Backend       BackendConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Session       SessionConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	CORS          CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Backend.validate(); err != nil {
		return nil, err
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"INVOICEDESK_APP_ENV" required:"true"`
	Port         string `envconfig:"INVOICEDESK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"INVOICEDESK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"INVOICEDESK_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"INVOICEDESK_LOG_FORMAT" default:"json"`
	Terminal     string `envconfig:"INVOICEDESK_TERMINAL_LABEL" default:"TERMINAL #1"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// BackendConfig points at the inventory REST API that owns clients, stock and invoices.
type BackendConfig struct {
	BaseURL        string        `envconfig:"INVOICEDESK_BACKEND_BASE_URL" required:"true"`
	RequestTimeout time.Duration `envconfig:"INVOICEDESK_BACKEND_REQUEST_TIMEOUT" default:"10s"`
	SubmitTimeout  time.Duration `envconfig:"INVOICEDESK_BACKEND_SUBMIT_TIMEOUT" default:"15s"`
	MaxCatalogPage int           `envconfig:"INVOICEDESK_BACKEND_MAX_CATALOG_PAGES" default:"50"`
}

func (b BackendConfig) validate() error {
	parsed, err := url.Parse(strings.TrimSpace(b.BaseURL))
	if err != nil {
		return fmt.Errorf("parsing %s: %w", EnvBackendBaseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) url", EnvBackendBaseURL)
	}
	if b.SubmitTimeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvBackendSubmitTimeout)
	}
	return nil
}

type DBConfig struct {
	DSN    string `envconfig:"INVOICEDESK_DB_DSN"`
	Driver string `envconfig:"INVOICEDESK_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"INVOICEDESK_DB_HOST"`
	Port     int    `envconfig:"INVOICEDESK_DB_PORT" default:"5432"`
	User     string `envconfig:"INVOICEDESK_DB_USER"`
	Password string `envconfig:"INVOICEDESK_DB_PASSWORD"`
	Name     string `envconfig:"INVOICEDESK_DB_NAME"`
	SSLMode  string `envconfig:"INVOICEDESK_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"INVOICEDESK_SQLITE_PATH" default:"invoicedesk.db"`

	MaxOpenConns    int           `envconfig:"INVOICEDESK_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"INVOICEDESK_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"INVOICEDESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"INVOICEDESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"INVOICEDESK_DB_SLOW_QUERY_THRESHOLD" default:"250ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"INVOICEDESK_REDIS_URL"`
	Address      string        `envconfig:"INVOICEDESK_REDIS_ADDR"`
	Password     string        `envconfig:"INVOICEDESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"INVOICEDESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"INVOICEDESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"INVOICEDESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"INVOICEDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"INVOICEDESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"INVOICEDESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"INVOICEDESK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"INVOICEDESK_JWT_ISSUER" default:"invoicedesk"`
	ExpirationMinutes int    `envconfig:"INVOICEDESK_JWT_EXPIRATION_MINUTES" default:"720"`
}

// TokenTTL returns the session token lifetime.
func (j JWTConfig) TokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// SessionConfig controls how long server-side session state survives in Redis.
type SessionConfig struct {
	StateTTL time.Duration `envconfig:"INVOICEDESK_SESSION_STATE_TTL" default:"24h"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"INVOICEDESK_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"INVOICEDESK_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"INVOICEDESK_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"INVOICEDESK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"INVOICEDESK_AUTO_MIGRATE" default:"false"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"INVOICEDESK_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DriverSQLite
		if db.DSN == "" {
			db.DSN = db.SQLitePath
		}
		return nil
	}
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
