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
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Marketplace   MarketplaceConfig
	Admin         AdminConfig
	Media         MediaConfig
	Identity      IdentityConfig
	Outbox        OutboxConfig
	Idempotency   IdempotencyConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if !cfg.FeatureFlags.UseSQLite {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if err := cfg.Marketplace.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env            string   `envconfig:"KUKUMART_APP_ENV" required:"true"`
	Port           string   `envconfig:"KUKUMART_APP_PORT" default:"8080"`
	LogLevel       string   `envconfig:"KUKUMART_LOG_LEVEL" default:"info"`
	LogWarnStack   bool     `envconfig:"KUKUMART_LOG_WARN_STACK" default:"false"`
	LogFormat      string   `envconfig:"KUKUMART_LOG_FORMAT" default:"json"`
	AllowedOrigins []string `envconfig:"KUKUMART_CORS_ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev) || strings.EqualFold(a.Env, "development")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type DBConfig struct {
	DSN        string `envconfig:"KUKUMART_DB_DSN"`
	Driver     string `envconfig:"KUKUMART_DB_DRIVER" default:"postgres"`
	SQLitePath string `envconfig:"KUKUMART_SQLITE_PATH" default:"kukumart.db"`

	LegacyHost     string `envconfig:"KUKUMART_DB_HOST"`
	LegacyPort     int    `envconfig:"KUKUMART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"KUKUMART_DB_USER"`
	LegacyPassword string `envconfig:"KUKUMART_DB_PASSWORD"`
	LegacyName     string `envconfig:"KUKUMART_DB_NAME"`
	LegacySSLMode  string `envconfig:"KUKUMART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"KUKUMART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"KUKUMART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"KUKUMART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"KUKUMART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"KUKUMART_DB_SLOW_QUERY" default:"200ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"KUKUMART_REDIS_URL" required:"true"`
	Address      string        `envconfig:"KUKUMART_REDIS_ADDR"`
	Password     string        `envconfig:"KUKUMART_REDIS_PASSWORD"`
	DB           int           `envconfig:"KUKUMART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KUKUMART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KUKUMART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KUKUMART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KUKUMART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KUKUMART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"KUKUMART_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"KUKUMART_JWT_ISSUER" default:"kukumart"`
	ExpirationMinutes int    `envconfig:"KUKUMART_JWT_EXPIRATION_MINUTES" default:"10080"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"KUKUMART_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"KUKUMART_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"KUKUMART_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"KUKUMART_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"KUKUMART_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"KUKUMART_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"KUKUMART_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"KUKUMART_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"KUKUMART_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"KUKUMART_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"KUKUMART_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"KUKUMART_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"KUKUMART_AUTO_MIGRATE" default:"false"`
}

// MarketplaceConfig holds the commercial constants applied at checkout and withdrawal.
type MarketplaceConfig struct {
	CommissionBasisPoints int64  `envconfig:"KUKUMART_COMMISSION_BPS" default:"600"`
	MinWithdrawal         int64  `envconfig:"KUKUMART_MIN_WITHDRAWAL" default:"10000"`
	Currency              string `envconfig:"KUKUMART_CURRENCY" default:"TZS"`
	// AdminWhatsApp pins the admin number. Left empty, the number saved in
	// the runtime settings applies.
	AdminWhatsApp         string `envconfig:"KUKUMART_ADMIN_WHATSAPP"`
}

func (m MarketplaceConfig) validate() error {
	if m.CommissionBasisPoints < 0 || m.CommissionBasisPoints > 10000 {
		return fmt.Errorf("%s must be between 0 and 10000", EnvCommission)
	}
	if m.MinWithdrawal <= 0 {
		return fmt.Errorf("%s must be positive", EnvMinWithdraw)
	}
	return nil
}

// AdminConfig seeds the operator account on boot when both fields are set.
type AdminConfig struct {
	Email    string `envconfig:"KUKUMART_ADMIN_EMAIL"`
	Password string `envconfig:"KUKUMART_ADMIN_PASSWORD"`
	Name     string `envconfig:"KUKUMART_ADMIN_NAME" default:"KukuMart Admin"`
}

func (a AdminConfig) Enabled() bool {
	return strings.TrimSpace(a.Email) != "" && a.Password != ""
}

type MediaConfig struct {
	ImageKitPublicKey   string `envconfig:"KUKUMART_IMAGEKIT_PUBLIC_KEY"`
	ImageKitPrivateKey  string `envconfig:"KUKUMART_IMAGEKIT_PRIVATE_KEY"`
	ImageKitURLEndpoint string `envconfig:"KUKUMART_IMAGEKIT_URL_ENDPOINT"`
}

type IdentityConfig struct {
	APIKey     string `envconfig:"KUKUMART_IDENTITY_API_KEY"`
	AuthDomain string `envconfig:"KUKUMART_IDENTITY_AUTH_DOMAIN"`
	ProjectID  string `envconfig:"KUKUMART_IDENTITY_PROJECT_ID"`
}

type OutboxConfig struct {
	BatchSize         int           `envconfig:"KUKUMART_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS    int           `envconfig:"KUKUMART_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts       int           `envconfig:"KUKUMART_OUTBOX_MAX_ATTEMPTS" default:"10"`
	PublishRatePerSec float64       `envconfig:"KUKUMART_OUTBOX_PUBLISH_RATE" default:"200"`
	DedupeTTL         time.Duration `envconfig:"KUKUMART_OUTBOX_DEDUPE_TTL" default:"24h"`
	Retention         time.Duration `envconfig:"KUKUMART_OUTBOX_RETENTION" default:"168h"`
	MetricsAddr       string        `envconfig:"KUKUMART_OUTBOX_METRICS_ADDR" default:":9091"`
}

type IdempotencyConfig struct {
	TTL time.Duration `envconfig:"KUKUMART_IDEMPOTENCY_TTL" default:"24h"`
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
