package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "development"
	AppEnvProd = "production"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Pricing      PricingConfig
	PhonePe      PhonePeConfig
	Scraper      ScraperConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"VIRALDEALS_APP_ENV" required:"true"`
	Port         string `envconfig:"VIRALDEALS_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"VIRALDEALS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VIRALDEALS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"VIRALDEALS_DB_DSN"`
	Driver string `envconfig:"VIRALDEALS_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"VIRALDEALS_DB_HOST"`
	Port     int    `envconfig:"VIRALDEALS_DB_PORT" default:"5432"`
	User     string `envconfig:"VIRALDEALS_DB_USER"`
	Password string `envconfig:"VIRALDEALS_DB_PASSWORD"`
	Name     string `envconfig:"VIRALDEALS_DB_NAME"`
	SSLMode  string `envconfig:"VIRALDEALS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VIRALDEALS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VIRALDEALS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VIRALDEALS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VIRALDEALS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either VIRALDEALS_DB_DSN or host/user/name settings are required")
	}
	d.DSN = fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, url.QueryEscape(d.Password), d.Name, d.SSLMode,
	)
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"VIRALDEALS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"VIRALDEALS_REDIS_ADDR"`
	Password     string        `envconfig:"VIRALDEALS_REDIS_PASSWORD"`
	DB           int           `envconfig:"VIRALDEALS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VIRALDEALS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VIRALDEALS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VIRALDEALS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VIRALDEALS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VIRALDEALS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"VIRALDEALS_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"VIRALDEALS_JWT_ISSUER" default:"viraldeals"`
	ExpirationMinutes      int    `envconfig:"VIRALDEALS_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"VIRALDEALS_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"VIRALDEALS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"VIRALDEALS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"VIRALDEALS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"VIRALDEALS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"VIRALDEALS_ARGON_KEY_LEN" default:"32"`
}

// PricingConfig carries the storefront money rules. Amounts are whole rupees.
type PricingConfig struct {
	GSTRatePercent    int `envconfig:"VIRALDEALS_GST_RATE_PERCENT" default:"18"`
	FreeShippingAbove int `envconfig:"VIRALDEALS_FREE_SHIPPING_ABOVE" default:"499"`
	ShippingBaseCost  int `envconfig:"VIRALDEALS_SHIPPING_BASE_COST" default:"49"`
}

type PhonePeConfig struct {
	BaseURL      string        `envconfig:"VIRALDEALS_PHONEPE_BASE_URL" default:"https://api-preprod.phonepe.com/apis/pg-sandbox"`
	MerchantID   string        `envconfig:"VIRALDEALS_PHONEPE_MERCHANT_ID"`
	SaltKey      string        `envconfig:"VIRALDEALS_PHONEPE_SALT_KEY"`
	SaltIndex    int           `envconfig:"VIRALDEALS_PHONEPE_SALT_INDEX" default:"1"`
	CallbackURL  string        `envconfig:"VIRALDEALS_PHONEPE_CALLBACK_URL"`
	RedirectURL  string        `envconfig:"VIRALDEALS_PHONEPE_REDIRECT_URL"`
	PollInterval time.Duration `envconfig:"VIRALDEALS_PHONEPE_POLL_INTERVAL" default:"3s"`
	PollAttempts int           `envconfig:"VIRALDEALS_PHONEPE_POLL_ATTEMPTS" default:"20"`
	PollGrace    time.Duration `envconfig:"VIRALDEALS_PHONEPE_POLL_GRACE" default:"10s"`
}

type ScraperConfig struct {
	SourceURL string        `envconfig:"VIRALDEALS_SCRAPER_SOURCE_URL"`
	Timeout   time.Duration `envconfig:"VIRALDEALS_SCRAPER_TIMEOUT" default:"30s"`
	MaxItems  int           `envconfig:"VIRALDEALS_SCRAPER_MAX_ITEMS" default:"100"`
}

type RateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"VIRALDEALS_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginIPLimit       int           `envconfig:"VIRALDEALS_RATE_LIMIT_LOGIN_IP" default:"10"`
	LoginEmailLimit    int           `envconfig:"VIRALDEALS_RATE_LIMIT_LOGIN_EMAIL" default:"5"`
	RegisterWindow     time.Duration `envconfig:"VIRALDEALS_RATE_LIMIT_REGISTER_WINDOW" default:"1h"`
	RegisterIPLimit    int           `envconfig:"VIRALDEALS_RATE_LIMIT_REGISTER_IP" default:"20"`
	RegisterEmailLimit int           `envconfig:"VIRALDEALS_RATE_LIMIT_REGISTER_EMAIL" default:"3"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"VIRALDEALS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"VIRALDEALS_AUTO_MIGRATE" default:"false"`
}
