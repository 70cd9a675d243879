package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Market       MarketConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if _, err := cfg.Market.Location(); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SURPRISEBAG_APP_ENV" required:"true"`
	Port         string `envconfig:"SURPRISEBAG_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SURPRISEBAG_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"SURPRISEBAG_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"SURPRISEBAG_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"SURPRISEBAG_APP_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev) || strings.EqualFold(a.Env, "development")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind string `envconfig:"SURPRISEBAG_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SURPRISEBAG_DB_DSN"`
	Driver string `envconfig:"SURPRISEBAG_DB_DRIVER" default:"postgres"`

	SQLitePath string `envconfig:"SURPRISEBAG_SQLITE_PATH" default:"surprisebag.db"`

	LegacyHost     string `envconfig:"SURPRISEBAG_DB_HOST"`
	LegacyPort     int    `envconfig:"SURPRISEBAG_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SURPRISEBAG_DB_USER"`
	LegacyPassword string `envconfig:"SURPRISEBAG_DB_PASSWORD"`
	LegacyName     string `envconfig:"SURPRISEBAG_DB_NAME"`
	LegacySSLMode  string `envconfig:"SURPRISEBAG_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SURPRISEBAG_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SURPRISEBAG_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SURPRISEBAG_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SURPRISEBAG_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"SURPRISEBAG_DB_SLOW_QUERY_THRESHOLD" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SURPRISEBAG_REDIS_URL"`
	Address      string        `envconfig:"SURPRISEBAG_REDIS_ADDR" default:"localhost:6379"`
	Password     string        `envconfig:"SURPRISEBAG_REDIS_PASSWORD"`
	DB           int           `envconfig:"SURPRISEBAG_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SURPRISEBAG_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SURPRISEBAG_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SURPRISEBAG_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SURPRISEBAG_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SURPRISEBAG_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig holds the verification settings for bearer tokens minted by the
// identity service.
type JWTConfig struct {
	Secret string `envconfig:"SURPRISEBAG_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"SURPRISEBAG_JWT_ISSUER" default:"surprisebag"`
}

type MarketConfig struct {
	Timezone         string          `envconfig:"SURPRISEBAG_MARKET_TIMEZONE" default:"Asia/Tashkent"`
	DeliveryFee      decimal.Decimal `envconfig:"SURPRISEBAG_MARKET_DELIVERY_FEE" default:"5000"`
	CatalogPageSize  int             `envconfig:"SURPRISEBAG_MARKET_CATALOG_PAGE_SIZE" default:"12"`
	NearbyLimit      int             `envconfig:"SURPRISEBAG_MARKET_NEARBY_LIMIT" default:"20"`
	RecommendLimit   int             `envconfig:"SURPRISEBAG_MARKET_RECOMMEND_LIMIT" default:"12"`
	SessionCookie    string          `envconfig:"SURPRISEBAG_MARKET_SESSION_COOKIE" default:"sb_session"`
	SessionCookieTTL time.Duration   `envconfig:"SURPRISEBAG_MARKET_SESSION_COOKIE_TTL" default:"336h"`

	loc *time.Location
}

// Location resolves the fixed market time zone. Evaluation of opening hours
// and availability windows never uses the machine-local zone.
func (m *MarketConfig) Location() (*time.Location, error) {
	if m.loc != nil {
		return m.loc, nil
	}
	name := strings.TrimSpace(m.Timezone)
	if name == "" {
		name = DefaultMarketTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading market timezone %q: %w", name, err)
	}
	m.loc = loc
	return loc, nil
}

type RateLimitConfig struct {
	CartWindow    time.Duration `envconfig:"SURPRISEBAG_RATE_LIMIT_CART_WINDOW" default:"1m"`
	CartLimit     int           `envconfig:"SURPRISEBAG_RATE_LIMIT_CART_LIMIT" default:"60"`
	ReserveWindow time.Duration `envconfig:"SURPRISEBAG_RATE_LIMIT_RESERVE_WINDOW" default:"1m"`
	ReserveLimit  int           `envconfig:"SURPRISEBAG_RATE_LIMIT_RESERVE_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SURPRISEBAG_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SURPRISEBAG_AUTO_MIGRATE" default:"false"`
	UseRedis    bool `envconfig:"SURPRISEBAG_USE_REDIS" default:"true"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"SURPRISEBAG_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"SURPRISEBAG_CRON_LOCK_TTL" default:"30m"`
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
