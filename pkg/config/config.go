package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = "POS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	StorageDriverRedis    = "redis"
	StorageDriverSQLite   = "sqlite"
	StorageDriverPostgres = "postgres"

	EnvAppEnv          = "POS_APP_ENV"
	EnvPort            = "POS_APP_PORT"
	EnvTerminalID      = "POS_TERMINAL_ID"
	EnvStorageDriver   = "POS_STORAGE_DRIVER"
	EnvRedisURL        = "POS_REDIS_URL"
	EnvRedisAddr       = "POS_REDIS_ADDR"
	EnvDBDSN           = "POS_DB_DSN"
	EnvSQLitePath      = "POS_SQLITE_PATH"
	EnvJWTSecret       = "POS_JWT_SECRET"
	EnvJWTIssuer       = "POS_JWT_ISSUER"
	EnvBackendBaseURL  = "POS_BACKEND_BASE_URL"
	EnvCheckoutTaxRate = "POS_CHECKOUT_TAX_RATE"
	EnvPrinterMode     = "POS_PRINTER_MODE"
	EnvPrinterAddress  = "POS_PRINTER_ADDRESS"
	EnvPrinterDevice   = "POS_PRINTER_DEVICE"
)

type Config struct {
	App      AppConfig
	Storage  StorageConfig
	Redis    RedisConfig
	DB       DBConfig
	JWT      JWTConfig
	Backend  BackendConfig
	Checkout CheckoutConfig
	Printer  PrinterConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Storage.validate(cfg.Redis, cfg.DB); err != nil {
		return nil, err
	}
	if _, err := cfg.Checkout.Rate(); err != nil {
		return nil, err
	}
	if err := cfg.Printer.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"POS_APP_ENV" required:"true"`
	Port         string `envconfig:"POS_APP_PORT" default:"8787"`
	TerminalID   string `envconfig:"POS_TERMINAL_ID" default:"till-1"`
	LogLevel     string `envconfig:"POS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"POS_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"POS_LOG_FORMAT"`

	// CORSOrigins lists the UI origins allowed to call the local API.
	CORSOrigins []string `envconfig:"POS_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// StorageConfig selects where the order session is kept between restarts.
type StorageConfig struct {
	Driver      string `envconfig:"POS_STORAGE_DRIVER" default:"sqlite"`
	Namespace   string `envconfig:"POS_STORAGE_NAMESPACE" default:"pos"`
	AutoMigrate bool   `envconfig:"POS_STORAGE_AUTO_MIGRATE" default:"true"`
}

func (s StorageConfig) NormalizedDriver() string {
	driver := strings.ToLower(strings.TrimSpace(s.Driver))
	if driver == "" {
		return StorageDriverSQLite
	}
	return driver
}

func (s StorageConfig) validate(redisCfg RedisConfig, dbCfg DBConfig) error {
	switch s.NormalizedDriver() {
	case StorageDriverRedis:
		if redisCfg.URL == "" && redisCfg.Address == "" {
			return fmt.Errorf("either %s or %s is required for the redis storage driver", EnvRedisURL, EnvRedisAddr)
		}
	case StorageDriverPostgres:
		if dbCfg.DSN == "" {
			return fmt.Errorf("%s is required for the postgres storage driver", EnvDBDSN)
		}
	case StorageDriverSQLite:
		if dbCfg.SQLitePath == "" {
			return fmt.Errorf("%s is required for the sqlite storage driver", EnvSQLitePath)
		}
	default:
		return fmt.Errorf("unsupported storage driver %q", s.Driver)
	}
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"POS_REDIS_URL"`
	Address      string        `envconfig:"POS_REDIS_ADDR"`
	Password     string        `envconfig:"POS_REDIS_PASSWORD"`
	DB           int           `envconfig:"POS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"POS_REDIS_POOL_SIZE" default:"4"`
	MinIdleConns int           `envconfig:"POS_REDIS_MIN_IDLE_CONNS" default:"1"`
	DialTimeout  time.Duration `envconfig:"POS_REDIS_DIAL_TIMEOUT" default:"2s"`
	ReadTimeout  time.Duration `envconfig:"POS_REDIS_READ_TIMEOUT" default:"2s"`
	WriteTimeout time.Duration `envconfig:"POS_REDIS_WRITE_TIMEOUT" default:"2s"`
}

type DBConfig struct {
	DSN        string `envconfig:"POS_DB_DSN"`
	SQLitePath string `envconfig:"POS_SQLITE_PATH" default:"pos-terminal.db"`

	MaxOpenConns    int           `envconfig:"POS_DB_MAX_OPEN_CONNS" default:"4"`
	MaxIdleConns    int           `envconfig:"POS_DB_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `envconfig:"POS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"POS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// JWTConfig verifies operator tokens minted by the store backend.
type JWTConfig struct {
	Secret string `envconfig:"POS_JWT_SECRET"`
	Issuer string `envconfig:"POS_JWT_ISSUER"`
}

// Enabled reports whether operator tokens can be verified at all.
func (j JWTConfig) Enabled() bool {
	return strings.TrimSpace(j.Secret) != ""
}

type BackendConfig struct {
	BaseURL  string        `envconfig:"POS_BACKEND_BASE_URL" required:"true"`
	APIToken string        `envconfig:"POS_BACKEND_API_TOKEN"`
	Timeout  time.Duration `envconfig:"POS_BACKEND_TIMEOUT" default:"15s"`
}

type CheckoutConfig struct {
	TaxRate       string        `envconfig:"POS_CHECKOUT_TAX_RATE" default:"0"`
	SourceAlias   string        `envconfig:"POS_CHECKOUT_SOURCE_ALIAS" default:"pos"`
	PickupNote    string        `envconfig:"POS_CHECKOUT_PICKUP_NOTE" default:"Picked up in store"`
	PrintFallback time.Duration `envconfig:"POS_CHECKOUT_PRINT_FALLBACK" default:"30s"`
	PrintSettle   time.Duration `envconfig:"POS_CHECKOUT_PRINT_SETTLE" default:"250ms"`
	SubmitTimeout time.Duration `envconfig:"POS_CHECKOUT_SUBMIT_TIMEOUT" default:"30s"`
}

// Rate parses the configured tax rate (a fraction, e.g. "0.1" for 10%).
func (c CheckoutConfig) Rate() (decimal.Decimal, error) {
	raw := strings.TrimSpace(c.TaxRate)
	if raw == "" {
		return decimal.Zero, nil
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing %s: %w", EnvCheckoutTaxRate, err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("%s must be between 0 and 1, got %s", EnvCheckoutTaxRate, raw)
	}
	return rate, nil
}

const (
	PrinterModeNone    = "none"
	PrinterModeNetwork = "network"
	PrinterModeUSB     = "usb"
	PrinterModeSpool   = "spool"
)

type PrinterConfig struct {
	Mode         string        `envconfig:"POS_PRINTER_MODE" default:"none"`
	Address      string        `envconfig:"POS_PRINTER_ADDRESS"`
	Device       string        `envconfig:"POS_PRINTER_DEVICE" default:"/dev/usb/lp0"`
	SpoolCommand string        `envconfig:"POS_PRINTER_SPOOL_COMMAND" default:"lp"`
	CharWidth    int           `envconfig:"POS_PRINTER_CHAR_WIDTH" default:"48"`
	DialTimeout  time.Duration `envconfig:"POS_PRINTER_DIAL_TIMEOUT" default:"5s"`
}

func (p PrinterConfig) NormalizedMode() string {
	mode := strings.ToLower(strings.TrimSpace(p.Mode))
	if mode == "" {
		return PrinterModeNone
	}
	return mode
}

func (p PrinterConfig) validate() error {
	switch p.NormalizedMode() {
	case PrinterModeNone, PrinterModeSpool:
		return nil
	case PrinterModeNetwork:
		if strings.TrimSpace(p.Address) == "" {
			return fmt.Errorf("%s is required for network printers", EnvPrinterAddress)
		}
		return nil
	case PrinterModeUSB:
		if strings.TrimSpace(p.Device) == "" {
			return fmt.Errorf("%s is required for usb printers", EnvPrinterDevice)
		}
		return nil
	default:
		return fmt.Errorf("unsupported printer mode %q", p.Mode)
	}
}
