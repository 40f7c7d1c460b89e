package config

import (
	"log/slog"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	JWT          JWTConfig
	CORS         CORSConfig
	RateLimit    RateLimitConfig
	Redis        RedisConfig
	RabbitMQ     RabbitMQConfig
	TSE          TSEConfig
	FinanzOnline FinanzOnlineConfig
	Cart         CartConfig
	Company      CompanyConfig
	Printer      PrinterConfig
	Admin        AdminConfig
}

type AppConfig struct {
	Name   string
	Env    string
	Port   string
	Debug  bool
	NodeID int64
}

type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       string
	Name       string
	User       string
	Password   string
	SSLMode    string
	Timezone   string
	SQLitePath string
}

type JWTConfig struct {
	Secret      string
	ExpiryHours time.Duration
	Issuer      string
	Audience    string
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type RateLimitConfig struct {
	Requests int
	Duration int
}

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	StatusTTL time.Duration
}

type RabbitMQConfig struct {
	URL   string
	Queue string
}

// TSEConfig selects and tunes the fiscal signing device driver.
type TSEConfig struct {
	Driver           string
	HandshakeTimeout time.Duration
	SignTimeout      time.Duration
	SimulatedLatency time.Duration
	VendorID         string
	ProductID        string
	KeyFile          string
	SysfsRoot        string
}

type FinanzOnlineConfig struct {
	Mode           string
	Endpoint       string
	Timeout        time.Duration
	MaxAttempts    int
	RetryBaseDelay time.Duration
	Workers        int
}

type CartConfig struct {
	TTL           time.Duration
	MaxQuantity   int
	SweepInterval time.Duration
}

type CompanyConfig struct {
	Name      string
	Address   string
	TaxNumber string
}

type PrinterConfig struct {
	Type    string
	USBPath string
	Address string
	Width   int
}

type AdminConfig struct {
	Username string
	Password string
}

func Load() *Config {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		slog.Warn(".env file not found, using environment variables", "error", err)
	}

	setDefaults(v)
	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "kassa-api")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_DEBUG", true)
	v.SetDefault("APP_NODE_ID", 1)
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "kassa")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_TIMEZONE", "Europe/Vienna")
	v.SetDefault("DB_SQLITE_PATH", "kassa.db")
	v.SetDefault("JWT_SECRET", "change-this-secret-in-production")
	v.SetDefault("JWT_EXPIRY_HOURS", 12)
	v.SetDefault("JWT_ISSUER", "kassa-api")
	v.SetDefault("JWT_AUDIENCE", "kassa-clients")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("CORS_ALLOWED_HEADERS", []string{})
	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_DURATION", 60)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_STATUS_TTL_SECONDS", 30)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_QUEUE", "finanzonline_submissions")
	v.SetDefault("TSE_DRIVER", "simulated")
	v.SetDefault("TSE_HANDSHAKE_TIMEOUT_MS", 3000)
	v.SetDefault("TSE_SIGN_TIMEOUT_MS", 2000)
	v.SetDefault("TSE_SIMULATED_LATENCY_MS", 150)
	v.SetDefault("TSE_VENDOR_ID", "0x1a86")
	v.SetDefault("TSE_PRODUCT_ID", "0x7523")
	v.SetDefault("TSE_KEY_FILE", "")
	v.SetDefault("TSE_SYSFS_ROOT", "/sys/bus/usb/devices")
	v.SetDefault("FINANZONLINE_MODE", "simulated")
	v.SetDefault("FINANZONLINE_ENDPOINT", "https://finanzonline.bmf.gv.at/fonws/ws/rkdb")
	v.SetDefault("FINANZONLINE_TIMEOUT_SECONDS", 10)
	v.SetDefault("FINANZONLINE_MAX_ATTEMPTS", 3)
	v.SetDefault("FINANZONLINE_RETRY_BASE_MS", 500)
	v.SetDefault("FINANZONLINE_WORKERS", 2)
	v.SetDefault("CART_TTL_HOURS", 24)
	v.SetDefault("CART_MAX_QUANTITY", 999)
	v.SetDefault("CART_SWEEP_INTERVAL_MINUTES", 10)
	v.SetDefault("COMPANY_NAME", "Kassa GmbH")
	v.SetDefault("COMPANY_ADDRESS", "Stephansplatz 1, 1010 Wien")
	v.SetDefault("COMPANY_TAX_NUMBER", "ATU12345678")
	v.SetDefault("PRINTER_TYPE", "none")
	v.SetDefault("PRINTER_USB_PATH", "/dev/usb/lp0")
	v.SetDefault("PRINTER_ADDRESS", "")
	v.SetDefault("PRINTER_WIDTH", 42)
	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("ADMIN_PASSWORD", "")
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		App: AppConfig{
			Name:   v.GetString("APP_NAME"),
			Env:    v.GetString("APP_ENV"),
			Port:   v.GetString("APP_PORT"),
			Debug:  v.GetBool("APP_DEBUG"),
			NodeID: v.GetInt64("APP_NODE_ID"),
		},
		Database: DatabaseConfig{
			Driver:     v.GetString("DB_DRIVER"),
			Host:       v.GetString("DB_HOST"),
			Port:       v.GetString("DB_PORT"),
			Name:       v.GetString("DB_NAME"),
			User:       v.GetString("DB_USER"),
			Password:   v.GetString("DB_PASSWORD"),
			SSLMode:    v.GetString("DB_SSL_MODE"),
			Timezone:   v.GetString("DB_TIMEZONE"),
			SQLitePath: v.GetString("DB_SQLITE_PATH"),
		},
		JWT: JWTConfig{
			Secret:      v.GetString("JWT_SECRET"),
			ExpiryHours: time.Duration(v.GetInt("JWT_EXPIRY_HOURS")) * time.Hour,
			Issuer:      v.GetString("JWT_ISSUER"),
			Audience:    v.GetString("JWT_AUDIENCE"),
		},
		CORS: CORSConfig{
			AllowedOrigins: v.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods: v.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders: v.GetStringSlice("CORS_ALLOWED_HEADERS"),
		},
		RateLimit: RateLimitConfig{
			Requests: v.GetInt("RATE_LIMIT_REQUESTS"),
			Duration: v.GetInt("RATE_LIMIT_DURATION"),
		},
		Redis: RedisConfig{
			Addr:      v.GetString("REDIS_ADDR"),
			Password:  v.GetString("REDIS_PASSWORD"),
			DB:        v.GetInt("REDIS_DB"),
			StatusTTL: time.Duration(v.GetInt("REDIS_STATUS_TTL_SECONDS")) * time.Second,
		},
		RabbitMQ: RabbitMQConfig{
			URL:   v.GetString("RABBITMQ_URL"),
			Queue: v.GetString("RABBITMQ_QUEUE"),
		},
		TSE: TSEConfig{
			Driver:           v.GetString("TSE_DRIVER"),
			HandshakeTimeout: time.Duration(v.GetInt("TSE_HANDSHAKE_TIMEOUT_MS")) * time.Millisecond,
			SignTimeout:      time.Duration(v.GetInt("TSE_SIGN_TIMEOUT_MS")) * time.Millisecond,
			SimulatedLatency: time.Duration(v.GetInt("TSE_SIMULATED_LATENCY_MS")) * time.Millisecond,
			VendorID:         v.GetString("TSE_VENDOR_ID"),
			ProductID:        v.GetString("TSE_PRODUCT_ID"),
			KeyFile:          v.GetString("TSE_KEY_FILE"),
			SysfsRoot:        v.GetString("TSE_SYSFS_ROOT"),
		},
		FinanzOnline: FinanzOnlineConfig{
			Mode:           v.GetString("FINANZONLINE_MODE"),
			Endpoint:       v.GetString("FINANZONLINE_ENDPOINT"),
			Timeout:        time.Duration(v.GetInt("FINANZONLINE_TIMEOUT_SECONDS")) * time.Second,
			MaxAttempts:    v.GetInt("FINANZONLINE_MAX_ATTEMPTS"),
			RetryBaseDelay: time.Duration(v.GetInt("FINANZONLINE_RETRY_BASE_MS")) * time.Millisecond,
			Workers:        v.GetInt("FINANZONLINE_WORKERS"),
		},
		Cart: CartConfig{
			TTL:           time.Duration(v.GetInt("CART_TTL_HOURS")) * time.Hour,
			MaxQuantity:   v.GetInt("CART_MAX_QUANTITY"),
			SweepInterval: time.Duration(v.GetInt("CART_SWEEP_INTERVAL_MINUTES")) * time.Minute,
		},
		Company: CompanyConfig{
			Name:      v.GetString("COMPANY_NAME"),
			Address:   v.GetString("COMPANY_ADDRESS"),
			TaxNumber: v.GetString("COMPANY_TAX_NUMBER"),
		},
		Printer: PrinterConfig{
			Type:    v.GetString("PRINTER_TYPE"),
			USBPath: v.GetString("PRINTER_USB_PATH"),
			Address: v.GetString("PRINTER_ADDRESS"),
			Width:   v.GetInt("PRINTER_WIDTH"),
		},
		Admin: AdminConfig{
			Username: v.GetString("ADMIN_USERNAME"),
			Password: v.GetString("ADMIN_PASSWORD"),
		},
	}
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.Timezone
}
