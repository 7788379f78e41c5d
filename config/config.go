package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Payment    PaymentConfig
	Cloudinary CloudinaryConfig
	Admin      AdminConfig
	Reconcile  ReconcileConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	RateLimit    float64 // requests per second per client IP
	RateBurst    int
}

type DatabaseConfig struct {
	Driver          string // sqlite | mysql | postgres
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

// PaymentConfig covers both the hosted order API credentials and the
// merchant checksum key. KeySecret and MerchantKey never leave the process.
type PaymentConfig struct {
	Provider       string // hosted | stub
	BaseURL        string
	KeyID          string
	KeySecret      string
	MerchantID     string
	MerchantKey    string
	Website        string
	ChannelID      string
	IndustryTypeID string
	Currency       string
	CallbackURL    string // public URL of POST /api/v1/orders/verify
	RedirectURL    string // optional frontend page to send the browser to after verify
	Timeout        time.Duration
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

type AdminConfig struct {
	Name     string
	Email    string
	Password string
}

type ReconcileConfig struct {
	Enabled  bool
	Schedule string
}

func Load() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "5000"),
			Env:          getEnv("APP_ENV", "development"),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			RateLimit:    getEnvFloat("RATE_LIMIT_RPS", 5),
			RateBurst:    getEnvInt("RATE_LIMIT_BURST", 20),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "sqlite"),
			DSN:             getEnv("DB_DSN", "cms.db?_foreign_keys=1&_txlock=immediate&_busy_timeout=5000"),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 50),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		},
		JWT: JWTConfig{
			AccessSecret:  getEnv("JWT_SECRET", "change-me-in-production"),
			RefreshSecret: getEnv("JWT_REFRESH_SECRET", "change-me-refresh"),
			AccessExpiry:  getEnvDuration("JWT_EXPIRES_IN", 24*time.Hour),
			RefreshExpiry: getEnvDuration("JWT_REFRESH_EXPIRES_IN", 168*time.Hour),
			Issuer:        getEnv("JWT_ISSUER", "cms"),
		},
		Payment: PaymentConfig{
			Provider:       getEnv("PAYMENT_PROVIDER", "stub"),
			BaseURL:        getEnv("PAYMENT_BASE_URL", "https://api.razorpay.com"),
			KeyID:          getEnv("PAYMENT_KEY_ID", ""),
			KeySecret:      getEnv("PAYMENT_KEY_SECRET", ""),
			MerchantID:     getEnv("PAYMENT_MERCHANT_ID", ""),
			MerchantKey:    getEnv("PAYMENT_MERCHANT_KEY", ""),
			Website:        getEnv("PAYMENT_WEBSITE", "WEBSTAGING"),
			ChannelID:      getEnv("PAYMENT_CHANNEL_ID", "WEB"),
			IndustryTypeID: getEnv("PAYMENT_INDUSTRY_TYPE_ID", "Retail"),
			Currency:       getEnv("PAYMENT_CURRENCY", "INR"),
			CallbackURL:    getEnv("PAYMENT_CALLBACK_URL", "http://localhost:5000/api/v1/orders/verify"),
			RedirectURL:    getEnv("PAYMENT_REDIRECT_URL", ""),
			Timeout:        getEnvDuration("PAYMENT_TIMEOUT", 30*time.Second),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:    getEnv("CLOUDINARY_API_KEY", ""),
			APISecret: getEnv("CLOUDINARY_API_SECRET", ""),
			Folder:    getEnv("CLOUDINARY_FOLDER", "cms/courses"),
		},
		Admin: AdminConfig{
			Name:     getEnv("ADMIN_NAME", "CMS Administrator"),
			Email:    getEnv("ADMIN_EMAIL", "admin@cms.com"),
			Password: getEnv("ADMIN_PASSWORD", "adminpassword123"),
		},
		Reconcile: ReconcileConfig{
			Enabled:  getEnvBool("RECONCILE_ENABLED", true),
			Schedule: getEnv("RECONCILE_SCHEDULE", "@every 5m"),
		},
	}
	if cfg.JWT.AccessSecret == "change-me-in-production" {
		log.Println("[config] JWT_SECRET not set, using development default")
	}
	if cfg.Payment.MerchantKey == "" {
		log.Println("[config] PAYMENT_MERCHANT_KEY not set, every settlement callback will be rejected")
	}
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] %s=%q is not an integer, using %d", key, v, def)
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("[config] %s=%q is not a number, using %v", key, v, def)
		return def
	}
	return f
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// getEnvDuration accepts Go durations ("15m") and the "1d" shorthand.
func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if n := len(v); n > 1 && v[n-1] == 'd' {
		if days, err := strconv.Atoi(v[:n-1]); err == nil {
			return time.Duration(days) * 24 * time.Hour
		}
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[config] %s=%q is not a duration, using %s", key, v, def)
		return def
	}
	return d
}
