package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable; see Load for names and defaults.
type Config struct {
	Env       string // application environment (development, production)
	Port      string // HTTP port to listen on
	APIPrefix string // versioned path prefix for every API route
	LogLevel  string

	DB DBConfig

	JWTSecret  string        // secret used to sign bearer tokens
	TokenTTL   time.Duration // bearer token lifetime
	BcryptCost int           // bcrypt cost for password hashing (never below 10)

	ClientOrigins  []string      // CORS allow-list for the web client
	RequestTimeout time.Duration // deadline applied to every request context

	Payment PaymentConfig
	Upload  UploadConfig

	RabbitURL     string // empty disables event publishing
	EventsLogPath string // where the event consumer appends lines
}

// DBConfig describes the document store connection.
type DBConfig struct {
	Driver         string // "mysql" or "sqlite"
	User           string
	Pass           string
	Host           string
	Port           string
	Name           string
	SQLitePath     string
	ConnectTimeout time.Duration // dial timeout
	IOTimeout      time.Duration // socket read/write idle timeout
	AutoMigrate    bool
}

// PaymentConfig holds the payment provider key pair.
type PaymentConfig struct {
	KeyID     string
	KeySecret string
	Currency  string
}

// UploadConfig bounds image uploads.
type UploadConfig struct {
	Dir          string
	PublicBase   string // absolute URL prefix for served files
	MaxFiles     int
	MaxFileBytes int64
}

const minBcryptCost = 10

// IsDevelopment reports whether internal error detail may be exposed.
func (c Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// Load reads .env (if present) and the environment into a Config. Missing
// required variables are reported together.
func Load() (Config, error) {
	_ = godotenv.Load() // .env is optional; real env vars take precedence

	cfg := Config{
		Env:       envStr("APP_ENV", "development"),
		Port:      envStr("APP_PORT", "8080"),
		APIPrefix: "/" + strings.Trim(envStr("API_PREFIX", "/api/v1"), "/"),
		LogLevel:  envStr("LOG_LEVEL", "info"),
		DB: DBConfig{
			Driver:         strings.ToLower(envStr("DB_DRIVER", "mysql")),
			User:           os.Getenv("DB_USER"),
			Pass:           os.Getenv("DB_PASS"), // empty allowed
			Host:           os.Getenv("DB_HOST"),
			Port:           envStr("DB_PORT", "3306"),
			Name:           os.Getenv("DB_NAME"),
			SQLitePath:     envStr("SQLITE_PATH", "data/travel.db"),
			ConnectTimeout: envDur("DB_CONNECT_TIMEOUT", 5*time.Second),
			IOTimeout:      envDur("DB_IO_TIMEOUT", 45*time.Second),
			AutoMigrate:    envBool("DB_AUTO_MIGRATE", true),
		},
		JWTSecret:      os.Getenv("JWT_SECRET"),
		TokenTTL:       envDur("TOKEN_TTL", 7*24*time.Hour),
		BcryptCost:     envInt("BCRYPT_COST", minBcryptCost),
		ClientOrigins:  splitList(envStr("CLIENT_ORIGINS", "http://localhost:3000")),
		RequestTimeout: envDur("REQUEST_TIMEOUT", 30*time.Second),
		Payment: PaymentConfig{
			KeyID:     os.Getenv("RAZORPAY_KEY_ID"),
			KeySecret: os.Getenv("RAZORPAY_KEY_SECRET"),
			Currency:  strings.ToUpper(envStr("PAYMENT_CURRENCY", "INR")),
		},
		Upload: UploadConfig{
			Dir:          envStr("UPLOAD_DIR", "uploads"),
			PublicBase:   strings.TrimRight(envStr("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
			MaxFiles:     envInt("UPLOAD_MAX_FILES", 10),
			MaxFileBytes: int64(envInt("UPLOAD_MAX_FILE_BYTES", 5<<20)),
		},
		RabbitURL:     firstNonEmpty(os.Getenv("RABBITMQ_URL"), os.Getenv("AMQP_URL")),
		EventsLogPath: envStr("EVENTS_LOG_PATH", "logs/events.log"),
	}
	if cfg.BcryptCost < minBcryptCost {
		cfg.BcryptCost = minBcryptCost
	}
	if cfg.Upload.MaxFiles < 1 {
		cfg.Upload.MaxFiles = 1
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, missing("JWT_SECRET"))
	}
	switch c.DB.Driver {
	case "mysql":
		for key, val := range map[string]string{"DB_HOST": c.DB.Host, "DB_USER": c.DB.User, "DB_NAME": c.DB.Name} {
			if val == "" {
				errs = append(errs, missing(key))
			}
		}
	case "sqlite":
		if c.DB.SQLitePath == "" {
			errs = append(errs, missing("SQLITE_PATH"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q (want mysql or sqlite)", c.DB.Driver))
	}
	return errors.Join(errs...)
}

func missing(key string) error {
	return fmt.Errorf("missing required env var: %s", key)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
