package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/semprecheio/auth-api/internal/domain"
)

const (
	devJWTSecret        = "dev-jwt-secret"
	devEncryptionSecret = "dev-encryption-secret"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Cookie       CookieConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   domain.SecurityProfile
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret        string
	JWTIssuer        string
	EncryptionSecret string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	BcryptCost       int
	SuperAdminEmails []string
	// AllowPlaintextLogin is always false under the production profile.
	AllowPlaintextLogin bool
	SessionMaxAge       time.Duration
	RememberMeMaxAge    time.Duration
}

// CookieConfig describes how session cookies are emitted.
type CookieConfig struct {
	Domain   string
	SameSite string
	Secure   bool
}

// NotificationConfig holds auth-event webhook settings.
type NotificationConfig struct {
	WebhookURL     string
	TimeoutSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	env := domain.ParseSecurityProfile(getEnv("APP_ENV", getEnv("NODE_ENV", "development")))
	accessTTL, refreshTTL := defaultTokenTTLs(env)

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "semprecheio-auth-api"),
			Env:                   env,
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:           getEnv("AUTH_JWT_SECRET", devJWTSecret),
			JWTIssuer:           getEnv("AUTH_JWT_ISSUER", "semprecheio-app"),
			EncryptionSecret:    getEnv("AUTH_ENCRYPTION_SECRET", devEncryptionSecret),
			AccessTokenTTL:      getEnvAsDuration("AUTH_ACCESS_TOKEN_TTL", accessTTL),
			RefreshTokenTTL:     getEnvAsDuration("AUTH_REFRESH_TOKEN_TTL", refreshTTL),
			BcryptCost:          getEnvAsInt("AUTH_BCRYPT_COST", 10),
			SuperAdminEmails:    getEnvAsList("AUTH_SUPER_ADMIN_EMAILS", nil),
			AllowPlaintextLogin: !env.IsProduction() && getEnvAsBool("AUTH_ALLOW_PLAINTEXT_LOGIN", true),
			SessionMaxAge:       getEnvAsDuration("AUTH_SESSION_MAX_AGE", 24*time.Hour),
			RememberMeMaxAge:    getEnvAsDuration("AUTH_REMEMBER_ME_MAX_AGE", 30*24*time.Hour),
		},
		Cookie: CookieConfig{
			Domain:   os.Getenv("COOKIE_DOMAIN"),
			SameSite: getEnv("COOKIE_SAME_SITE", "Strict"),
			Secure:   env.IsProduction(),
		},
		Notification: NotificationConfig{
			WebhookURL:     getEnv("NOTIFY_WEBHOOK_URL", ""),
			TimeoutSeconds: getEnvAsInt("NOTIFY_TIMEOUT_SECONDS", 5),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings that are unsafe for the active profile.
func (c *Config) Validate() error {
	if c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
		return errors.New("AUTH_REFRESH_TOKEN_TTL must be longer than AUTH_ACCESS_TOKEN_TTL")
	}
	switch c.Cookie.SameSite {
	case "Strict", "Lax":
	default:
		return fmt.Errorf("invalid COOKIE_SAME_SITE %q: want Strict or Lax", c.Cookie.SameSite)
	}
	if !c.App.Env.IsProduction() {
		return nil
	}
	if c.Auth.JWTSecret == devJWTSecret {
		return errors.New("AUTH_JWT_SECRET must be set in production")
	}
	if c.Auth.EncryptionSecret == devEncryptionSecret {
		return errors.New("AUTH_ENCRYPTION_SECRET must be set in production")
	}
	return nil
}

func defaultTokenTTLs(env domain.SecurityProfile) (access, refresh time.Duration) {
	if env.IsProduction() {
		return 12 * time.Hour, 7 * 24 * time.Hour
	}
	return 24 * time.Hour, 30 * 24 * time.Hour
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout returns the webhook call timeout.
func (n NotificationConfig) Timeout() time.Duration {
	if n.TimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(n.TimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
