package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Cache    CacheConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
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
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines identity-provider parameters. ClientID is exposed for
// frontend configuration parity and plays no part in token verification.
type AuthConfig struct {
	Domain                 string
	Audience               string
	ClientID               string
	JWKSURL                string
	KeySetTTLSeconds       int
	KeySetMaxStaleSeconds  int
	KeySetFetchTimeoutSecs int
}

// CacheConfig controls the Redis menu cache.
type CacheConfig struct {
	MenuTTLSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	authDomain := os.Getenv("AUTH0_DOMAIN")
	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "coffeeshop-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			Domain:                 authDomain,
			Audience:               getEnv("AUTH0_AUDIENCE", "drinks"),
			ClientID:               os.Getenv("AUTH0_CLIENT_ID"),
			JWKSURL:                getEnv("AUTH0_JWKS_URL", defaultJWKSURL(authDomain)),
			KeySetTTLSeconds:       getEnvAsInt("AUTH_KEYSET_TTL_SECONDS", 600),
			KeySetMaxStaleSeconds:  getEnvAsInt("AUTH_KEYSET_MAX_STALE_SECONDS", 1800),
			KeySetFetchTimeoutSecs: getEnvAsInt("AUTH_KEYSET_FETCH_TIMEOUT_SECONDS", 5),
		},
		Cache: CacheConfig{
			MenuTTLSeconds: getEnvAsInt("CACHE_MENU_TTL_SECONDS", 60),
		},
	}

	return cfg, nil
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

// Issuer returns the expected token issuer for the configured domain.
func (c AuthConfig) Issuer() string {
	return fmt.Sprintf("https://%s/", c.Domain)
}

// KeySetTTL returns the JWKS cache freshness window.
func (c AuthConfig) KeySetTTL() time.Duration {
	return time.Duration(c.KeySetTTLSeconds) * time.Second
}

// KeySetMaxStale returns how long expired keys may still be served.
func (c AuthConfig) KeySetMaxStale() time.Duration {
	return time.Duration(c.KeySetMaxStaleSeconds) * time.Second
}

// KeySetFetchTimeout bounds a single JWKS fetch.
func (c AuthConfig) KeySetFetchTimeout() time.Duration {
	return time.Duration(c.KeySetFetchTimeoutSecs) * time.Second
}

// MenuTTL returns the Redis menu cache lifetime.
func (c CacheConfig) MenuTTL() time.Duration {
	return time.Duration(c.MenuTTLSeconds) * time.Second
}

func defaultJWKSURL(domain string) string {
	if domain == "" {
		return ""
	}
	return fmt.Sprintf("https://%s/.well-known/jwks.json", domain)
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
