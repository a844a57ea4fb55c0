package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Ledger        LedgerConfig
	Credits       CreditsConfig
	Cache         CacheConfig
	Notifications NotificationsConfig
	Certificates  CertificatesConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// LedgerConfig tunes the transactional ledger store.
type LedgerConfig struct {
	LockTimeout time.Duration
}

// CreditsConfig describes the umbrella catalog and qualification thresholds.
type CreditsConfig struct {
	Umbrellas []string
	// Thresholds maps qualification -> required credits.
	Thresholds map[string]float64
	// Overrides maps umbrella -> qualification -> required credits.
	Overrides map[string]map[string]float64
}

// CacheConfig controls Redis caching of balance snapshots.
type CacheConfig struct {
	Enabled    bool
	BalanceTTL time.Duration
}

// NotificationsConfig controls workflow event fan-out.
type NotificationsConfig struct {
	Enabled    bool
	Channel    string
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// CertificatesConfig carries presentation settings for issued certificates.
type CertificatesConfig struct {
	IssuerName         string
	VerificationSecret string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Issuer:     v.GetString("JWT_ISSUER"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"), ",")}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Ledger = LedgerConfig{
		LockTimeout: parseDuration(v.GetString("LEDGER_LOCK_TIMEOUT"), 5*time.Second),
	}

	thresholds, err := ParseThresholds(v.GetString("QUALIFICATION_THRESHOLDS"))
	if err != nil {
		return nil, fmt.Errorf("QUALIFICATION_THRESHOLDS: %w", err)
	}
	overrides, err := ParseThresholdOverrides(v.GetString("QUALIFICATION_THRESHOLD_OVERRIDES"))
	if err != nil {
		return nil, fmt.Errorf("QUALIFICATION_THRESHOLD_OVERRIDES: %w", err)
	}
	cfg.Credits = CreditsConfig{
		Umbrellas:  splitAndTrim(v.GetString("UMBRELLAS"), ","),
		Thresholds: thresholds,
		Overrides:  overrides,
	}

	cfg.Cache = CacheConfig{
		Enabled:    v.GetBool("ENABLE_BALANCE_CACHE"),
		BalanceTTL: parseDuration(v.GetString("BALANCE_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Notifications = NotificationsConfig{
		Enabled:    v.GetBool("ENABLE_NOTIFICATIONS"),
		Channel:    v.GetString("NOTIFICATIONS_CHANNEL"),
		Workers:    v.GetInt("NOTIFICATIONS_WORKERS"),
		MaxRetries: v.GetInt("NOTIFICATIONS_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("NOTIFICATIONS_RETRY_DELAY"), 2*time.Second),
	}

	cfg.Certificates = CertificatesConfig{
		IssuerName:         v.GetString("CERTIFICATE_ISSUER_NAME"),
		VerificationSecret: v.GetString("CERTIFICATE_VERIFICATION_SECRET"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "credit_portal")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "credit-portal")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("LEDGER_LOCK_TIMEOUT", "5s")

	v.SetDefault("UMBRELLAS", "")
	v.SetDefault("QUALIFICATION_THRESHOLDS", "certificate=20,diploma=40,pg diploma=60")
	v.SetDefault("QUALIFICATION_THRESHOLD_OVERRIDES", "")

	v.SetDefault("ENABLE_BALANCE_CACHE", false)
	v.SetDefault("BALANCE_CACHE_TTL", "5m")

	v.SetDefault("ENABLE_NOTIFICATIONS", false)
	v.SetDefault("NOTIFICATIONS_CHANNEL", "credit-portal.events")
	v.SetDefault("NOTIFICATIONS_WORKERS", 2)
	v.SetDefault("NOTIFICATIONS_MAX_RETRIES", 3)
	v.SetDefault("NOTIFICATIONS_RETRY_DELAY", "2s")

	v.SetDefault("CERTIFICATE_ISSUER_NAME", "Rashtriya Raksha University")
	v.SetDefault("CERTIFICATE_VERIFICATION_SECRET", "")
}

// ParseThresholds reads "certificate=20,diploma=40" into a lookup table.
func ParseThresholds(raw string) (map[string]float64, error) {
	result := make(map[string]float64)
	for _, pair := range splitAndTrim(raw, ",") {
		key, value, err := parsePair(pair)
		if err != nil {
			return nil, err
		}
		result[key] = value
	}
	return result, nil
}

// ParseThresholdOverrides reads "Cyber_Security:certificate=3,diploma=10;Criminology:certificate=5".
func ParseThresholdOverrides(raw string) (map[string]map[string]float64, error) {
	result := make(map[string]map[string]float64)
	for _, block := range splitAndTrim(raw, ";") {
		umbrella, pairs, ok := strings.Cut(block, ":")
		umbrella = strings.TrimSpace(umbrella)
		if !ok || umbrella == "" {
			return nil, fmt.Errorf("invalid override block %q", block)
		}
		thresholds, err := ParseThresholds(pairs)
		if err != nil {
			return nil, err
		}
		result[umbrella] = thresholds
	}
	return result, nil
}

func parsePair(pair string) (string, float64, error) {
	key, raw, ok := strings.Cut(pair, "=")
	key = strings.ToLower(strings.TrimSpace(key))
	if !ok || key == "" {
		return "", 0, fmt.Errorf("invalid threshold %q", pair)
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || value <= 0 {
		return "", 0, fmt.Errorf("invalid threshold value in %q", pair)
	}
	return key, value, nil
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw, sep string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, sep)
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
