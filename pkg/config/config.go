package config

import (
	"errors"
	"io/fs"
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
	Env           string
	Port          int
	APIPrefix     string
	PublicBaseURL string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Session  SessionConfig
	Calendar CalendarConfig
	Adapters AdaptersConfig
	Feeds    FeedsConfig
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

// JWTConfig only carries what is needed to validate portal-issued tokens.
type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SessionConfig controls the per-user calendar session kept in Redis.
type SessionConfig struct {
	CookieName string
	TTL        time.Duration
	Bootstrap  bool
	KeyPrefix  string
}

// CalendarConfig holds fallbacks used when a window has no preference set.
type CalendarConfig struct {
	DefaultDays     int
	DefaultTimezone string
}

// AdaptersConfig tunes adapter lookup and the outbound calls adapters make.
// Timeout bounds each adapter call; ICalFetchTimeout is kept below it.
type AdaptersConfig struct {
	ConfigFile       string
	Timeout          time.Duration
	ICalCacheTTL     time.Duration
	ICalFetchTimeout time.Duration
}

// FeedsConfig governs signed iCalendar export links.
type FeedsConfig struct {
	SigningSecret string
	LinkTTL       time.Duration
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
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.PublicBaseURL = strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/")

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
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Session = SessionConfig{
		CookieName: v.GetString("SESSION_COOKIE"),
		TTL:        parseDuration(v.GetString("SESSION_TTL"), 30*time.Minute),
		Bootstrap:  v.GetBool("SESSION_BOOTSTRAP"),
		KeyPrefix:  v.GetString("SESSION_KEY_PREFIX"),
	}

	days := v.GetInt("CALENDAR_DEFAULT_DAYS")
	if days <= 0 {
		days = 2
	}
	cfg.Calendar = CalendarConfig{
		DefaultDays:     days,
		DefaultTimezone: v.GetString("CALENDAR_DEFAULT_TIMEZONE"),
	}

	cfg.Adapters = AdaptersConfig{
		ConfigFile:       v.GetString("ADAPTERS_CONFIG"),
		Timeout:          parseDuration(v.GetString("ADAPTER_TIMEOUT"), 5*time.Second),
		ICalCacheTTL:     parseDuration(v.GetString("ICAL_CACHE_TTL"), 15*time.Minute),
		ICalFetchTimeout: parseDuration(v.GetString("ICAL_FETCH_TIMEOUT"), 4*time.Second),
	}
	// The per-call adapter timeout bounds the whole call, so the feed fetch
	// must fire first.
	if cfg.Adapters.ICalFetchTimeout >= cfg.Adapters.Timeout {
		cfg.Adapters.ICalFetchTimeout = cfg.Adapters.Timeout * 4 / 5
	}

	cfg.Feeds = FeedsConfig{
		SigningSecret: v.GetString("FEED_SIGNING_SECRET"),
		LinkTTL:       parseDuration(v.GetString("FEED_LINK_TTL"), 24*time.Hour),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "calendar_portlet")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SESSION_COOKIE", "calendar_session")
	v.SetDefault("SESSION_TTL", "30m")
	v.SetDefault("SESSION_BOOTSTRAP", true)
	v.SetDefault("SESSION_KEY_PREFIX", "calendar:session:")

	v.SetDefault("CALENDAR_DEFAULT_DAYS", 2)
	v.SetDefault("CALENDAR_DEFAULT_TIMEZONE", "America/New_York")

	v.SetDefault("ADAPTERS_CONFIG", "./adapters.yaml")
	v.SetDefault("ADAPTER_TIMEOUT", "5s")
	v.SetDefault("ICAL_CACHE_TTL", "15m")
	v.SetDefault("ICAL_FETCH_TIMEOUT", "4s")

	v.SetDefault("FEED_SIGNING_SECRET", "dev_feed_secret")
	v.SetDefault("FEED_LINK_TTL", "24h")
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

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
