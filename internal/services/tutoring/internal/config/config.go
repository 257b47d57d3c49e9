package config

import (
	"time"

	"github.com/suguidance/guidance-go/internal/pkg/env"
)

// Config is built once at startup and handed to constructors by value.
type Config struct {
	HTTP        httpConfig
	DB          dbConfig
	Google      googleConfig
	JWT         jwtConfig
	Redis       redisConfig
	Credentials credentialsConfig
	Calendar    calendarConfig
	Cache       cacheConfig
	Log         logConfig
}

type httpConfig struct {
	ListenAddr      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type dbConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Migrate         bool
}

type googleConfig struct {
	ClientID     string
	ClientSecret string
	ProjectID    string
	CallbackURL  string
	RedirectURIs []string
	JSOrigins    []string
	TopDomain    string
	IssuerURL    string
}

type jwtConfig struct {
	AccessSecret  string
	RefreshSecret string
	Issuer        string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type redisConfig struct {
	Addr     string
	Password string
	DB       int
	CodeTTL  time.Duration
	// Workers is the concurrency of the embedded notification worker.
	Workers int
}

// Enabled reports whether a Redis instance is configured.
func (r redisConfig) Enabled() bool {
	return r.Addr != ""
}

type credentialsConfig struct {
	EncryptionKey string
}

type calendarConfig struct {
	Name     string
	TimeZone string
	Endpoint string
}

type cacheConfig struct {
	CategoryItems int64
	CategoryTTL   time.Duration
}

type logConfig struct {
	Level  string
	Format string
}

func FromEnv() Config {
	accessSecret := env.RequireString("JWT_SECRET")

	return Config{
		HTTP: httpConfig{
			ListenAddr:      env.String("HTTP_LISTEN_ADDR", ":8080"),
			ReadTimeout:     env.Duration("HTTP_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    env.Duration("HTTP_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     env.Duration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: env.Duration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  env.StringList("GOOGLE_JS_ORIGINS", nil),
		},
		DB: dbConfig{
			URL:             env.RequireString("DATABASE_URL"),
			MaxOpenConns:    env.Int("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    env.Int("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: env.Duration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			Migrate:         env.Bool("DB_MIGRATE", true),
		},
		Google: googleConfig{
			ClientID:     env.RequireString("GOOGLE_CLIENT_ID"),
			ClientSecret: env.RequireString("GOOGLE_CLIENT_SECRET"),
			ProjectID:    env.String("GOOGLE_PROJECT_ID", ""),
			CallbackURL:  env.String("GOOGLE_CALLBACK_URL", "http://localhost:8080/auth/callback"),
			RedirectURIs: env.StringList("GOOGLE_REDIRECT_URIS", nil),
			JSOrigins:    env.StringList("GOOGLE_JS_ORIGINS", nil),
			TopDomain:    env.String("TOP_DOMAIN", ""),
			IssuerURL:    env.String("GOOGLE_ISSUER_URL", "https://accounts.google.com"),
		},
		JWT: jwtConfig{
			AccessSecret:  accessSecret,
			RefreshSecret: env.String("JWT_REFRESH_SECRET", accessSecret),
			Issuer:        env.String("JWT_ISSUER", "su-guidance"),
			AccessTTL:     env.Duration("JWT_ACCESS_TTL", 12*time.Hour),
			RefreshTTL:    env.Duration("JWT_REFRESH_TTL", 30*24*time.Hour),
		},
		Redis: redisConfig{
			Addr:     env.String("REDIS_ADDR", ""),
			Password: env.String("REDIS_PASSWORD", ""),
			DB:       env.Int("REDIS_DB", 0),
			CodeTTL:  env.Duration("OTC_TTL", time.Minute),
			Workers:  env.Int("NOTIFY_WORKERS", 2),
		},
		Credentials: credentialsConfig{
			EncryptionKey: env.String("CREDENTIALS_ENCRYPTION_KEY", ""),
		},
		Calendar: calendarConfig{
			Name:     env.String("CALENDAR_NAME", "SU Guidance"),
			TimeZone: env.String("CALENDAR_TIME_ZONE", "America/Los_Angeles"),
			Endpoint: env.String("CALENDAR_ENDPOINT", ""),
		},
		Cache: cacheConfig{
			CategoryItems: env.Int64("CATEGORY_CACHE_SIZE", 1000),
			CategoryTTL:   env.Duration("CATEGORY_CACHE_TTL", 5*time.Minute),
		},
		Log: logConfig{
			Level:  env.String("LOG_LEVEL", "info"),
			Format: env.String("LOG_FORMAT", "json"),
		},
	}
}
