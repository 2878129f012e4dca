package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port int

	DBURL string

	// session settings
	JWTSecret         string
	JWTAlgorithm      string
	SessionCookieName string
	SessionTTLMinutes int

	// bootstrap admin seeded at startup when set
	AdminEmail    string
	AdminPassword string
	AdminName     string

	// allowed front-end origins
	CORSOrigins []string

	// optional collaborators
	RedisAddr     string
	RedisPassword string
	OTLPEndpoint  string

	LoginRateLimit  int
	LoginRateWindow time.Duration
}

func Load() Config {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	return Config{
		Env:               getEnv("APP_ENV", "dev"),
		Port:              getEnvInt("PORT", 8080),
		DBURL:             buildDBURL(),
		JWTSecret:         getEnv("SECRET_KEY", ""),
		JWTAlgorithm:      getEnv("ALGORITHM", "HS256"),
		SessionCookieName: getEnv("SESSION_COOKIE_NAME", "session"),
		SessionTTLMinutes: getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 60),
		AdminEmail:        getEnv("ADMIN_EMAIL", ""),
		AdminPassword:     getEnv("ADMIN_PASSWORD", ""),
		AdminName:         getEnv("ADMIN_NAME", "Admin"),
		CORSOrigins:       splitOrigins(getEnv("FRONTEND_URLS", "")),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		OTLPEndpoint:      getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		LoginRateLimit:    getEnvInt("LOGIN_RATE_LIMIT", 10),
		LoginRateWindow:   time.Duration(getEnvInt("LOGIN_RATE_WINDOW_SECONDS", 60)) * time.Second,
	}
}

func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// Validate catches startup misconfiguration before any request is served.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("SECRET_KEY must be set")
	}

	// Only HMAC-SHA256 is supported; the env knob exists so a wrong value
	// fails loudly instead of silently signing with something else.
	if c.JWTAlgorithm != "HS256" {
		return fmt.Errorf("unsupported signing algorithm %q", c.JWTAlgorithm)
	}

	if c.SessionTTLMinutes <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}

	return nil
}

func buildDBURL() string {
	if url := getEnv("DATABASE_URL", ""); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "bloghub")
	pass := getEnv("DB_PASSWORD", "bloghub")
	name := getEnv("DB_NAME", "bloghub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func splitOrigins(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, strings.TrimSuffix(p, "/"))
		}
	}

	return out
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			return fallback
		}

		return num
	}
	return fallback
}
