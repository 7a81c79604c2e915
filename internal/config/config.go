package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// devJWTSecret is only ever used when APP_ENV=dev.
const devJWTSecret = "dev-secret-change-me"

var ErrMissingJWTSecret = errors.New("ACCESS_TOKEN_SECRET is required outside APP_ENV=dev")

type Config struct {
	Env  string
	Port int

	StoreDriver       string
	MongoURI          string
	MongoDBName       string
	MongoTransactions bool
	DBURL             string

	JWTSecret   string
	JWTTTLHours int

	PaymentSecretKey string
	PaymentCurrency  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	CORSOrigins    []string
	EnforceRoles   bool
	TrustedProxies []string

	AdminEmail string
	AdminName  string

	OTelEndpoint string

	WorkerPollInterval time.Duration
	WorkerBatch        int
	WorkerHealthPort   int
}

func Load() Config {
	// a missing .env is fine, the process environment still applies
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Println("could not load .env:", err)
	}

	env := getEnv("APP_ENV", "dev")

	jwtSecret := getEnv("ACCESS_TOKEN_SECRET", "")
	if jwtSecret == "" && env == "dev" {
		jwtSecret = devJWTSecret
	}

	return Config{
		Env:  env,
		Port: getEnvInt("PORT", 5000),

		StoreDriver:       strings.ToLower(getEnv("STORE_DRIVER", StoreMongo)),
		MongoURI:          buildMongoURI(),
		MongoDBName:       getEnv("MONGO_DB_NAME", "musicCampDb"),
		MongoTransactions: getEnvBool("MONGO_TRANSACTIONS", false),
		DBURL:             buildDBURL(),

		JWTSecret:   jwtSecret,
		JWTTTLHours: getEnvInt("JWT_TTL_HOURS", 24),

		PaymentSecretKey: getEnv("PAYMENT_SECRET_KEY", ""),
		PaymentCurrency:  strings.ToLower(getEnv("PAYMENT_CURRENCY", "usd")),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      time.Duration(getEnvInt("CACHE_TTL_SECONDS", 30)) * time.Second,

		CORSOrigins:    splitList(getEnv("CORS_ORIGINS", "*")),
		EnforceRoles:   getEnvBool("ENFORCE_ROLES", false),
		TrustedProxies: splitList(getEnv("TRUSTED_PROXIES", "")),

		AdminEmail: getEnv("ADMIN_EMAIL", ""),
		AdminName:  getEnv("ADMIN_NAME", "Music Camp Admin"),

		OTelEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		WorkerPollInterval: time.Duration(getEnvInt("WORKER_POLL_MS", 5000)) * time.Millisecond,
		WorkerBatch:        getEnvInt("WORKER_BATCH", 50),
		WorkerHealthPort:   getEnvInt("WORKER_HEALTH_PORT", 8081),
	}
}

// Validate reports settings a process that signs or verifies tokens cannot
// run without.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	return nil
}

func (c Config) JWTTTL() time.Duration {
	if c.JWTTTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.JWTTTLHours) * time.Hour
}

// buildMongoURI prefers an explicit MONGODB_URI and otherwise assembles an
// Atlas SRV URI from the DB_USER/DB_PASS credentials.
func buildMongoURI() string {
	if uri := getEnv("MONGODB_URI", ""); uri != "" {
		return uri
	}

	user := getEnv("DB_USER", "")
	pass := getEnv("DB_PASS", "")
	host := getEnv("MONGO_HOST", "")

	if user == "" || host == "" {
		return "mongodb://127.0.0.1:27017"
	}

	u := url.URL{
		Scheme:   "mongodb+srv",
		User:     url.UserPassword(user, pass),
		Host:     host,
		Path:     "/",
		RawQuery: "retryWrites=true&w=majority",
	}
	return u.String()
}

func buildDBURL() string {
	if url := getEnv("DATABASE_URL", ""); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "musiccamp")
	pass := getEnv("DB_PASS", "musiccamp")
	name := getEnv("DB_NAME", "musiccamp")
	ssl := getEnv("DB_SSLMODE", "disable")

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, pass),
		Host:     host + ":" + port,
		Path:     "/" + name,
		RawQuery: url.Values{"sslmode": {ssl}}.Encode(),
	}
	return u.String()
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
			fmt.Println("invalid int for", key, err)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			fmt.Println("invalid bool for", key, err)
			return fallback
		}
		return b
	}
	return fallback
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
