package util

import (
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

//nolint:gochecknoglobals // here its ok
var once sync.Once

func init() {
	once.Do(func() {
		if err := godotenv.Load(".env"); err != nil {
			log.Printf("Warning: could not load .env file: %v", err)
		}
	})
}

const (
	defaultServerAddr      = "localhost:8080"
	defaultWriteTimeout    = 10 * time.Second
	defaultReadTimeout     = 10 * time.Second
	defaultIdleTimeout     = 30 * time.Second
	defaultGracefulTimeout = 5 * time.Second

	// Sessions are invalidated only by expiry, so the TTL is the single
	// operator lever for limiting token lifetime.
	defaultAccessTTL = 480 * time.Minute

	defaultRateLimit      = 100
	defaultRateWindow     = 1 * time.Minute
	defaultAuthRateLimit  = 10
	defaultAuthRateWindow = 10 * time.Minute

	defaultMongoDB = "portal"

	// Used only when JWT_SECRET is unset. Fine for local runs, a hazard
	// anywhere else, hence the loud startup warning.
	insecureDefaultSecret = "portal-dev-secret-change-me"
)

type ServerConfig struct {
	ServerAddr      string
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	IdleTimeout     time.Duration
	GracefulTimeout time.Duration
}

func NewServerConfig() *ServerConfig {
	addr := os.Getenv("SERVER_ADDRESS")
	if addr == "" {
		addr = defaultServerAddr
	}

	return &ServerConfig{
		ServerAddr:      addr,
		WriteTimeout:    parseDurationOrDefault("WRITE_TIMEOUT", defaultWriteTimeout),
		ReadTimeout:     parseDurationOrDefault("READ_TIMEOUT", defaultReadTimeout),
		IdleTimeout:     parseDurationOrDefault("IDLE_TIMEOUT", defaultIdleTimeout),
		GracefulTimeout: parseDurationOrDefault("GRACEFUL_TIMEOUT", defaultGracefulTimeout),
	}
}

type TokenConfig struct {
	JwtSecretKey []byte
	AccessTTL    time.Duration
}

func NewTokenConfig() *TokenConfig {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Printf("WARNING: JWT_SECRET is not set, falling back to an insecure built-in default")
		secret = insecureDefaultSecret
	}
	return &TokenConfig{
		JwtSecretKey: []byte(secret),
		AccessTTL:    parseDurationOrDefault("ACCESS_TOKEN_TTL", defaultAccessTTL),
	}
}

// RateLimiterConfig carries two buckets: a general one applied to every
// request and a stricter one for the credential endpoints.
type RateLimiterConfig struct {
	Limit      int
	Window     time.Duration
	AuthLimit  int
	AuthWindow time.Duration
}

func NewRateLimiterConfig() *RateLimiterConfig {
	return &RateLimiterConfig{
		Limit:      parseIntOrDefault("RATE_LIMIT_LIMIT", defaultRateLimit),
		Window:     parseDurationOrDefault("RATE_LIMIT_WINDOW", defaultRateWindow),
		AuthLimit:  parseIntOrDefault("AUTH_RATE_LIMIT_LIMIT", defaultAuthRateLimit),
		AuthWindow: parseDurationOrDefault("AUTH_RATE_LIMIT_WINDOW", defaultAuthRateWindow),
	}
}

type MongoConfig struct {
	URI      string
	Database string
}

// NewMongoConfig returns an empty URI when MONGO_URI is unset; the
// caller then falls back to the in-memory store for local runs.
func NewMongoConfig() *MongoConfig {
	db := os.Getenv("MONGO_DB")
	if db == "" {
		db = defaultMongoDB
	}
	return &MongoConfig{URI: os.Getenv("MONGO_URI"), Database: db}
}

type RedisConfig struct {
	Addr string
}

// NewRedisConfig returns an empty Addr when REDIS_ADDR is unset; the
// caller then falls back to the in-process rate limiter.
func NewRedisConfig() *RedisConfig {
	return &RedisConfig{Addr: os.Getenv("REDIS_ADDR")}
}

func GetWebhookURL() string {
	return os.Getenv("SECURITY_WEBHOOK_URL")
}

func parseDurationOrDefault(varName string, def time.Duration) time.Duration {
	if v := os.Getenv(varName); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("Invalid duration in %s: %s, using default %s", varName, v, def)
	}
	return def
}

func parseIntOrDefault(varName string, def int) int {
	if v := os.Getenv(varName); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("Invalid integer in %s: %s, using default %d", varName, v, def)
	}
	return def
}
