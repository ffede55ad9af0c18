package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ikkim/cosmetica-backend/pkg/money"
	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	CORS      CORSConfig
	Payment   PaymentConfig
	S3        S3Config
	Cart      CartConfig
	Pricing   PricingConfig
	Scheduler SchedulerConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
	PublicURL   string // used to build payment redirect URLs
	FrontendURL string // where shoppers land after payment
}

type LogConfig struct {
	Level  string
	Format string
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	PoolSize int
}

// AuthConfig verifies access tokens issued by the hosted auth provider
type AuthConfig struct {
	JWTSecret  string
	Issuer     string
	AdminRoles []string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type PaymentConfig struct {
	Yoco YocoConfig
}

type YocoConfig struct {
	SecretKey string
	BaseURL   string
	Currency  string
	Timeout   time.Duration
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string // CloudFront or S3 direct URL
	PresignExpiry   time.Duration
}

// Enabled reports whether exports should be archived to S3
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

type CartConfig struct {
	Storage       string // redis, database or memory
	KeyPrefix     string
	TTL           time.Duration
	IdleTimeout   time.Duration
	SessionCookie string
	CookieMaxAge  time.Duration
}

type PricingConfig struct {
	Currency              string
	CurrencySymbol        string
	LockerFee             money.Amount
	DoorToDoorFee         money.Amount
	FreeShippingThreshold money.Amount
}

type SchedulerConfig struct {
	CartEvictSpec   string
	OrderExpirySpec string
	OrderPendingTTL time.Duration
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	lockerFee, err := parseMoney("LOCKER_FEE", "50")
	if err != nil {
		return nil, err
	}
	doorFee, err := parseMoney("DOOR_TO_DOOR_FEE", "75")
	if err != nil {
		return nil, err
	}
	threshold, err := parseMoney("FREE_SHIPPING_THRESHOLD", "1500")
	if err != nil {
		return nil, err
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
			PublicURL:   strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:8080"), "/"),
			FrontendURL: strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "cosmetica"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),

			MaxIdleConns:    parseInt(getEnv("DB_MAX_IDLE_CONNS", "10")),
			MaxOpenConns:    parseInt(getEnv("DB_MAX_OPEN_CONNS", "50")),
			ConnMaxLifetime: parseDuration(getEnv("DB_CONN_MAX_LIFETIME", "30m"), 30*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0")),
			PoolSize: parseInt(getEnv("REDIS_POOL_SIZE", "20")),
		},
		Auth: AuthConfig{
			JWTSecret:  getEnv("AUTH_JWT_SECRET", "your-secret-key"),
			Issuer:     getEnv("AUTH_ISSUER", ""),
			AdminRoles: parseSlice(getEnv("AUTH_ADMIN_ROLES", "admin")),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Payment: PaymentConfig{
			Yoco: YocoConfig{
				SecretKey: getEnv("YOCO_SECRET_KEY", ""),
				BaseURL:   getEnv("YOCO_BASE_URL", "https://payments.yoco.com/api"),
				Currency:  getEnv("YOCO_CURRENCY", "ZAR"),
				Timeout:   parseDuration(getEnv("YOCO_TIMEOUT", "15s"), 15*time.Second),
			},
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "af-south-1"),
			Bucket:          getEnv("AWS_S3_BUCKET", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			BaseURL:         getEnv("AWS_S3_BASE_URL", ""),
			PresignExpiry:   parseDuration(getEnv("AWS_S3_PRESIGN_EXPIRY", "15m"), 15*time.Minute),
		},
		Cart: CartConfig{
			Storage:       getEnv("CART_STORAGE", "redis"),
			KeyPrefix:     getEnv("CART_KEY_PREFIX", "cart:"),
			TTL:           parseDuration(getEnv("CART_TTL", "720h"), 720*time.Hour),
			IdleTimeout:   parseDuration(getEnv("CART_IDLE_TIMEOUT", "30m"), 30*time.Minute),
			SessionCookie: getEnv("CART_SESSION_COOKIE", "cart_session"),
			CookieMaxAge:  parseDuration(getEnv("CART_COOKIE_MAX_AGE", "720h"), 720*time.Hour),
		},
		Pricing: PricingConfig{
			Currency:              getEnv("CURRENCY", "ZAR"),
			CurrencySymbol:        getEnv("CURRENCY_SYMBOL", "R"),
			LockerFee:             lockerFee,
			DoorToDoorFee:         doorFee,
			FreeShippingThreshold: threshold,
		},
		Scheduler: SchedulerConfig{
			CartEvictSpec:   getEnv("CART_EVICT_SCHEDULE", "@every 5m"),
			OrderExpirySpec: getEnv("ORDER_EXPIRY_SCHEDULE", "@every 10m"),
			OrderPendingTTL: parseDuration(getEnv("ORDER_PENDING_TTL", "2h"), 2*time.Hour),
		},
	}

	return config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Invalid integer %s, using 0", s)
		return 0
	}
	return n
}

// parseMoney reads a major-unit decimal such as "1499.99"
func parseMoney(key, defaultValue string) (money.Amount, error) {
	raw := getEnv(key, defaultValue)
	amount, err := money.Parse(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if amount < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", key, raw)
	}
	return amount, nil
}

func parseSlice(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	if result == nil {
		return []string{}
	}
	return result
}
