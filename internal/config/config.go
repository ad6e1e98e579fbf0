package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // salon zone must resolve on minimal images
)

// Store backends understood by bootstrap.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Config holds application configuration
type Config struct {
	Port      string
	Env       string
	LogLevel  string
	LogFormat string

	StoreBackend  string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	CatalogFile         string
	SalonName           string
	SalonLocation       string
	SalonTimezone       string
	SalonWhatsAppNumber string
	SalonNotifyEmail    string
	BookingHorizonDays  int

	CartDiscountPolicy string
	CartTTL            time.Duration

	AdminJWTSecret     string
	AdminPassword      string
	AdminTokenTTL      time.Duration
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int

	GoogleCalendarID      string
	GoogleCredentialsFile string
	GoogleCredentialsJSON string
	CalendarTimeout       time.Duration

	EmailProvider     string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	SESFromEmail      string

	// SESConfigurationSet routes SES sends through a configuration set for
	// bounce and delivery events.
	SESConfigurationSet string

	AWSRegion             string
	AWSAccessKeyID        string
	AWSSecretAccessKey    string
	AWSEndpointOverride   string
	BookingEventsQueueURL string
	AMQPURL               string
	AMQPExchange          string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", "8080"),
		Env:       getEnv("ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		StoreBackend:  strings.ToLower(strings.TrimSpace(getEnv("STORE_BACKEND", StoreMemory))),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		CatalogFile:         getEnv("CATALOG_FILE", ""),
		SalonName:           getEnv("SALON_NAME", "Salão Bella"),
		SalonLocation:       getEnv("SALON_LOCATION", "Salão Bella"),
		SalonTimezone:       getEnv("SALON_TIMEZONE", "America/Sao_Paulo"),
		SalonWhatsAppNumber: getEnv("SALON_WHATSAPP_NUMBER", "5511947537240"),
		SalonNotifyEmail:    getEnv("SALON_NOTIFY_EMAIL", ""),
		BookingHorizonDays:  getEnvAsInt("BOOKING_HORIZON_DAYS", 62),

		CartDiscountPolicy: strings.ToLower(strings.TrimSpace(getEnv("CART_DISCOUNT_POLICY", "tiered"))),
		CartTTL:            getEnvAsDuration("CART_TTL", 24*time.Hour),

		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		AdminPassword:      getEnv("ADMIN_PASSWORD", ""),
		AdminTokenTTL:      getEnvAsDuration("ADMIN_TOKEN_TTL", 12*time.Hour),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		RateLimitRPS:       getEnvAsFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 10),

		GoogleCalendarID:      getEnv("GOOGLE_CALENDAR_ID", "primary"),
		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		GoogleCredentialsJSON: getEnv("GOOGLE_CREDENTIALS_JSON", ""),
		CalendarTimeout:       getEnvAsDuration("CALENDAR_TIMEOUT", 5*time.Second),

		EmailProvider:       strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "auto"))),
		SendGridAPIKey:      getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail:   getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:    getEnv("SENDGRID_FROM_NAME", "Salão Bella"),
		SESFromEmail:        getEnv("SES_FROM_EMAIL", ""),
		SESConfigurationSet: getEnv("SES_CONFIGURATION_SET", ""),

		AWSRegion:             getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:        getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:    getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride:   getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		BookingEventsQueueURL: getEnv("BOOKING_EVENTS_QUEUE_URL", ""),
		AMQPURL:               getEnv("AMQP_URL", ""),
		AMQPExchange:          getEnv("AMQP_EXCHANGE", "salon.bookings"),
	}
}

// Validate reports configuration combinations the API cannot start with.
func (c *Config) Validate() error {
	var errs []error
	switch c.StoreBackend {
	case StoreMemory, StoreRedis, StorePostgres:
	default:
		errs = append(errs, fmt.Errorf("config: unknown STORE_BACKEND %q", c.StoreBackend))
	}
	if c.StoreBackend == StoreMemory && strings.EqualFold(strings.TrimSpace(c.Env), "production") {
		errs = append(errs, errors.New("config: the memory store loses bookings on restart; set STORE_BACKEND to redis or postgres in production"))
	}
	if c.StoreBackend == StorePostgres && strings.TrimSpace(c.DatabaseURL) == "" {
		errs = append(errs, errors.New("config: DATABASE_URL is required for the postgres store"))
	}
	if c.StoreBackend == StoreRedis && strings.TrimSpace(c.RedisAddr) == "" {
		errs = append(errs, errors.New("config: REDIS_ADDR is required for the redis store"))
	}
	switch c.CartDiscountPolicy {
	case "tiered", "flat":
	default:
		errs = append(errs, fmt.Errorf("config: unknown CART_DISCOUNT_POLICY %q", c.CartDiscountPolicy))
	}
	if _, err := time.LoadLocation(c.SalonTimezone); err != nil {
		errs = append(errs, fmt.Errorf("config: SALON_TIMEZONE: %w", err))
	}
	return errors.Join(errs...)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
