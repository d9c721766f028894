package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultCredentialsFile is read when DB_CREDENTIALS is not set.
const DefaultCredentialsFile = "./dbCredentials.json"

// KafkaConfig configures booking event publication. No brokers disables it.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// RateLimitConfig bounds booking creation per client IP.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// ServiceConfig holds all configuration for the booking service.
type ServiceConfig struct {
	Port               string
	AppEnv             string
	CredentialsJSON    string
	CredentialsFile    string
	KafkaConfig        KafkaConfig
	AdminJWTSecret     string
	RateLimit          RateLimitConfig
	CORSAllowedOrigins []string
	OTLPEndpoint       string
	Location           *time.Location
}

// Load reads configuration from the environment, after loading a .env file
// when one exists.
func Load() (*ServiceConfig, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	return FromViper(v)
}

// FromViper builds a ServiceConfig from v, applying defaults.
func FromViper(v *viper.Viper) (*ServiceConfig, error) {
	v.SetDefault("PORT", "5000")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_CREDENTIALS_FILE", DefaultCredentialsFile)
	v.SetDefault("KAFKA_TOPIC", "booking.events")
	v.SetDefault("RATE_LIMIT_RPS", 5.0)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("BOOKING_TIMEZONE", "Local")

	loc, err := time.LoadLocation(v.GetString("BOOKING_TIMEZONE"))
	if err != nil {
		return nil, fmt.Errorf("invalid BOOKING_TIMEZONE: %w", err)
	}

	rps := v.GetFloat64("RATE_LIMIT_RPS")
	burst := v.GetInt("RATE_LIMIT_BURST")
	if rps <= 0 || burst <= 0 {
		return nil, fmt.Errorf("rate limit must be positive, got rps=%v burst=%d", rps, burst)
	}

	return &ServiceConfig{
		Port:            listenAddr(v.GetString("PORT")),
		AppEnv:          v.GetString("APP_ENV"),
		CredentialsJSON: v.GetString("DB_CREDENTIALS"),
		CredentialsFile: v.GetString("DB_CREDENTIALS_FILE"),
		KafkaConfig: KafkaConfig{
			Brokers: splitList(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_TOPIC"),
		},
		AdminJWTSecret: v.GetString("ADMIN_JWT_SECRET"),
		RateLimit: RateLimitConfig{
			RPS:   rps,
			Burst: burst,
		},
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		OTLPEndpoint:       v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		Location:           loc,
	}, nil
}

// listenAddr turns a bare port number into a listen address.
func listenAddr(port string) string {
	port = strings.TrimSpace(port)
	if _, err := strconv.Atoi(port); err == nil {
		return ":" + port
	}
	return port
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
