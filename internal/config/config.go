package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	ProductionLogPath   string
	ProductionLogFormat string
	QualityLogPath      string
	QualityLogFormat    string
	ShippingLogPath     string
	ShippingLogFormat   string

	AutoRefreshEnabled bool
	RefreshInterval    time.Duration
	RefreshTimeout     time.Duration
	StaleThreshold     time.Duration
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "opshub"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),

		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "steelworks_ops"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),

		ProductionLogPath:   getenv("PRODUCTION_LOG_PATH", "./data/production_logs"),
		ProductionLogFormat: getenv("PRODUCTION_LOG_FORMAT", "CSV"),
		QualityLogPath:      getenv("QUALITY_LOG_PATH", "./data/quality_logs"),
		QualityLogFormat:    getenv("QUALITY_LOG_FORMAT", "XLSX"),
		ShippingLogPath:     getenv("SHIPPING_LOG_PATH", "./data/shipping_logs"),
		ShippingLogFormat:   getenv("SHIPPING_LOG_FORMAT", "XLSX"),

		AutoRefreshEnabled: getenvBool("AUTO_REFRESH_ENABLED", true),
		RefreshInterval:    time.Duration(getenvInt("REFRESH_INTERVAL_HOURS", 24)) * time.Hour,
		RefreshTimeout:     time.Duration(getenvInt("REFRESH_TIMEOUT_MINUTES", 10)) * time.Minute,
		StaleThreshold:     time.Duration(getenvInt("STALE_DATA_THRESHOLD_HOURS", 24)) * time.Hour,
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
