package observability

import (
	"os"
	"strconv"
	"strings"

	"github.com/steelworks/opshub/internal/config"
)

// Config holds observability configuration derived from environment variables.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelSamplingRatio    float64
}

func LoadConfig(cfg config.Config) Config {
	serviceName := strings.TrimSpace(cfg.AppName)
	if serviceName == "" {
		serviceName = "opshub"
	}

	return Config{
		ServiceName:          serviceName,
		Environment:          strings.TrimSpace(getenv("DEPLOYMENT_ENV", cfg.Environment)),
		Version:              strings.TrimSpace(getenv("SERVICE_VERSION", cfg.AppVersion)),
		LogLevel:             strings.ToLower(strings.TrimSpace(getenv("LOG_LEVEL", "info"))),
		LogFormat:            strings.ToLower(strings.TrimSpace(getenv("LOG_FORMAT", "json"))),
		OtelEnabled:          getenvBool("OTEL_ENABLED", true),
		OtelExporterEndpoint: strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTLPEndpoint)),
		OtelSamplingRatio:    getenvFloat("OTEL_SAMPLING_RATIO", 0.1),
	}
}

func (c Config) Debug() bool {
	return c.LogLevel == "debug"
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
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}
