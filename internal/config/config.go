// Package config loads the storefront configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	CatalogSourceLive   = "live"
	CatalogSourceStatic = "static"
)

type Config struct {
	HTTPPort            string
	OrderServiceURL     string
	InventoryServiceURL string
	CatalogSource       string
	RequestTimeout      time.Duration
	SubmitTimeout       time.Duration
	HealthTimeout       time.Duration
	ShutdownTimeout     time.Duration
	SessionTTL          time.Duration
	RedisAddr           string
	RedisPassword       string
	CatalogCacheTTL     time.Duration
	KafkaBrokers        []string
	KafkaTopic          string
	BreakerFailures     uint32
	LogLevel            string
	OTelStdout          bool
	MaxRequestBodySize  int64
}

func Load() *Config {
	source := strings.ToLower(getEnv("CATALOG_SOURCE", CatalogSourceLive))
	if source != CatalogSourceStatic {
		source = CatalogSourceLive
	}

	return &Config{
		HTTPPort:            getEnv("HTTP_PORT", "8090"),
		OrderServiceURL:     getEnv("ORDER_SERVICE_URL", "http://localhost:8080"),
		InventoryServiceURL: getEnv("INVENTORY_SERVICE_URL", "http://localhost:8081"),
		CatalogSource:       source,
		RequestTimeout:      getDuration("REQUEST_TIMEOUT", 10*time.Second),
		SubmitTimeout:       getDuration("SUBMIT_TIMEOUT", 30*time.Second),
		HealthTimeout:       getDuration("HEALTH_TIMEOUT", 5*time.Second),
		ShutdownTimeout:     getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		SessionTTL:          getDuration("SESSION_TTL", 30*time.Minute),
		RedisAddr:           getEnv("REDIS_ADDR", ""),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		CatalogCacheTTL:     getDuration("CATALOG_CACHE_TTL", 30*time.Second),
		KafkaBrokers:        getList("KAFKA_BROKERS"),
		KafkaTopic:          getEnv("KAFKA_TOPIC", "storefront.orders.confirmed"),
		BreakerFailures:     uint32(getInt("BREAKER_FAILURES", 5)),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		OTelStdout:          getBool("OTEL_STDOUT", false),
		MaxRequestBodySize:  1 << 20, // 1MB
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || n < 0 {
		return defaultValue
	}
	return n
}

func getBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return b
}

// getDuration accepts Go duration strings ("10s") or plain seconds.
func getDuration(key string, defaultValue time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(v); err == nil && d >= 0 {
		return d
	}
	if sec, err := strconv.Atoi(v); err == nil && sec >= 0 {
		return time.Duration(sec) * time.Second
	}
	return defaultValue
}

func getList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
