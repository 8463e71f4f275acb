package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageMongo  = "mongo"
	StorageMemory = "memory"
)

type Config struct {
	AppEnv   string
	HTTPPort string

	MongoURI  string
	MongoDB   string
	RedisAddr string

	StorageBackend string // "mongo" or "memory"
	SessionTTL     time.Duration

	DefaultLocale      string
	CatalogPath        string // empty uses the embedded DORA catalog
	ChartMaxScore      float64
	CORSAllowedOrigins []string

	Delivery *DeliveryConfig
}

// Load reads an optional .env file and then the environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		AppEnv:   getEnv("APP_ENV", "dev"),
		HTTPPort: getEnv("HTTP_PORT", "8080"),

		MongoURI:  getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:   getEnv("MONGO_DB", "doraform"),
		RedisAddr: redisAddr(getEnv("REDIS_URI", "localhost:6379")),

		StorageBackend: getEnv("STORAGE_BACKEND", StorageMongo),
		SessionTTL:     getDurationEnv("SESSION_TTL", 24*time.Hour),

		DefaultLocale:      getEnv("DEFAULT_LOCALE", "es"),
		CatalogPath:        getEnv("CATALOG_PATH", ""),
		ChartMaxScore:      getFloatEnv("CHART_MAX_SCORE", 4),
		CORSAllowedOrigins: getListEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),

		Delivery: DefaultDeliveryConfig(),
	}
}

// IsProduction selects JSON logging and other production defaults.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "prod" || c.AppEnv == "production"
}

// redisAddr strips the redis:// scheme go-redis Options.Addr does not accept.
func redisAddr(uri string) string {
	return strings.TrimPrefix(uri, "redis://")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return v
}

func getFloatEnv(key string, defaultVal float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultVal
	}
	return v
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return defaultVal
	}
	return v
}

func getListEnv(key string, defaultVal []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
