package configs

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type RESTconfig struct {
	PORT            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	PageCacheTTL time.Duration // 0 - кэш страниц выключен
}

// DBconfig - пустой URL выключает сохранение заявок
type DBconfig struct {
	URL      string
	MaxConns int32
}

// RabbitMQConfig - пустой URL выключает публикацию событий
type RabbitMQConfig struct {
	URL string
}

type StdoutLogConfig struct {
	Level  string
	IsJSON bool
}

type FluentBitConfig struct {
	Host    string
	Port    int
	Enabled bool
	Level   string
}

// BrowseConfig - параметры сессий просмотра
type BrowseConfig struct {
	DebounceDelay    time.Duration
	RecordTTL        time.Duration
	PageLimit        int
	MapBatchSize     int
	MapBatchDelay    time.Duration
	MapMaxProperties int
	SessionIdleTTL   time.Duration
}

type InquiryConfig struct {
	AgentPhone      string
	DefaultCurrency string
	RatePerMinute   int
	Burst           int
}

type CronConfig struct {
	VocabularyRefresh string
	SessionEviction   string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// AppConfig хранит всю конфигурацию приложения
type AppConfig struct {
	AppName      string
	Rest         RESTconfig
	Backend      BackendConfig
	Redis        RedisConfig
	Database     DBconfig
	RabbitMQ     RabbitMQConfig
	FluentBit    FluentBitConfig
	StdoutLogger StdoutLogConfig
	Browse       BrowseConfig
	Inquiry      InquiryConfig
	Cron         CronConfig
	CORS         CORSConfig
}

// LoadConfig загружает конфигурацию из переменных окружения.
// .env необязателен: в контейнере переменные приходят из окружения.
func LoadConfig(envPath ...string) (*AppConfig, error) {
	var err error
	if len(envPath) > 0 {
		err = godotenv.Load(envPath[0])
	} else {
		err = godotenv.Load()
	}
	if err != nil {
		log.Printf("Info: Could not load .env file (path: %v): %v. Using process environment.\n", envPath, err)
	}

	cfg := &AppConfig{}

	cfg.AppName = getEnvAsString("APP_NAME", "property-browser-service")

	// REST
	cfg.Rest.PORT = getEnvAsString("PORT", "8090")
	cfg.Rest.ReadTimeout = getEnvAsDuration("HTTP_READ_TIMEOUT", 10*time.Second)
	cfg.Rest.WriteTimeout = getEnvAsDuration("HTTP_WRITE_TIMEOUT", 30*time.Second)
	cfg.Rest.ShutdownTimeout = getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second)

	// Бэкенд объектов недвижимости
	cfg.Backend.BaseURL = strings.TrimRight(os.Getenv("BACKEND_URL"), "/")
	if cfg.Backend.BaseURL == "" {
		return nil, fmt.Errorf("BACKEND_URL environment variable is required")
	}
	cfg.Backend.Timeout = getEnvAsDuration("BACKEND_TIMEOUT", 15*time.Second)

	// Redis
	cfg.Redis.Addr = os.Getenv("REDIS_ADDR")
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("REDIS_ADDR environment variable is required")
	}
	cfg.Redis.Password = getEnvAsString("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", 0)
	cfg.Redis.PageCacheTTL = getEnvAsDuration("PAGE_CACHE_TTL", time.Minute)

	// Необязательные хранилища заявок
	cfg.Database.URL = getEnvAsString("DATABASE_URL", "")
	cfg.Database.MaxConns = int32(getEnvAsInt("DATABASE_MAX_CONNS", 5))
	cfg.RabbitMQ.URL = getEnvAsString("RABBITMQ_URL", "")

	cfg.FluentBit.Enabled = getEnvAsBool("FLUENTBIT_ENABLED", false)
	if cfg.FluentBit.Enabled {
		cfg.FluentBit.Host = os.Getenv("FLUENTBIT_HOST")
		if cfg.FluentBit.Host == "" {
			log.Println("WARNING: FLUENTBIT_ENABLED is true, but FLUENTBIT_HOST is not set. Disabling Fluent Bit.")
			cfg.FluentBit.Enabled = false
		}

		cfg.FluentBit.Port = getEnvAsInt("FLUENTBIT_PORT", 24224)
		cfg.FluentBit.Level = getEnvAsString("FLUENTBIT_LOG_LEVEL", "info")
	}

	cfg.StdoutLogger.Level = getEnvAsString("STDOUT_LOG_LEVEL", "debug")
	cfg.StdoutLogger.IsJSON = getEnvAsBool("STDOUT_LOG_JSON", false)

	// Сессии просмотра
	cfg.Browse.DebounceDelay = getEnvAsDuration("SEARCH_DEBOUNCE", 500*time.Millisecond)
	cfg.Browse.RecordTTL = getEnvAsDuration("FILTER_RECORD_TTL", 24*time.Hour)
	cfg.Browse.PageLimit = getEnvAsInt("PAGE_LIMIT", 12)
	cfg.Browse.MapBatchSize = getEnvAsInt("MAP_BATCH_SIZE", 50)
	cfg.Browse.MapBatchDelay = getEnvAsDuration("MAP_BATCH_DELAY", 3*time.Second)
	cfg.Browse.MapMaxProperties = getEnvAsInt("MAP_MAX_PROPERTIES", 500)
	cfg.Browse.SessionIdleTTL = getEnvAsDuration("SESSION_IDLE_TTL", 2*time.Hour)

	// Заявки
	cfg.Inquiry.AgentPhone = os.Getenv("WHATSAPP_PHONE")
	if cfg.Inquiry.AgentPhone == "" {
		return nil, fmt.Errorf("WHATSAPP_PHONE environment variable is required")
	}
	cfg.Inquiry.DefaultCurrency = getEnvAsString("DEFAULT_CURRENCY", "AED")
	cfg.Inquiry.RatePerMinute = getEnvAsInt("INQUIRY_RATE_PER_MINUTE", 6)
	cfg.Inquiry.Burst = getEnvAsInt("INQUIRY_BURST", 3)

	cfg.Cron.VocabularyRefresh = getEnvAsString("CRON_VOCABULARY_REFRESH", "@every 15m")
	cfg.Cron.SessionEviction = getEnvAsString("CRON_SESSION_EVICTION", "@every 5m")

	cfg.CORS.AllowedOrigins = getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"})

	return cfg, nil
}

func getEnvAsString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as int: %v. Using default value: %d\n", key, valueStr, err, defaultValue)
		return defaultValue
	}
	return valueInt
}

// getEnvAsBool читает переменную окружения как bool или возвращает значение по умолчанию
func getEnvAsBool(key string, defaultValue bool) bool {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valBool, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as bool: %v. Using default value: %t\n", key, valStr, err, defaultValue)
		return defaultValue
	}
	return valBool
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	val, err := time.ParseDuration(valStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as duration: %v. Using default value: %s\n", key, valStr, err, defaultValue)
		return defaultValue
	}
	return val
}

// getEnvAsList - значения через запятую
func getEnvAsList(key string, defaultValue []string) []string {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(valStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
