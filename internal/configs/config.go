package configs

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type RESTconfig struct {
	Port           string
	AllowedOrigins []string
}

type BackendConfig struct {
	URL string
	// TimeoutSeconds - таймаут одного запроса к бэкенду. Должен
	// вмещать отправку заявки с видео на медленной сети.
	TimeoutSeconds int
}

type CacheConfig struct {
	DefaultTTLSeconds int
}

type SessionConfig struct {
	IdleTTLMinutes int
}

type StorageConfig struct {
	DraftsDir  string
	StagingDir string
}

type StdoutLogConfig struct {
	Level string // По умолчанию DEBUG
}

type FluentBitConfig struct {
	Host    string
	Port    int
	Enabled bool
	Level   string // По умолчанию INFO
}

// AppConfig хранит всю конфигурацию приложения
type AppConfig struct {
	AppName      string
	Rest         RESTconfig
	Backend      BackendConfig
	Cache        CacheConfig
	Session      SessionConfig
	Storage      StorageConfig
	FluentBit    FluentBitConfig
	StdoutLogger StdoutLogConfig
}

// LoadConfig загружает конфигурацию из переменных окружения.
// .env не обязателен: в контейнере переменные приходят из окружения.
func LoadConfig(envPath ...string) (*AppConfig, error) {
	var err error
	if len(envPath) > 0 {
		err = godotenv.Load(envPath[0])
	} else {
		err = godotenv.Load()
	}
	if err != nil {
		log.Printf("Info: Could not load .env file (path: %v): %v.\n", envPath, err)
	}

	cfg := &AppConfig{}

	cfg.AppName = getEnvAsString("APP_NAME", "donminiapp-engine")

	cfg.Rest.Port = getEnvAsString("PORT", "8085")
	origins := getEnvAsString("CORS_ALLOWED_ORIGINS", "http://localhost:5173")
	for _, origin := range strings.Split(origins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.Rest.AllowedOrigins = append(cfg.Rest.AllowedOrigins, origin)
		}
	}

	cfg.Backend.URL = os.Getenv("BACKEND_API_URL")
	if cfg.Backend.URL == "" {
		return nil, fmt.Errorf("BACKEND_API_URL environment variable is required")
	}
	cfg.Backend.TimeoutSeconds = getEnvAsInt("BACKEND_TIMEOUT_SECONDS", 120)

	cfg.Cache.DefaultTTLSeconds = getEnvAsInt("CACHE_TTL_SECONDS", 300)
	cfg.Session.IdleTTLMinutes = getEnvAsInt("SESSION_IDLE_TTL_MINUTES", 30)

	cfg.Storage.DraftsDir = getEnvAsString("DRAFTS_DIR", "./data/drafts")
	cfg.Storage.StagingDir = getEnvAsString("STAGING_DIR", "./data/staging")

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
