package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Server    ServerConfig
	Store     StoreConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Shortener ShortenerConfig
	Security  SecurityConfig
	OTel      OTelConfig
}

type AppConfig struct {
	Name     string
	Version  string
	Env      string
	LogLevel string
}

type ServerConfig struct {
	Port string
	Host string
}

// StoreConfig selects the link store backend: "mongo" (default) or "postgres".
type StoreConfig struct {
	Backend     string
	MongoURI    string
	MongoDB     string
	PostgresDSN string
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Enabled    bool
	Brokers    []string
	ClickTopic string
	GroupID    string
}

type ShortenerConfig struct {
	BaseURL        string
	CodeLength     int
	RedirectStatus int // 301 or 302
	DefaultTTL     time.Duration
}

type SecurityConfig struct {
	APIKeys              []string
	CreatePerMinuteLimit int
}

type OTelConfig struct {
	Enabled  bool
	Endpoint string
}

func Load() (*Config, error) {
	// Missing .env is fine; plain environment variables still apply.
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name:     GetEnv("APP_NAME", "shortloop"),
			Version:  GetEnv("APP_VERSION", "0.1.0"),
			Env:      GetEnv("APP_ENV", "development"),
			LogLevel: GetEnv("LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port: GetEnv("APP_PORT", "8080"),
			Host: GetEnv("APP_HOST", "localhost"),
		},
		Store: StoreConfig{
			Backend:     GetEnv("STORE_BACKEND", "mongo"),
			MongoURI:    GetEnv("MONGODB_URI", "mongodb://localhost:27017"),
			MongoDB:     GetEnv("MONGODB_DATABASE", "shortloop"),
			PostgresDSN: GetEnv("POSTGRES_DSN", DefaultPostgresDSN()),
		},
		Redis: RedisConfig{
			Enabled:  GetEnvBool("REDIS_ENABLED", false),
			Addr:     GetEnv("REDIS_ADDR", "localhost:6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Enabled:    GetEnvBool("KAFKA_ENABLED", false),
			Brokers:    SplitCSV(GetEnv("KAFKA_BROKERS", "localhost:9092")),
			ClickTopic: GetEnv("KAFKA_CLICK_TOPIC", "shortloop.clicks"),
			GroupID:    GetEnv("KAFKA_GROUP_ID", "shortloop-click-consumer"),
		},
		Shortener: ShortenerConfig{
			BaseURL:        GetEnv("SHORTENER_BASE_URL", "http://localhost:8080"),
			CodeLength:     GetEnvInt("CODE_LENGTH", 6),
			RedirectStatus: GetEnvInt("REDIRECT_STATUS", 302),
			DefaultTTL:     GetEnvDuration("LINK_DEFAULT_TTL", 7*24*time.Hour),
		},
		Security: SecurityConfig{
			APIKeys:              SplitCSV(GetEnv("API_KEYS", "")),
			CreatePerMinuteLimit: GetEnvInt("CREATE_RATE_PER_MINUTE", 60),
		},
		OTel: OTelConfig{
			Enabled:  GetEnvBool("OTEL_ENABLED", false),
			Endpoint: GetEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318"),
		},
	}

	if cfg.Store.Backend != "mongo" && cfg.Store.Backend != "postgres" {
		return nil, fmt.Errorf("STORE_BACKEND must be mongo or postgres (got %q)", cfg.Store.Backend)
	}
	if cfg.Shortener.RedirectStatus != 301 && cfg.Shortener.RedirectStatus != 302 {
		return nil, fmt.Errorf("REDIRECT_STATUS must be 301 or 302 (got %d)", cfg.Shortener.RedirectStatus)
	}
	if cfg.Shortener.CodeLength < 4 || cfg.Shortener.CodeLength > 32 {
		return nil, fmt.Errorf("CODE_LENGTH must be between 4 and 32 (got %d)", cfg.Shortener.CodeLength)
	}
	if cfg.Shortener.DefaultTTL <= 0 {
		return nil, fmt.Errorf("LINK_DEFAULT_TTL must be positive (got %s)", cfg.Shortener.DefaultTTL)
	}

	return cfg, nil
}
