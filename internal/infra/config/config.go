package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	Port   int    `envconfig:"PORT" default:"8080"`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	RabbitURL string `envconfig:"RABBITMQ_URL"`

	JWT struct {
		Secret string        `envconfig:"JWT_SECRET"`
		TTL    time.Duration `envconfig:"JWT_TTL" default:"168h"`
	} `envconfig:""`

	Limits struct {
		HistoryDays  int           `envconfig:"HISTORY_DAYS" default:"7"`
		RateRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"100"`
		RateWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"15m"`
		WarmupPeriod time.Duration `envconfig:"WARMUP_PERIOD" default:"1h"`
	} `envconfig:""`

	Queues struct {
		Generate string `envconfig:"GENERATE_QUEUE_KEY" default:"horoscope_jobs"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
