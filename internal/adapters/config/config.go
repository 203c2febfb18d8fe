package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"hermes/pkg/errors"
)

type Config struct {
	App           AppConfig
	Postgres      PostgresConfig
	Redis         RedisConfig
	ClickHouse    ClickHouseConfig
	Kafka         KafkaConfig
	Engine        EngineConfig
	PriceFeed     PriceFeedConfig
	Metrics       MetricsConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"hermes"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" default:"hermes"`
	Password string `envconfig:"POSTGRES_PASSWORD" default:"hermes"`
	Database string `envconfig:"POSTGRES_DB" default:"hermes"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"25"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type ClickHouseConfig struct {
	Enabled  bool   `envconfig:"CLICKHOUSE_ENABLED" default:"false"`
	Host     string `envconfig:"CLICKHOUSE_HOST" default:"localhost"`
	Port     int    `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	User     string `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password string `envconfig:"CLICKHOUSE_PASSWORD"`
	Database string `envconfig:"CLICKHOUSE_DB" default:"trading"`
}

type KafkaConfig struct {
	Enabled bool     `envconfig:"KAFKA_ENABLED" default:"false"`
	Brokers []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
}

// EngineConfig controls the trading-engine core.
type EngineConfig struct {
	CommandStream    string `envconfig:"ENGINE_COMMAND_STREAM" default:"engine-stream"`
	CallbackStream   string `envconfig:"ENGINE_CALLBACK_STREAM" default:"callback-queue"`
	CursorKey        string `envconfig:"ENGINE_CURSOR_KEY" default:"engine:stream:cursor"`
	CollateralSymbol string `envconfig:"ENGINE_COLLATERAL_SYMBOL" default:"USDC"`

	// Positions are force-closed when remaining margin falls to this
	// fraction of initial margin.
	LiquidationThreshold string `envconfig:"ENGINE_LIQUIDATION_THRESHOLD" default:"0.05"`

	SnapshotInterval time.Duration `envconfig:"ENGINE_SNAPSHOT_INTERVAL" default:"10s"`
	ReadBlock        time.Duration `envconfig:"ENGINE_READ_BLOCK" default:"5s"`
	ReadCount        int64         `envconfig:"ENGINE_READ_COUNT" default:"128"`
	WriteTimeout     time.Duration `envconfig:"ENGINE_WRITE_TIMEOUT" default:"10s"`
}

type PriceFeedConfig struct {
	URL     string   `envconfig:"PRICEFEED_URL" default:"wss://ws.backpack.exchange"`
	Symbols []string `envconfig:"PRICEFEED_SYMBOLS" default:"BTC_USDC"`

	// Ticks per second forwarded to the command stream, per connection
	RateLimit float64 `envconfig:"PRICEFEED_RATE_LIMIT" default:"10"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
	Addr    string `envconfig:"METRICS_ADDR" default:":9100"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"false"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	return &cfg, nil
}
