package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	RabbitMQ  RabbitMQConfig
	Queue     QueueConfig
	Worker    WorkerConfig
	Scheduler SchedulerConfig
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
}

type ServerConfig struct {
	Host string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port string `env:"SERVER_PORT" envDefault:"8080"`
}

type DatabaseConfig struct {
	Host     string `env:"DB_HOST,required"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER,required"`
	Password string `env:"DB_PASSWORD,required"`
	DBName   string `env:"DB_NAME,required"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
}

type RabbitMQConfig struct {
	URL      string `env:"RABBITMQ_URL"`
	Host     string `env:"RABBITMQ_HOST" envDefault:"localhost"`
	Port     string `env:"RABBITMQ_PORT" envDefault:"5672"`
	User     string `env:"RABBITMQ_USER" envDefault:"guest"`
	Password string `env:"RABBITMQ_PASSWORD" envDefault:"guest"`
	VHost    string `env:"RABBITMQ_VHOST" envDefault:"/"`
}

// QueueConfig names the distribution queue topology. The queue must be
// declared without broker-side redelivery: the attempts counter on the
// distribution record is the only retry mechanism, and the consumer
// NACKs without requeue.
type QueueConfig struct {
	DistributionExchange   string `env:"DISTRIBUTION_EXCHANGE" envDefault:""`
	DistributionRoutingKey string `env:"DISTRIBUTION_ROUTING_KEY" envDefault:"distributions"`
	DistributionQueue      string `env:"DISTRIBUTION_QUEUE" envDefault:"distributions"`
}

type WorkerConfig struct {
	PrefetchCount       int `env:"WORKER_PREFETCH_COUNT" envDefault:"8"`
	HTTPTimeoutSeconds  int `env:"WORKER_HTTP_TIMEOUT_SECONDS" envDefault:"30"`
	MaxResponseBodySize int `env:"WORKER_MAX_RESPONSE_BODY_SIZE" envDefault:"4096"`
}

type SchedulerConfig struct {
	Enabled             bool `env:"SCHEDULER_ENABLED" envDefault:"true"`
	PollIntervalSeconds int  `env:"SCHEDULER_POLL_INTERVAL_SECONDS" envDefault:"30"`
	BatchSize           int  `env:"SCHEDULER_BATCH_SIZE" envDefault:"100"`
}

// Load reads configuration from the environment, loading a local .env
// file first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	return cfg, nil
}

// DSN returns a GORM Postgres DSN.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.Host, c.User, c.Password, c.DBName, c.Port, c.SSLMode)
}

// MigrationURL returns a URL-style DSN for golang-migrate.
func (c *DatabaseConfig) MigrationURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

func (c *RabbitMQConfig) ConnectionURL() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%s%s",
		c.User, c.Password, c.Host, c.Port, c.VHost)
}
