package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the full application configuration, loaded from environment
// variables. Every section has working defaults for local development.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Jobs     JobsConfig
	Callback CallbackConfig
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        string `env:"PORT" envDefault:"8080"`
	CORSOrigins string `env:"CORS_ORIGINS" envDefault:"*"`
	BodyLimit   int    `env:"BODY_LIMIT_BYTES" envDefault:"1048576"`
}

// DatabaseConfig configures the Postgres connection.
type DatabaseConfig struct {
	Host            string        `env:"DB_HOST" envDefault:"localhost"`
	Port            int           `env:"DB_PORT" envDefault:"5432"`
	User            string        `env:"DB_USER" envDefault:"carlos"`
	Password        string        `env:"DB_PASSWORD" envDefault:"12345678"`
	Name            string        `env:"DB_NAME" envDefault:"topicos"`
	SSLMode         string        `env:"DB_SSLMODE" envDefault:"disable"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
}

// DSN builds the Postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// RedisConfig configures the Redis connection shared by the job queue and
// the uniqueness cache.
type RedisConfig struct {
	Host     string `env:"REDIS_HOST" envDefault:"localhost"`
	Port     int    `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// Address returns the host:port address for the Redis client.
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JobsConfig configures the background job queue and worker pool.
type JobsConfig struct {
	Queues          []string      `env:"JOBS_QUEUES" envSeparator:"," envDefault:"tasksQueue"`
	Concurrency     int           `env:"JOBS_CONCURRENCY" envDefault:"4"`
	MaxRetries      int           `env:"JOBS_MAX_RETRIES" envDefault:"3"`
	PollInterval    time.Duration `env:"JOBS_POLL_INTERVAL" envDefault:"1s"`
	DequeueTimeout  time.Duration `env:"JOBS_DEQUEUE_TIMEOUT" envDefault:"5s"`
	ShutdownTimeout time.Duration `env:"JOBS_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	JobTimeout      time.Duration `env:"JOBS_JOB_TIMEOUT" envDefault:"30s"`
	RetryDelay      time.Duration `env:"JOBS_RETRY_DELAY" envDefault:"30s"`
}

// CallbackConfig configures outbound callback notifications.
type CallbackConfig struct {
	SigningKey  string        `env:"CALLBACK_SIGNING_KEY" envDefault:"registro-dev-key"`
	MaxAttempts int           `env:"CALLBACK_MAX_ATTEMPTS" envDefault:"3"`
	RetryDelay  time.Duration `env:"CALLBACK_RETRY_DELAY" envDefault:"2s"`
	Timeout     time.Duration `env:"CALLBACK_TIMEOUT" envDefault:"10s"`
}

// Load parses the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
