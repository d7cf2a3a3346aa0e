package config

import (
	"errors"
	"os"
	"time"

	errorsUtils "github.com/Egor213/LogDash/pkg/errors"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

type (
	Config struct {
		App        `yaml:"app"`
		Log        `yaml:"log"`
		PG         `yaml:"postgres"`
		Query      `yaml:"query"`
		Prometheus `yaml:"prometheus"`
		Kafka      `yaml:"kafka"`
	}

	App struct {
		Name    string `yaml:"name" env:"APP_NAME" env-default:"logdash"`
		Version string `yaml:"version" env:"APP_VERSION" env-default:"dev"`
	}

	Log struct {
		Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
		Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
	}

	PG struct {
		DSN            string `env-required:"true" env:"PG_DSN" yaml:"dsn"`
		MaxConnections int    `env:"PG_MAX_CONNECTIONS" yaml:"max_connections" env-default:"5"`
		// seconds before an idle connection is recycled, 0 keeps it forever
		IdleTimeoutSeconds int           `env:"PG_IDLE_TIMEOUT" yaml:"idle_timeout" env-default:"300"`
		AcquireTimeout     time.Duration `env:"PG_ACQUIRE_TIMEOUT" yaml:"acquire_timeout" env-default:"5s"`
		HealthCheckTimeout time.Duration `env:"PG_HEALTH_CHECK_TIMEOUT" yaml:"health_check_timeout" env-default:"1s"`
		ConnAttempts       int           `env:"PG_CONN_ATTEMPTS" yaml:"conn_attempts" env-default:"10"`
	}

	Query struct {
		BatchSize      int           `env:"QUERY_BATCH_SIZE" yaml:"batch_size" env-default:"500"`
		DefaultPerPage int           `env:"QUERY_DEFAULT_PER_PAGE" yaml:"default_per_page" env-default:"50"`
		MaxPerPage     int           `env:"QUERY_MAX_PER_PAGE" yaml:"max_per_page" env-default:"500"`
		Timeout        time.Duration `env:"QUERY_TIMEOUT" yaml:"timeout" env-default:"30s"`
	}

	Prometheus struct {
		Port string `yaml:"port" env:"PROMETHEUS_PORT" env-default:"9090"`
	}

	Kafka struct {
		Enabled bool     `yaml:"enabled" env:"KAFKA_ENABLED" env-default:"false"`
		Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
		Topic   string   `yaml:"topic" env:"KAFKA_TOPIC" env-default:"logdash.reports"`
	}
)

const (
	ENV_PATH            = ".env"
	DEFAULT_CONFIG_PATH = "config/config.yaml"
)

var ErrInvalidConfig = errors.New("invalid config")

func (p PG) IdleTimeout() time.Duration {
	return time.Duration(p.IdleTimeoutSeconds) * time.Second
}

// New reads the YAML file at path, or APP_CONFIG_PATH, or the default
// location, then applies the environment on top.
func New(path string) (*Config, error) {
	if err := godotenv.Load(ENV_PATH); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.WithError(err).Warn("Cannot load .env file")
	}

	cfg := &Config{}

	if path == "" {
		var ok bool
		path, ok = os.LookupEnv("APP_CONFIG_PATH")
		if !ok || path == "" {
			log.WithField("env_var", "APP_CONFIG_PATH").
				Debug("Config path is not set, using default")
			path = DEFAULT_CONFIG_PATH
		}
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, errorsUtils.WrapPathErr(err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, errorsUtils.WrapPathErr(err)
	}

	if err := cleanenv.UpdateEnv(cfg); err != nil {
		return nil, errorsUtils.WrapPathErr(err)
	}

	if err := cfg.validate(); err != nil {
		return nil, errorsUtils.WrapPathErr(err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.PG.MaxConnections <= 0:
		return errors.Join(ErrInvalidConfig, errors.New("postgres.max_connections must be positive"))
	case c.PG.IdleTimeoutSeconds < 0:
		return errors.Join(ErrInvalidConfig, errors.New("postgres.idle_timeout must not be negative"))
	case c.Kafka.Enabled && len(c.Kafka.Brokers) == 0:
		return errors.Join(ErrInvalidConfig, errors.New("kafka.brokers is required when kafka is enabled"))
	}
	return nil
}
