package app

import (
	"os"

	"github.com/Egor213/LogDash/internal/broker"
	kafkabroker "github.com/Egor213/LogDash/internal/broker/kafka"
	"github.com/Egor213/LogDash/internal/config"
	"github.com/Egor213/LogDash/internal/metrics"
	"github.com/Egor213/LogDash/internal/repo"
	"github.com/Egor213/LogDash/internal/service"
	errorsUtils "github.com/Egor213/LogDash/pkg/errors"
	"github.com/Egor213/LogDash/pkg/logger"
	"github.com/Egor213/LogDash/pkg/postgres"
	log "github.com/sirupsen/logrus"
)

// runtime is everything a command needs, built once per process.
type runtime struct {
	cfg      *config.Config
	pg       *postgres.Postgres
	counters *metrics.Counters
	services *service.Services
	producer *kafkabroker.Producer
}

func loadConfig(configPath string) (*config.Config, error) {
	// Config
	cfg, err := config.New(configPath)
	if err != nil {
		return nil, errorsUtils.WrapPathErr(err)
	}

	// Logger
	// stdout carries exported data
	logger.SetupLogger(logger.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
	log.Debug("Logger has been set up")

	return cfg, nil
}

func bootstrap(configPath string) (*runtime, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	// DB connecting
	log.Debug("Connecting to DB")
	pg, err := postgres.New(cfg.PG.DSN,
		postgres.MaxPoolSize(cfg.PG.MaxConnections),
		postgres.IdleTimeout(cfg.PG.IdleTimeout()),
		postgres.AcquireTimeout(cfg.PG.AcquireTimeout),
		postgres.HealthCheckTimeout(cfg.PG.HealthCheckTimeout),
		postgres.ConnAttempts(cfg.PG.ConnAttempts),
	)
	if err != nil {
		return nil, errorsUtils.WrapPathErr(err)
	}
	log.WithField("max_connections", cfg.PG.MaxConnections).Debug("Connected to DB")

	rt := &runtime{
		cfg:      cfg,
		pg:       pg,
		counters: metrics.New(),
	}

	// Repos
	repositories := repo.NewRepositories(pg, rt.counters)

	// Broker
	var producer broker.Producer
	if cfg.Kafka.Enabled {
		rt.producer = kafkabroker.NewProducer(kafkabroker.ProducerConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		})
		producer = rt.producer
	}

	// Services
	deps := service.ServicesDependencies{
		Repos:          repositories,
		Counters:       rt.counters,
		BrokerProducer: producer,
		Events: service.EventsOptions{
			BatchSize:      cfg.Query.BatchSize,
			DefaultPerPage: cfg.Query.DefaultPerPage,
			MaxPerPage:     cfg.Query.MaxPerPage,
			Timeout:        cfg.Query.Timeout,
		},
	}
	rt.services = service.NewServices(deps)

	return rt, nil
}

func (rt *runtime) Close() {
	if rt.producer != nil {
		if err := rt.producer.Close(); err != nil {
			log.Error(errorsUtils.WrapPathErr(err))
		}
	}
	rt.pg.Close()
}
