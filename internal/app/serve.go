package app

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/Egor213/LogDash/internal/metrics"
	errorsUtils "github.com/Egor213/LogDash/pkg/errors"
	"github.com/Egor213/LogDash/pkg/httpserver"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newServeCmd(configPath func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the metrics and health server until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return Run(configPath())
		},
	}
}

func Run(configPath string) error {
	rt, err := bootstrap(configPath)
	if err != nil {
		return err
	}
	defer rt.Close()

	metrics.RegisterPoolStats(prometheus.DefaultRegisterer, rt.pg.Pool.Stats)

	// Prometheus server
	log.Infof("Starting metrics server...")
	log.Debugf("Server port: %s", rt.cfg.Prometheus.Port)
	metricsHandler := echo.New()
	metricsHandler.HideBanner = true
	metrics.ConfigureRouter(metricsHandler, rt.pg.Pool.Stats)
	metricsServer := httpserver.New(metricsHandler, httpserver.Port(rt.cfg.Prometheus.Port))

	// Waiting signal
	log.Info("Configuring graceful shutdown")
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		log.Info("app - Run - signal: " + s.String())
	case err := <-metricsServer.Notify():
		log.Error(errorsUtils.WrapPathErr(err))
	}

	// Graceful shutdown
	log.Info("Shutting down...")
	if err := metricsServer.Shutdown(); err != nil {
		log.Error(errorsUtils.WrapPathErr(err))
	}
	return nil
}
