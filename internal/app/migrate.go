package app

import (
	"errors"
	"fmt"
	"os"
	"time"

	errorsUtils "github.com/Egor213/LogDash/pkg/errors"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	defaultAttempts = 10
	defaultTimeout  = time.Second
)

func newMigrateCmd(configPath func() string) *cobra.Command {
	var (
		dir  string
		down bool
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the log tables in a development database",
		Long: `migrate applies the schema in the migrations directory. It is meant for
development and tests; the dashboard never changes the schema by itself.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath())
			if err != nil {
				return err
			}
			return Migrate(cfg.PG.DSN, dir, down)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "migrations", "migrations directory")
	cmd.Flags().BoolVar(&down, "down", false, "roll every migration back")
	return cmd
}

func Migrate(dsn, migrationsPath string, down bool) error {
	if _, err := os.Stat(migrationsPath); os.IsNotExist(err) {
		return fmt.Errorf("migrations directory %q does not exist", migrationsPath)
	}

	var (
		connAttempts = defaultAttempts
		err          error
		mgrt         *migrate.Migrate
	)

	for connAttempts > 0 {
		mgrt, err = migrate.New("file://"+migrationsPath, dsn)
		if err == nil {
			break
		}

		connAttempts--
		log.Infof("Postgres trying to connect, attempts left: %d", connAttempts)
		time.Sleep(defaultTimeout)
	}

	if err != nil {
		return errorsUtils.WrapPathErr(err)
	}
	defer mgrt.Close()

	if down {
		err = mgrt.Down()
	} else {
		err = mgrt.Up()
	}

	if errors.Is(err, migrate.ErrNoChange) {
		log.Info("Migration no change")
		return nil
	}
	if err != nil {
		return errorsUtils.WrapPathErr(err)
	}

	log.WithField("down", down).Info("Migration successful")
	return nil
}
