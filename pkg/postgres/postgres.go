package postgres

import (
	"context"
	"time"

	errorsUtils "github.com/Egor213/LogDash/pkg/errors"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultConnAttempts = 10
	DefaultConnTimeout  = time.Second
)

type Postgres struct {
	connAttempts int
	connTimeout  time.Duration
	poolOpts     []PoolOption

	Builder squirrel.StatementBuilderType
	Pool    *Pool
}

func New(dsn string, opts ...Option) (*Postgres, error) {
	pg := &Postgres{
		connAttempts: DefaultConnAttempts,
		connTimeout:  DefaultConnTimeout,
		Builder:      squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}

	for _, opt := range opts {
		opt(pg)
	}

	connConfig, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, errorsUtils.WrapPathErr(err)
	}

	pg.Pool = NewPool(PgxDialer(connConfig), pg.poolOpts...)

	for pg.connAttempts > 0 {
		err = pg.Pool.Do(context.Background(), func(ctx context.Context, conn Conn) error {
			return conn.Ping(ctx)
		})
		if err == nil {
			break
		}

		pg.connAttempts--
		log.Infof("Postgres trying to connect, attempts left: %d", pg.connAttempts)
		time.Sleep(pg.connTimeout)
	}

	if err != nil {
		pg.Pool.Close()
		return nil, errorsUtils.WrapPathErr(err)
	}

	return pg, nil
}

// PgxDialer opens one *pgx.Conn per call from a copy of cfg.
func PgxDialer(cfg *pgx.ConnConfig) Dialer {
	return func(ctx context.Context) (Conn, error) {
		conn, err := pgx.ConnectConfig(ctx, cfg.Copy())
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
}

func (p *Postgres) Close() {
	if p.Pool != nil {
		p.Pool.Close()
	}
}
