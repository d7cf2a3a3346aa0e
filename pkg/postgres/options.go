package postgres

import "time"

type Option func(*Postgres)

func MaxPoolSize(size int) Option {
	return func(p *Postgres) {
		p.poolOpts = append(p.poolOpts, WithMaxConns(size))
	}
}

func IdleTimeout(timeout time.Duration) Option {
	return func(p *Postgres) {
		p.poolOpts = append(p.poolOpts, WithIdleTimeout(timeout))
	}
}

func AcquireTimeout(timeout time.Duration) Option {
	return func(p *Postgres) {
		p.poolOpts = append(p.poolOpts, WithAcquireTimeout(timeout))
	}
}

func HealthCheckTimeout(timeout time.Duration) Option {
	return func(p *Postgres) {
		p.poolOpts = append(p.poolOpts, WithHealthCheckTimeout(timeout))
	}
}

func ConnAttempts(attempts int) Option {
	return func(p *Postgres) {
		p.connAttempts = attempts
	}
}

func ConnTimeout(timeout time.Duration) Option {
	return func(p *Postgres) {
		p.connTimeout = timeout
	}
}

type PoolOption func(*Pool)

func WithMaxConns(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.maxConns = n
		}
	}
}

// WithIdleTimeout sets how long a connection may sit idle before it is
// recycled on the next acquire. Zero disables recycling.
func WithIdleTimeout(d time.Duration) PoolOption {
	return func(p *Pool) {
		p.idleTimeout = d
	}
}

func WithAcquireTimeout(d time.Duration) PoolOption {
	return func(p *Pool) {
		if d > 0 {
			p.acquireTimeout = d
		}
	}
}

func WithHealthCheckTimeout(d time.Duration) PoolOption {
	return func(p *Pool) {
		if d > 0 {
			p.healthCheckTimeout = d
		}
	}
}

// WithHealthCheckOnRelease controls the ping done when a lease is returned.
func WithHealthCheckOnRelease(enabled bool) PoolOption {
	return func(p *Pool) {
		p.checkOnRelease = enabled
	}
}

// WithClock replaces time.Now, used by tests of idle recycling.
func WithClock(now func() time.Time) PoolOption {
	return func(p *Pool) {
		p.now = now
	}
}
