package postgres

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultMaxConns           = 5
	DefaultAcquireTimeout     = 5 * time.Second
	DefaultHealthCheckTimeout = time.Second
)

// Conn is the part of *pgx.Conn the pool and the repositories use.
type Conn interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
	IsClosed() bool
}

// Dialer opens a new database session.
type Dialer func(ctx context.Context) (Conn, error)

type Stats struct {
	Capacity int
	Leased   int
	Idle     int
	// idle slots currently holding a connection
	IdleOpen int
}

// Pool is a fixed set of connection slots. A slot is either idle or leased,
// so Leased+Idle always equals Capacity. Connections inside slots are dialed
// lazily and replaced when broken, stale or unhealthy.
type Pool struct {
	dial               Dialer
	maxConns           int
	idleTimeout        time.Duration
	acquireTimeout     time.Duration
	healthCheckTimeout time.Duration
	checkOnRelease     bool
	now                func() time.Time

	mu     sync.Mutex
	idle   []*slot
	leased int
	closed bool

	// one token per idle slot
	tokens chan struct{}
	done   chan struct{}
}

type slot struct {
	conn     Conn
	lastUsed time.Time
}

func NewPool(dial Dialer, opts ...PoolOption) *Pool {
	p := &Pool{
		dial:               dial,
		maxConns:           DefaultMaxConns,
		acquireTimeout:     DefaultAcquireTimeout,
		healthCheckTimeout: DefaultHealthCheckTimeout,
		checkOnRelease:     true,
		now:                time.Now,
		done:               make(chan struct{}),
	}

	for _, opt := range opts {
		opt(p)
	}

	p.idle = make([]*slot, 0, p.maxConns)
	p.tokens = make(chan struct{}, p.maxConns)
	for range p.maxConns {
		p.idle = append(p.idle, &slot{})
		p.tokens <- struct{}{}
	}

	return p
}

// Acquire leases a slot, waiting at most the acquire timeout for one to free
// up. The returned lease holds a live connection.
func (p *Pool) Acquire(ctx context.Context) (*Lease, error) {
	timer := time.NewTimer(p.acquireTimeout)
	defer timer.Stop()

	select {
	case <-p.tokens:
	case <-p.done:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, fmt.Errorf("%w: no idle connection after %s", ErrPoolExhausted, p.acquireTimeout)
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.tokens <- struct{}{}
		return nil, ErrPoolClosed
	}
	s := p.idle[len(p.idle)-1]
	p.idle = p.idle[:len(p.idle)-1]
	p.leased++
	p.mu.Unlock()

	lease := &Lease{pool: p, slot: s}
	if err := p.prepare(ctx, s); err != nil {
		lease.Release()
		return nil, err
	}

	return lease, nil
}

// prepare makes sure the slot holds a usable connection. It runs while the
// slot is leased, so no lock is needed.
func (p *Pool) prepare(ctx context.Context, s *slot) error {
	if s.conn != nil && p.idleTimeout > 0 && p.now().Sub(s.lastUsed) > p.idleTimeout {
		log.WithField("idle_for", p.now().Sub(s.lastUsed).String()).Debug("Recycling idle connection")
		p.discard(s)
	}

	if s.conn != nil && s.conn.IsClosed() {
		p.discard(s)
	}

	if s.conn == nil {
		conn, err := p.dial(ctx)
		if err != nil {
			return fmt.Errorf("%w: dial: %w", ErrConnectionLost, err)
		}
		s.conn = conn
		s.lastUsed = p.now()
	}

	return nil
}

func (p *Pool) discard(s *slot) {
	if s.conn == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.healthCheckTimeout)
	defer cancel()
	if err := s.conn.Close(ctx); err != nil {
		log.WithError(err).Debug("Closing discarded connection failed")
	}
	s.conn = nil
}

func (p *Pool) release(l *Lease) {
	s := l.slot

	switch {
	case l.broken:
		p.discard(s)
	case s.conn != nil && p.checkOnRelease:
		ctx, cancel := context.WithTimeout(context.Background(), p.healthCheckTimeout)
		err := s.conn.Ping(ctx)
		cancel()
		if err != nil {
			log.WithError(err).Warn("Connection failed health check, re-establishing")
			p.discard(s)
			p.redial(s)
		}
	}
	s.lastUsed = p.now()

	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		p.discard(s)
	}

	p.mu.Lock()
	p.idle = append(p.idle, s)
	p.leased--
	p.mu.Unlock()

	p.tokens <- struct{}{}
}

func (p *Pool) redial(s *slot) {
	ctx, cancel := context.WithTimeout(context.Background(), p.healthCheckTimeout)
	defer cancel()
	conn, err := p.dial(ctx)
	if err != nil {
		log.WithError(err).Warn("Re-establishing connection failed, slot left empty")
		return
	}
	s.conn = conn
}

// Do runs fn on a leased connection and always returns the lease. A lost
// connection is discarded and fn is retried once on a fresh one.
func (p *Pool) Do(ctx context.Context, fn func(ctx context.Context, conn Conn) error) error {
	err := p.do(ctx, fn)
	if err != nil && IsConnectionLost(err) && ctx.Err() == nil {
		log.WithError(err).Warn("Connection lost, retrying on a fresh connection")
		err = p.do(ctx, fn)
	}
	return err
}

func (p *Pool) do(ctx context.Context, fn func(ctx context.Context, conn Conn) error) error {
	lease, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer lease.Release()

	if err := fn(ctx, lease.Conn()); err != nil {
		if IsConnectionLost(err) || lease.Conn().IsClosed() {
			lease.MarkBroken()
		}
		return err
	}
	return nil
}

func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := Stats{
		Capacity: p.maxConns,
		Leased:   p.leased,
		Idle:     len(p.idle),
	}
	for _, s := range p.idle {
		if s.conn != nil {
			st.IdleOpen++
		}
	}
	return st
}

// Close closes idle connections now and leased ones as they come back.
// Connections are closed after the lock is dropped.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.done)

	detached := make([]*slot, 0, len(p.idle))
	for _, s := range p.idle {
		if s.conn != nil {
			detached = append(detached, &slot{conn: s.conn})
			s.conn = nil
		}
	}
	p.mu.Unlock()

	for _, s := range detached {
		p.discard(s)
	}
}

// Lease is exclusive use of one pooled connection until Release.
type Lease struct {
	pool   *Pool
	slot   *slot
	broken bool
	once   sync.Once
}

func (l *Lease) Conn() Conn {
	return l.slot.conn
}

// MarkBroken makes Release discard the connection instead of reusing it.
func (l *Lease) MarkBroken() {
	l.broken = true
}

// Release returns the slot to the pool. Calling it again is a no-op.
func (l *Lease) Release() {
	l.once.Do(func() {
		l.pool.release(l)
	})
}
