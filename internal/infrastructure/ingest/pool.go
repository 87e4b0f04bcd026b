package ingest

import (
	"context"
	"sync/atomic"
	"time"

	"rillstats/internal/core/ports"
	"rillstats/internal/infrastructure/codec"
	"rillstats/internal/infrastructure/monitoring"

	"go.uber.org/zap"
)

const (
	reasonEvicted = "evicted"
	reasonClosed  = "closed"
)

type Options struct {
	// PrunePeriod is the idle time after which a silent connection is
	// evicted. Zero disables eviction.
	PrunePeriod time.Duration
	// Countdown bounds how long Run polls. Zero runs until the context ends.
	Countdown time.Duration
	// SweepInterval is the longest the pool waits between cycles when no
	// connection or the acceptor signals readiness.
	SweepInterval time.Duration
}

// Pool multiplexes every live connection on a single goroutine: accept,
// read, decode, transform and sink writes all happen inline in one cycle.
type Pool struct {
	acceptor ports.Acceptor
	sink     ports.Sink
	metrics  *monitoring.PrometheusCollector
	logger   *zap.SugaredLogger
	clock    func() time.Time

	prunePeriod   time.Duration
	countdown     time.Duration
	sweepInterval time.Duration

	conns []*connection
	wake  chan struct{}

	running     atomic.Bool
	active      atomic.Int64
	lastSinkErr atomic.Value
}

type errBox struct{ err error }

type removal struct {
	conn   *connection
	reason string
}

func NewPool(acceptor ports.Acceptor, sink ports.Sink, opts Options, metrics *monitoring.PrometheusCollector, logger *zap.SugaredLogger) *Pool {
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = time.Second
	}
	if metrics == nil {
		metrics = monitoring.NewPrometheusCollector(nil)
	}
	return &Pool{
		acceptor:      acceptor,
		sink:          sink,
		metrics:       metrics,
		logger:        logger,
		clock:         time.Now,
		prunePeriod:   opts.PrunePeriod,
		countdown:     opts.Countdown,
		sweepInterval: opts.SweepInterval,
		wake:          make(chan struct{}, 1),
	}
}

// Run polls until ctx is done or the countdown elapses. Connections still
// registered when the countdown elapses are left open.
func (p *Pool) Run(ctx context.Context) error {
	p.running.Store(true)
	defer p.running.Store(false)

	var deadline <-chan time.Time
	if p.countdown > 0 {
		p.logger.Infow("exiting after countdown", "seconds", p.countdown.Seconds())
		timer := time.NewTimer(p.countdown)
		defer timer.Stop()
		deadline = timer.C
	}

	sweep := time.NewTicker(p.sweepInterval)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			p.logCountdownElapsed()
			return nil
		default:
		}

		if p.cycle(ctx) {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			p.logCountdownElapsed()
			return nil
		case <-p.acceptor.Ready():
		case <-p.wake:
		case <-sweep.C:
		}
	}
}

// cycle performs one accept attempt and one read attempt per connection, then
// removes closed and expired connections. It reports whether anything
// happened, in which case another cycle should follow without waiting.
func (p *Pool) cycle(ctx context.Context) bool {
	now := p.clock()
	busy := false

	if stream, ok := p.acceptor.TryAccept(); ok {
		p.register(stream, now)
		busy = true
	}

	keep := make([]*connection, 0, len(p.conns))
	var removed []removal

	for _, c := range p.conns {
		payload, status, err := c.tryRead()
		switch status {
		case readMessage:
			busy = true
			c.lastActivity = now
			p.dispatch(ctx, c, payload)
			keep = append(keep, c)
		case readClosed:
			busy = true
			p.logger.Infow("websocket connection closed by peer", "conn_id", c.id, "reason", err)
			removed = append(removed, removal{conn: c, reason: reasonClosed})
		default:
			if Expired(p.prunePeriod, c.lastActivity, now) {
				p.logger.Infow("evicting idle websocket connection",
					"conn_id", c.id,
					"remote", c.stream.RemoteAddr(),
					"idle", now.Sub(c.lastActivity).String(),
				)
				removed = append(removed, removal{conn: c, reason: reasonEvicted})
			} else {
				keep = append(keep, c)
			}
		}
	}

	p.conns = keep
	for _, r := range removed {
		if err := r.conn.close(); err != nil {
			p.logger.Debugw("error closing websocket connection", "conn_id", r.conn.id, "error", err)
		}
		p.metrics.RecordConnectionClosed(r.reason)
	}
	p.active.Store(int64(len(p.conns)))

	return busy
}

func (p *Pool) register(stream ports.Stream, now time.Time) {
	c := newConnection(stream, now)
	c.start(p.wake)
	p.conns = append(p.conns, c)
	p.metrics.RecordConnectionAccepted()
	p.logger.Infow("incoming websocket connection", "conn_id", c.id, "remote", stream.RemoteAddr())
}

// dispatch decodes one message and forwards it. Neither a decode failure nor
// a sink failure closes the connection.
func (p *Pool) dispatch(ctx context.Context, c *connection, payload []byte) {
	p.metrics.RecordMessage(len(payload))

	digest, err := codec.DecodeDigest(payload)
	if err != nil {
		p.metrics.RecordDecodeFailure()
		p.logger.Warnw("failed to decode digest", "conn_id", c.id, "size", len(payload), "error", err)
		return
	}

	if err := p.sink.Store(ctx, digest); err != nil {
		p.metrics.RecordSinkFailure()
		p.lastSinkErr.Store(errBox{err: err})
		p.logger.Errorw("failed to store digest",
			"conn_id", c.id,
			"room", uint64(digest.RoomID),
			"member", uint64(digest.MemberID),
			"error", err,
		)
		return
	}
	p.lastSinkErr.Store(errBox{})
	p.metrics.RecordDigestStored()
	p.logger.Debugw("digest stored", "conn_id", c.id, "size", len(payload))
}

func (p *Pool) logCountdownElapsed() {
	p.logger.Infow("countdown elapsed, stopping pool", "open_connections", len(p.conns))
}

// Running reports whether Run is polling.
func (p *Pool) Running() bool {
	return p.running.Load()
}

// Active returns the number of registered connections as of the last cycle.
func (p *Pool) Active() int {
	return int(p.active.Load())
}

// LastSinkError returns the error of the most recent sink write, or nil.
func (p *Pool) LastSinkError() error {
	if box, ok := p.lastSinkErr.Load().(errBox); ok {
		return box.err
	}
	return nil
}
