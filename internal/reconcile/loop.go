package reconcile

import (
	"context"
	"sync"
	"time"

	"github.com/bituzin/stacks-boost-app/internal/helpers"
	"github.com/bituzin/stacks-boost-app/internal/logger"

	"go.uber.org/zap"
)

const (
	// DefaultInterval is the steady-state refresh period while connected
	DefaultInterval = 20 * time.Second
	// DefaultRequestTimeout bounds a single position query
	DefaultRequestTimeout = 15 * time.Second
)

// DefaultBurstDelays follow a settlement to absorb indexer lag. The first
// refresh runs immediately.
var DefaultBurstDelays = []time.Duration{0, 4 * time.Second, 6 * time.Second, 10 * time.Second}

// Position fields
const (
	FieldDeposited = "deposited"
	FieldBorrowed  = "borrowed"
)

// PositionFetcher reads a user's lending position
type PositionFetcher interface {
	Deposited(ctx context.Context, user string) (uint64, error)
	Borrowed(ctx context.Context, user string) (uint64, error)
}

// Observer receives refresh outcomes for metrics
type Observer interface {
	Refreshed(field string, err error)
}

// Position is the last known lending position. A failed refresh sets the
// field's error but keeps its last good value.
type Position struct {
	Address        string    `json:"address,omitempty"`
	Deposited      uint64    `json:"deposited"`
	DepositedKnown bool      `json:"deposited_known"`
	DepositedErr   string    `json:"deposited_error,omitempty"`
	Borrowed       uint64    `json:"borrowed"`
	BorrowedKnown  bool      `json:"borrowed_known"`
	BorrowedErr    string    `json:"borrowed_error,omitempty"`
	UpdatedAt      time.Time `json:"updated_at,omitempty"`
}

// Loop keeps a connected account's position fresh
type Loop struct {
	fetcher        PositionFetcher
	interval       time.Duration
	burstDelays    []time.Duration
	requestTimeout time.Duration
	sleep          helpers.SleepFunc
	observer       Observer
	logger         *zap.Logger

	mu       sync.Mutex
	position Position
	session  uint64
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// Option configures a Loop
type Option func(*Loop)

// WithInterval sets the steady-state period
func WithInterval(d time.Duration) Option {
	return func(l *Loop) {
		l.interval = d
	}
}

// WithBurstDelays overrides the post-settlement schedule
func WithBurstDelays(delays []time.Duration) Option {
	return func(l *Loop) {
		l.burstDelays = append([]time.Duration(nil), delays...)
	}
}

// WithRequestTimeout bounds each position query
func WithRequestTimeout(d time.Duration) Option {
	return func(l *Loop) {
		l.requestTimeout = d
	}
}

// WithSleep replaces the timer used between burst refreshes
func WithSleep(sleep helpers.SleepFunc) Option {
	return func(l *Loop) {
		l.sleep = sleep
	}
}

// WithObserver reports refresh outcomes
func WithObserver(o Observer) Option {
	return func(l *Loop) {
		l.observer = o
	}
}

// WithLogger overrides the loop logger
func WithLogger(lg *zap.Logger) Option {
	return func(l *Loop) {
		l.logger = lg
	}
}

// NewLoop creates a stopped loop
func NewLoop(fetcher PositionFetcher, opts ...Option) *Loop {
	l := &Loop{
		fetcher:        fetcher,
		interval:       DefaultInterval,
		burstDelays:    DefaultBurstDelays,
		requestTimeout: DefaultRequestTimeout,
		sleep:          helpers.Sleep,
		logger:         logger.Log.With(zap.String("component", "reconcile")),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start begins reconciling address: one refresh now, then one per interval.
// Starting for the address already running is a no-op; a different address
// replaces the running session.
func (l *Loop) Start(address string) {
	l.mu.Lock()
	if l.cancel != nil && l.position.Address == address {
		l.mu.Unlock()
		return
	}
	l.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	l.session++
	session := l.session
	l.ctx = ctx
	l.cancel = cancel
	l.position = Position{Address: address}
	l.wg.Add(1)
	l.mu.Unlock()

	l.logger.Info("reconciliation started", zap.String("address", address))
	go l.run(ctx, session, address)
}

// Stop cancels the running session and clears the position. Responses that
// arrive afterwards are discarded.
func (l *Loop) Stop() {
	l.mu.Lock()
	running := l.cancel != nil
	l.stopLocked()
	l.mu.Unlock()
	if running {
		l.logger.Info("reconciliation stopped")
	}
}

// Close stops the loop and waits for its goroutines to exit
func (l *Loop) Close() {
	l.Stop()
	l.wg.Wait()
}

// Running reports whether a session is active
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cancel != nil
}

// Burst schedules an immediate refresh followed by the burst delays. It is
// independent of the steady-state ticker and does nothing when stopped.
func (l *Loop) Burst() {
	l.mu.Lock()
	if l.cancel == nil {
		l.mu.Unlock()
		return
	}
	ctx, session, address := l.ctx, l.session, l.position.Address
	l.wg.Add(1)
	l.mu.Unlock()

	go func() {
		defer l.wg.Done()
		for _, delay := range l.burstDelays {
			if delay > 0 {
				if err := l.sleep(ctx, delay); err != nil {
					return
				}
			}
			if ctx.Err() != nil {
				return
			}
			l.refresh(ctx, session, address)
		}
	}()
}

// Refresh queries both positions now and returns the result
func (l *Loop) Refresh(ctx context.Context) Position {
	l.mu.Lock()
	if l.cancel == nil {
		p := l.position
		l.mu.Unlock()
		return p
	}
	session, address := l.session, l.position.Address
	l.mu.Unlock()

	l.refresh(ctx, session, address)
	return l.Position()
}

// Position returns the last known position
func (l *Loop) Position() Position {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.position
}

// Deposited returns the last known deposited amount
func (l *Loop) Deposited() (uint64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.position.Deposited, l.position.DepositedKnown
}

func (l *Loop) stopLocked() {
	if l.cancel == nil {
		return
	}
	l.cancel()
	l.cancel = nil
	l.ctx = nil
	l.session++
	l.position = Position{}
}

func (l *Loop) run(ctx context.Context, session uint64, address string) {
	defer l.wg.Done()
	l.refresh(ctx, session, address)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.refresh(ctx, session, address)
		}
	}
}

func (l *Loop) refresh(ctx context.Context, session uint64, address string) {
	l.fetch(ctx, session, address, FieldDeposited, l.fetcher.Deposited)
	l.fetch(ctx, session, address, FieldBorrowed, l.fetcher.Borrowed)
}

func (l *Loop) fetch(ctx context.Context, session uint64, address, field string, read func(context.Context, string) (uint64, error)) {
	reqCtx, cancel := context.WithTimeout(ctx, l.requestTimeout)
	defer cancel()
	value, err := read(reqCtx, address)

	l.mu.Lock()
	if l.session != session {
		l.mu.Unlock()
		return
	}
	p := &l.position
	switch field {
	case FieldDeposited:
		if err != nil {
			p.DepositedErr = err.Error()
		} else {
			p.Deposited, p.DepositedKnown, p.DepositedErr = value, true, ""
		}
	case FieldBorrowed:
		if err != nil {
			p.BorrowedErr = err.Error()
		} else {
			p.Borrowed, p.BorrowedKnown, p.BorrowedErr = value, true, ""
		}
	}
	p.UpdatedAt = time.Now()
	l.mu.Unlock()

	if err != nil {
		l.logger.Warn("position refresh failed",
			zap.String("field", field),
			zap.String("address", address),
			zap.Error(err))
	}
	if l.observer != nil {
		l.observer.Refreshed(field, err)
	}
}
