package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Ticker is the subset of time.Ticker the countdown needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock creates tickers. Tests substitute a clock driven by simulated time.
type Clock interface {
	NewTicker(d time.Duration) Ticker
}

// RealClock is backed by time.Ticker.
type RealClock struct{}

func (RealClock) NewTicker(d time.Duration) Ticker {
	return realTicker{time.NewTicker(d)}
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

const (
	countdownIdle int32 = iota
	countdownRunning
	countdownStopped
	countdownExpired
)

// Countdown is a single session-wide timer. It ticks once per second and fires its
// expiry callback exactly once, unless stopped first.
type Countdown struct {
	clock     Clock
	remaining atomic.Int64
	state     atomic.Int32
	done      chan struct{}

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewCountdown prepares a countdown of the given number of seconds.
func NewCountdown(seconds int, clock Clock) *Countdown {
	if clock == nil {
		clock = RealClock{}
	}
	c := &Countdown{
		clock: clock,
		done:  make(chan struct{}),
	}
	c.remaining.Store(int64(seconds))
	return c
}

// Start begins ticking. onTick receives the remaining seconds, first with the initial
// value and then after every tick; onExpire runs once when the count reaches zero.
// Cancelling ctx has the same effect as Stop. Starting twice is a no-op.
func (c *Countdown) Start(ctx context.Context, onTick func(remaining int), onExpire func()) {
	c.mu.Lock()
	if c.state.Load() != countdownIdle {
		c.mu.Unlock()
		return
	}
	ctx, c.cancel = context.WithCancel(ctx)
	c.state.Store(countdownRunning)
	ticker := c.clock.NewTicker(time.Second)
	c.mu.Unlock()

	if onTick != nil {
		onTick(c.Remaining())
	}
	go c.run(ctx, ticker, onTick, onExpire)
}

func (c *Countdown) run(ctx context.Context, ticker Ticker, onTick func(int), onExpire func()) {
	defer close(c.done)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.state.CompareAndSwap(countdownRunning, countdownStopped)
			return
		case <-ticker.C():
			if c.state.Load() != countdownRunning {
				return
			}
			left := int(c.remaining.Add(-1))
			if left < 0 {
				left = 0
			}
			if onTick != nil {
				onTick(left)
			}
			if left > 0 {
				continue
			}
			if c.state.CompareAndSwap(countdownRunning, countdownExpired) && onExpire != nil {
				onExpire()
			}
			return
		}
	}
}

// Stop halts the countdown. Once Stop returns the expiry callback cannot fire. It never
// blocks, so it may be called from inside the callbacks.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.CompareAndSwap(countdownIdle, countdownStopped) {
		close(c.done)
		return
	}
	c.state.CompareAndSwap(countdownRunning, countdownStopped)
	if c.cancel != nil {
		c.cancel()
	}
}

// Done is closed once the tick loop has exited.
func (c *Countdown) Done() <-chan struct{} {
	return c.done
}

// Remaining returns the seconds left.
func (c *Countdown) Remaining() int {
	left := int(c.remaining.Load())
	if left < 0 {
		return 0
	}
	return left
}

// Expired reports whether the countdown reached zero.
func (c *Countdown) Expired() bool {
	return c.state.Load() == countdownExpired
}
