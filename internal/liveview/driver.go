package liveview

import (
	"math"
	"sync"
	"sync/atomic"
	"time"
)

type urlBuilder interface {
	LiveFeedURL(t time.Time) string
}

// Ticker is the subset of *time.Ticker the driver needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

func newRealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// Interval is round(1000/fps) milliseconds, with fps clamped to [1,60].
func Interval(fps int) time.Duration {
	if fps < 1 {
		fps = 1
	}
	if fps > 60 {
		fps = 60
	}
	return time.Duration(math.Round(1000/float64(fps))) * time.Millisecond
}

// Driver emits cache-busted live feed URLs at a fixed rate. At most one timer is active.
type Driver struct {
	urls      urlBuilder
	newTicker func(time.Duration) Ticker
	now       func() time.Time

	mu  sync.Mutex
	run *run
}

type run struct {
	stop    chan struct{}
	done    chan struct{}
	stopped atomic.Bool
	once    sync.Once
}

type Option func(*Driver)

func WithTicker(fn func(time.Duration) Ticker) Option {
	return func(d *Driver) { d.newTicker = fn }
}

func WithClock(now func() time.Time) Option {
	return func(d *Driver) { d.now = now }
}

func NewDriver(urls urlBuilder, opts ...Option) *Driver {
	d := &Driver{
		urls:      urls,
		newTicker: newRealTicker,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start calls onURL once immediately and then every Interval(fps) until the run is
// stopped. Starting again cancels the previous run first.
//
// The returned cancel waits for an in-flight tick, so no onURL call runs after it
// returns; it must not be called from inside onURL. Inside a tick use the stop
// passed to onURL, which ends the run without waiting. Both are idempotent.
func (d *Driver) Start(fps int, onURL func(url string, stop func())) (cancel func()) {
	d.mu.Lock()
	if d.run != nil {
		d.run.cancel()
	}
	r := &run{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	d.run = r
	ticker := d.newTicker(Interval(fps))
	d.mu.Unlock()

	go r.loop(ticker, func() { onURL(d.urls.LiveFeedURL(d.now()), r.halt) })

	return func() {
		d.mu.Lock()
		if d.run == r {
			d.run = nil
		}
		d.mu.Unlock()
		r.cancel()
	}
}

func (d *Driver) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.run != nil && !d.run.stopped.Load()
}

func (r *run) loop(ticker Ticker, tick func()) {
	defer close(r.done)
	defer ticker.Stop()

	if !r.fire(tick) {
		return
	}
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C():
			if !r.fire(tick) {
				return
			}
		}
	}
}

func (r *run) fire(tick func()) bool {
	if r.stopped.Load() {
		return false
	}
	tick()
	return !r.stopped.Load()
}

// halt stops the run without waiting for the loop.
func (r *run) halt() {
	r.stopped.Store(true)
	r.once.Do(func() { close(r.stop) })
}

// cancel halts the run and waits for the loop, including any tick in progress, to exit.
func (r *run) cancel() {
	r.halt()
	<-r.done
}
