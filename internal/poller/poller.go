// Package poller refreshes a value on a fixed interval for as long as a view is open.
package poller

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// FetchFunc loads the current value.
type FetchFunc func(ctx context.Context) (int, error)

// Poller calls a FetchFunc immediately and then every interval, keeping the
// last successful value.
type Poller struct {
	fetch    FetchFunc
	interval time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	value    int
	ok       bool
	watchers []func(int)
}

// New returns a stopped poller.
func New(fetch FetchFunc, interval time.Duration, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{fetch: fetch, interval: interval, logger: logger}
}

// OnUpdate registers fn to receive every successfully fetched value.
// It must be called before Start.
func (p *Poller) OnUpdate(fn func(int)) {
	p.mu.Lock()
	p.watchers = append(p.watchers, fn)
	p.mu.Unlock()
}

// Last returns the most recent value and whether any fetch has succeeded.
func (p *Poller) Last() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value, p.ok
}

// Handle stops a running poller.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Stop cancels the poller and waits for its goroutine to exit.
func (h *Handle) Stop() {
	h.cancel()
	<-h.done
}

// Done is closed once the poller has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Start runs the poller until ctx is cancelled or Stop is called.
func (p *Poller) Start(ctx context.Context) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(h.done)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			p.refresh(ctx)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return h
}

func (p *Poller) refresh(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	v, err := p.fetch(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Warn("poll failed, keeping last value", zap.Error(err))
		}
		return
	}

	p.mu.Lock()
	p.value, p.ok = v, true
	watchers := append([]func(int){}, p.watchers...)
	p.mu.Unlock()

	for _, fn := range watchers {
		fn(v)
	}
}
