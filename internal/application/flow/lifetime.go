package flow

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrNotMounted is returned when a view model is used outside its
	// Mount/Unmount window, or when a call resolves after Unmount.
	ErrNotMounted = errors.New("view model is not mounted")

	// ErrSubmitInFlight is returned while a previous submission is running
	ErrSubmitInFlight = errors.New("submission already in flight")
)

// lifetime scopes the requests a view model issues to its mount window
type lifetime struct {
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// call is one request issued during a mount window
type call struct {
	ctx    context.Context
	life   context.Context
	cancel context.CancelFunc
	stop   func() bool
}

func (c *call) end() {
	c.stop()
	c.cancel()
}

func (l *lifetime) mount(parent context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		l.cancel()
	}
	l.ctx, l.cancel = context.WithCancel(parent)
}

func (l *lifetime) unmount() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		l.cancel()
	}
}

// begin derives a context cancelled when either ctx or the mount window ends
func (l *lifetime) begin(ctx context.Context) (*call, error) {
	l.mu.Lock()
	life := l.ctx
	l.mu.Unlock()

	if life == nil || life.Err() != nil {
		return nil, ErrNotMounted
	}

	callCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(life, cancel)
	return &call{ctx: callCtx, life: life, cancel: cancel, stop: stop}, nil
}

// alive reports whether the mount window that issued c is still the current one
func (l *lifetime) alive(c *call) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return c.life == l.ctx && c.life.Err() == nil
}

func (l *lifetime) mounted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ctx != nil && l.ctx.Err() == nil
}
