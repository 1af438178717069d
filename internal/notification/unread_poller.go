package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/docflow/internal/application/dispatcher"
	"github.com/garyjia/docflow/internal/application/port"
	"github.com/garyjia/docflow/internal/domain/event"
)

// DefaultPollInterval is the unread-count refresh period
const DefaultPollInterval = 30 * time.Second

// UnreadPoller periodically fetches the server-side unread notification count
// and publishes notification.unread_changed when it moves.
type UnreadPoller struct {
	counter    port.UnreadCounter
	dispatcher dispatcher.Dispatcher
	logger     *zap.Logger

	pollInterval time.Duration
	pollTimeout  time.Duration

	mu        sync.RWMutex
	isRunning bool
	cancel    context.CancelFunc
	done      chan struct{}
	poke      chan struct{}
	count     int
	known     bool
	lastPoll  time.Time
}

// NewUnreadPoller creates a poller. interval <= 0 uses DefaultPollInterval.
func NewUnreadPoller(counter port.UnreadCounter, disp dispatcher.Dispatcher, logger *zap.Logger, interval time.Duration) *UnreadPoller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &UnreadPoller{
		counter:      counter,
		dispatcher:   disp,
		logger:       logger,
		pollInterval: interval,
		pollTimeout:  10 * time.Second,
		poke:         make(chan struct{}, 1),
	}
}

// Register makes workflow mutations trigger an immediate poll
func (p *UnreadPoller) Register(d dispatcher.Dispatcher) {
	handler := func(ctx context.Context, evt *event.Event) error {
		p.Poke()
		return nil
	}
	d.Subscribe(event.TypeWorkflowStarted, "unread_poller", handler)
	d.Subscribe(event.TypeApprovalProcessed, "unread_poller", handler)
}

// Start starts the polling loop
func (p *UnreadPoller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isRunning {
		return fmt.Errorf("unread poller is already running")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.isRunning = true

	p.logger.Info("UnreadPoller started", zap.Duration("poll_interval", p.pollInterval))

	go p.pollLoop(loopCtx, p.done)
	return nil
}

// Stop cancels the polling loop and waits for it to exit
func (p *UnreadPoller) Stop() error {
	p.mu.Lock()
	if !p.isRunning {
		p.mu.Unlock()
		return nil
	}
	p.isRunning = false
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	cancel()
	<-done

	p.logger.Info("UnreadPoller stopped")
	return nil
}

// Name returns the worker name for identification
func (p *UnreadPoller) Name() string {
	return "UnreadPoller"
}

// Poke requests a poll without waiting for the next tick
func (p *UnreadPoller) Poke() {
	select {
	case p.poke <- struct{}{}:
	default:
	}
}

// Count returns the last polled count and whether a poll has succeeded yet
func (p *UnreadPoller) Count() (int, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.count, p.known
}

// LastPoll returns the time of the last successful poll
func (p *UnreadPoller) LastPoll() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastPoll
}

// IsRunning returns whether the polling loop is active
func (p *UnreadPoller) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.isRunning
}

func (p *UnreadPoller) pollLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	// Poll immediately on start
	p.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		case <-p.poke:
			p.poll(ctx)
		}
	}
}

func (p *UnreadPoller) poll(ctx context.Context) {
	pollCtx, cancel := context.WithTimeout(ctx, p.pollTimeout)
	defer cancel()

	count, err := p.counter.GetUnreadNotificationCount(pollCtx)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Warn("Failed to poll unread notification count", zap.Error(err))
		}
		return
	}

	p.mu.Lock()
	previous, known := p.count, p.known
	p.count = count
	p.known = true
	p.lastPoll = time.Now()
	p.mu.Unlock()

	if known && previous == count {
		return
	}

	p.logger.Debug("Unread notification count changed",
		zap.Int("previous", previous),
		zap.Int("count", count))

	if p.dispatcher != nil {
		p.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeUnreadCountChanged, 0, 0, map[string]interface{}{
			PayloadCount:    count,
			PayloadPrevious: previous,
		}))
	}
}
