package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/docflow/internal/application/dispatcher"
	"github.com/garyjia/docflow/internal/domain/event"
)

func TestUnreadPoller_PublishesChanges(t *testing.T) {
	d := dispatcher.NewDispatcher()
	defer d.Close()

	var mu sync.Mutex
	var changes []*event.Event
	d.Subscribe(event.TypeUnreadCountChanged, "test", func(ctx context.Context, evt *event.Event) error {
		mu.Lock()
		defer mu.Unlock()
		changes = append(changes, evt)
		return nil
	})

	counter := &scriptedCounter{counts: []int{3, 3, 5}}
	poller := NewUnreadPoller(counter, d, zap.NewNop(), 5*time.Millisecond)

	require.NoError(t, poller.Start(context.Background()))
	assert.True(t, poller.IsRunning())

	assert.Eventually(t, func() bool {
		count, known := poller.Count()
		return known && count == 5
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, poller.Stop())
	assert.False(t, poller.IsRunning())

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(changes) == 2
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, int64(3), changes[0].GetPayloadInt(PayloadCount))
	assert.Equal(t, int64(0), changes[0].GetPayloadInt(PayloadPrevious))
	assert.Equal(t, int64(5), changes[1].GetPayloadInt(PayloadCount))
	assert.Equal(t, int64(3), changes[1].GetPayloadInt(PayloadPrevious))
}

func TestUnreadPoller_ErrorsKeepLastCount(t *testing.T) {
	counter := &scriptedCounter{err: errors.New("unavailable")}
	poller := NewUnreadPoller(counter, nil, zap.NewNop(), 5*time.Millisecond)

	require.NoError(t, poller.Start(context.Background()))
	assert.Eventually(t, func() bool { return counter.Calls() >= 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, poller.Stop())

	_, known := poller.Count()
	assert.False(t, known)
}

func TestUnreadPoller_StartTwice(t *testing.T) {
	poller := NewUnreadPoller(&scriptedCounter{}, nil, zap.NewNop(), time.Hour)

	require.NoError(t, poller.Start(context.Background()))
	defer poller.Stop()

	assert.Error(t, poller.Start(context.Background()))
	assert.Equal(t, "UnreadPoller", poller.Name())
}

func TestUnreadPoller_StopWhenIdle(t *testing.T) {
	poller := NewUnreadPoller(&scriptedCounter{}, nil, zap.NewNop(), 0)
	assert.NoError(t, poller.Stop())
	assert.Equal(t, DefaultPollInterval, poller.pollInterval)
}

func TestUnreadPoller_PokedByWorkflowEvents(t *testing.T) {
	d := dispatcher.NewDispatcher()
	defer d.Close()

	counter := &scriptedCounter{counts: []int{1}}
	poller := NewUnreadPoller(counter, nil, zap.NewNop(), time.Hour)
	poller.Register(d)

	require.NoError(t, poller.Start(context.Background()))
	defer poller.Stop()

	// the initial poll runs on start
	assert.Eventually(t, func() bool { return counter.Calls() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, d.Dispatch(context.Background(), event.NewEvent(event.TypeApprovalProcessed, 1, 2, nil)))
	assert.Eventually(t, func() bool { return counter.Calls() == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, d.Dispatch(context.Background(), event.NewEvent(event.TypeWorkflowStarted, 1, 3, nil)))
	assert.Eventually(t, func() bool { return counter.Calls() == 3 }, time.Second, 5*time.Millisecond)
}
