package notification

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/garyjia/docflow/internal/domain/entity"
)

type memoryRepo struct {
	mu        sync.Mutex
	nextID    int64
	items     []*entity.Notification
	createErr error
}

func (r *memoryRepo) Create(ctx context.Context, n *entity.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	n.ID = r.nextID
	cp := *n
	r.items = append(r.items, &cp)
	return nil
}

func (r *memoryRepo) ListRecent(ctx context.Context, limit int) ([]*entity.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]*entity.Notification{}, r.items...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryRepo) MarkRead(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.items {
		if n.ID == id {
			n.Read = true
			return nil
		}
	}
	return errors.New("not found")
}

func (r *memoryRepo) MarkAllRead(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var changed int64
	for _, n := range r.items {
		if !n.Read {
			n.Read = true
			changed++
		}
	}
	return changed, nil
}

func (r *memoryRepo) CountUnread(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, n := range r.items {
		if !n.Read {
			count++
		}
	}
	return count, nil
}

type sentMessage struct {
	receiveIDType string
	receiveID     string
	text          string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (s *fakeSender) SendText(ctx context.Context, receiveIDType, receiveID, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.sent = append(s.sent, sentMessage{receiveIDType, receiveID, text})
	return "om_1", nil
}

func (s *fakeSender) Sent() []sentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentMessage{}, s.sent...)
}

type scriptedCounter struct {
	mu     sync.Mutex
	counts []int
	err    error
	calls  int
}

func (c *scriptedCounter) GetUnreadNotificationCount(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return 0, c.err
	}
	if len(c.counts) == 0 {
		return 0, nil
	}
	n := c.counts[0]
	if len(c.counts) > 1 {
		c.counts = c.counts[1:]
	}
	return n, nil
}

func (c *scriptedCounter) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func int64Ptr(v int64) *int64 { return &v }
