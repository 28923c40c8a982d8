package mock

import (
	"context"
	"sync"

	"github.com/narravid/narravid-go/internal/port"
)

// Subscription implements an event stream for tests. Events are pushed with
// Emit and the channel closes on Close, mirroring transport behaviour.
type Subscription struct {
	ch        chan port.RawEvent
	closeOnce sync.Once

	Closed bool
}

func NewSubscription() *Subscription {
	return &Subscription{ch: make(chan port.RawEvent, 16)}
}

func (s *Subscription) Events() <-chan port.RawEvent { return s.ch }

func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.Closed = true
		close(s.ch)
	})
}

func (s *Subscription) Emit(topic string, payload []byte) {
	s.ch <- port.RawEvent{Topic: topic, Payload: payload}
}

// Realtime implements the pub/sub transport for tests.
type Realtime struct {
	mu sync.Mutex

	SubscribeErr error

	SubscribeCalled bool
	SubscribeCount  int
	Topics          [][]string
	Subs            []*Subscription

	// optional per-call override, may block to simulate a slow transport
	SubscribeFn func(ctx context.Context, topics ...string) (port.Subscription, error)
}

func (m *Realtime) Subscribe(ctx context.Context, topics ...string) (port.Subscription, error) {
	m.mu.Lock()
	m.SubscribeCalled = true
	m.SubscribeCount++
	m.Topics = append(m.Topics, topics)
	fn := m.SubscribeFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, topics...)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SubscribeErr != nil {
		return nil, m.SubscribeErr
	}
	sub := NewSubscription()
	m.Subs = append(m.Subs, sub)
	return sub, nil
}

// Count returns the number of Subscribe calls seen so far.
func (m *Realtime) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.SubscribeCount
}

// Last returns the most recent subscription handed out.
func (m *Realtime) Last() *Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Subs) == 0 {
		return nil
	}
	return m.Subs[len(m.Subs)-1]
}
