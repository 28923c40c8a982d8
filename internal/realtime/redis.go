package realtime

import (
	"context"
	"sync"

	"github.com/narravid/narravid-go/internal/port"
	"github.com/redis/go-redis/v9"
)

// RedisRealtime carries row-change broadcasts over redis pub/sub. Reconnects
// are handled inside go-redis; a subscription channel only closes when the
// subscription itself is torn down.
type RedisRealtime struct {
	client *redis.Client
	buffer int
}

// compile-time check: *RedisRealtime must satisfy port.Realtime
var _ port.Realtime = (*RedisRealtime)(nil)

func NewRedisRealtime(addr, password string) *RedisRealtime {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	return &RedisRealtime{client: rdb, buffer: 64}
}

// Subscribe opens a pub/sub subscription on the given topics. It returns only
// after the server has confirmed the subscription, so a successful return
// maps to the manager's "ready" state.
func (r *RedisRealtime) Subscribe(ctx context.Context, topics ...string) (port.Subscription, error) {
	ps := r.client.Subscribe(ctx, topics...)

	// Wait for the subscribe confirmation; an error here means not-ready.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	sub := &redisSubscription{
		ps: ps,
		ch: make(chan port.RawEvent, r.buffer),
	}
	go sub.run()
	return sub, nil
}

type redisSubscription struct {
	once sync.Once
	ps   *redis.PubSub
	ch   chan port.RawEvent
}

func (s *redisSubscription) run() {
	for msg := range s.ps.Channel() {
		s.ch <- port.RawEvent{Topic: msg.Channel, Payload: []byte(msg.Payload)}
	}
	close(s.ch)
}

func (s *redisSubscription) Events() <-chan port.RawEvent {
	return s.ch
}

func (s *redisSubscription) Close() {
	s.once.Do(func() {
		// Closing the PubSub closes its Channel(), which ends run and
		// closes ch.
		_ = s.ps.Close()
	})
}
