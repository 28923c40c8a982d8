package realtime

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/narravid/narravid-go/internal/logger"
	"github.com/narravid/narravid-go/internal/port"
	"github.com/narravid/narravid-go/internal/session"
	"github.com/narravid/narravid-go/internal/uuid"
)

// State of the current logical subscription attempt.
type State string

const (
	StateIdle        State = "idle"
	StateSubscribing State = "subscribing"
	StateReady       State = "ready"
	StateError       State = "error"
	StateClosed      State = "closed"
)

// TopicVideos is the per-user topic carrying video row changes.
func TopicVideos(userID uuid.UUID) string {
	return fmt.Sprintf("user:%s:videos", userID)
}

// TopicBalance is the per-user topic carrying profile balance changes.
func TopicBalance(userID uuid.UUID) string {
	return fmt.Sprintf("user:%s:balance", userID)
}

// VideoSink is where normalised video events land. The manager never touches
// the collection itself; the store decides how to merge.
type VideoSink interface {
	ApplyInsert(ctx context.Context, row *Row)
	ApplyUpdate(ctx context.Context, row *Row)
	ApplyDelete(ctx context.Context, id uuid.UUID)
	ResetFetch(ctx context.Context)
	Clear()
}

// BalanceSink is the single-scalar sibling of VideoSink.
type BalanceSink interface {
	ApplyUpdate(balance float64)
	Fetch(ctx context.Context)
	Reset()
}

// Manager maintains at most one live subscription per authenticated user and
// relays normalised events into the sinks. It does not loop-retry on channel
// failure: the transport auto-reconnects, and the next auth signal triggers a
// fresh subscribe attempt.
type Manager struct {
	rt      port.Realtime
	videos  VideoSink
	balance BalanceSink

	mu     sync.Mutex
	state  State
	userID uuid.UUID
	gen    int
	sub    port.Subscription
}

func NewManager(rt port.Realtime, videos VideoSink, balance BalanceSink) *Manager {
	return &Manager{
		rt:      rt,
		videos:  videos,
		balance: balance,
		state:   StateIdle,
	}
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) Ready() bool {
	return m.State() == StateReady
}

// Run consumes auth transitions from the signal until ctx is cancelled. A
// session that existed before Run started is picked up immediately.
func (m *Manager) Run(ctx context.Context, sig *session.Signal) {
	events, cancel := sig.Subscribe()
	defer cancel()

	if cur := sig.Current(); cur.Authenticated() {
		m.Subscribe(ctx, cur.UserID)
	}

	for {
		select {
		case <-ctx.Done():
			m.Teardown()
			return
		case evt, ok := <-events:
			if !ok {
				m.Teardown()
				return
			}
			m.HandleAuthEvent(ctx, evt)
		}
	}
}

// HandleAuthEvent applies the resubscription policy for one auth transition.
func (m *Manager) HandleAuthEvent(ctx context.Context, evt session.Event) {
	if evt.Kind == session.SignedOut || !evt.Session.Authenticated() {
		m.Teardown()
		m.videos.Clear()
		m.balance.Reset()
		return
	}
	m.Subscribe(ctx, evt.Session.UserID)
}

// Subscribe opens the per-user subscription unless one is already live for
// the same user. A token refresh while ready is therefore a no-op; a user
// switch tears down the previous subscription first. On confirmed
// subscription the sinks perform an authoritative reset fetch, because
// events delivered before ready may have been missed.
func (m *Manager) Subscribe(ctx context.Context, userID uuid.UUID) {
	m.mu.Lock()
	if m.userID == userID && (m.state == StateSubscribing || m.state == StateReady) {
		m.mu.Unlock()
		logger.Debugf(ctx, "realtime: already subscribed for user %s, skipping", userID)
		return
	}
	m.closeLocked()
	m.gen++
	gen := m.gen
	m.userID = userID
	m.state = StateSubscribing
	m.mu.Unlock()

	sub, err := m.rt.Subscribe(ctx, TopicVideos(userID), TopicBalance(userID))

	m.mu.Lock()
	if gen != m.gen {
		// Superseded while the subscribe call was in flight.
		m.mu.Unlock()
		if err == nil {
			sub.Close()
		}
		return
	}
	if err != nil {
		m.state = StateError
		m.mu.Unlock()
		logger.Warnf(ctx, "realtime: subscribe failed for user %s: %v", userID, err)
		return
	}
	m.sub = sub
	m.state = StateReady
	m.mu.Unlock()

	logger.Infof(ctx, "realtime: subscription ready for user %s", userID)
	go m.loop(ctx, gen, sub)

	m.videos.ResetFetch(ctx)
	m.balance.Fetch(ctx)
}

// Teardown closes the subscription and forgets the user. Safe to call when
// nothing is subscribed.
func (m *Manager) Teardown() {
	m.mu.Lock()
	m.gen++
	m.closeLocked()
	m.userID = uuid.UUID{}
	m.state = StateClosed
	m.mu.Unlock()
}

func (m *Manager) closeLocked() {
	if m.sub != nil {
		m.sub.Close()
		m.sub = nil
	}
}

func (m *Manager) loop(ctx context.Context, gen int, sub port.Subscription) {
	for raw := range sub.Events() {
		m.dispatch(ctx, raw)
	}

	// Channel closed: deliberate teardown bumps gen first, so reaching here
	// with a current gen means the transport dropped us.
	m.mu.Lock()
	if gen == m.gen && m.state == StateReady {
		m.state = StateError
		m.sub = nil
		logger.Warn(ctx, "realtime: subscription channel closed unexpectedly")
	}
	m.mu.Unlock()
}

func (m *Manager) dispatch(ctx context.Context, raw port.RawEvent) {
	evt := Normalize(raw.Payload)
	if evt.Kind == KindUnparseable {
		logger.Warnf(ctx, "realtime: dropping unparseable event on %q: %s", raw.Topic, truncate(evt.Raw, 200))
		return
	}

	switch {
	case strings.HasSuffix(raw.Topic, ":balance"):
		if evt.Kind == KindUpdate && evt.Row != nil && evt.Row.Balance != nil {
			m.balance.ApplyUpdate(*evt.Row.Balance)
		}
	case strings.HasSuffix(raw.Topic, ":videos"):
		switch evt.Kind {
		case KindInsert:
			m.videos.ApplyInsert(ctx, evt.Row)
		case KindUpdate:
			m.videos.ApplyUpdate(ctx, evt.Row)
		case KindDelete:
			m.videos.ApplyDelete(ctx, evt.ID)
		}
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "…"
}
