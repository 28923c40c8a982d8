package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/narravid/narravid-go/internal/logger"
	"github.com/narravid/narravid-go/internal/port"
	"github.com/narravid/narravid-go/internal/realtime"
	"github.com/narravid/narravid-go/internal/session"
)

// Balance is the single-scalar sibling of VideoList: a cached copy of the
// backend-owned credit balance, refreshed on fetch and on realtime profile
// updates, reset to nil on sign-out.
type Balance struct {
	api port.BalanceAPI
	sig *session.Signal

	mu       sync.Mutex
	value    *float64
	fetching bool
	errMsg   string
}

// compile-time checks
var (
	_ port.BalanceStore    = (*Balance)(nil)
	_ realtime.BalanceSink = (*Balance)(nil)
)

func NewBalance(api port.BalanceAPI, sig *session.Signal) *Balance {
	return &Balance{api: api, sig: sig}
}

// Current returns the cached balance, or nil when unknown.
func (s *Balance) Current() *float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.value == nil {
		return nil
	}
	v := *s.value
	return &v
}

// Fetch refreshes the cached value. Concurrent re-entrant calls are guarded
// by a busy flag; a fetch already in flight is not restarted.
func (s *Balance) Fetch(ctx context.Context) {
	sess := s.sig.Current()
	if !sess.Authenticated() {
		s.Reset()
		return
	}

	s.mu.Lock()
	if s.fetching {
		s.mu.Unlock()
		return
	}
	s.fetching = true
	s.mu.Unlock()

	value, err := s.api.GetBalance(ctx, sess.UserID)

	s.mu.Lock()
	s.fetching = false
	if err != nil {
		s.errMsg = "could not load balance"
		s.mu.Unlock()
		logger.Warnf(ctx, "balance: fetch failed: %v", err)
		return
	}
	s.value = &value
	s.errMsg = ""
	s.mu.Unlock()
}

// ApplyUpdate mirrors a realtime profile update.
func (s *Balance) ApplyUpdate(balance float64) {
	s.mu.Lock()
	s.value = &balance
	s.mu.Unlock()
}

// Reset invalidates the cached copy, used on sign-out.
func (s *Balance) Reset() {
	s.mu.Lock()
	s.value = nil
	s.errMsg = ""
	s.mu.Unlock()
}

// TopUp writes the new absolute balance and appends a top-up history row.
// Errors are surfaced to the caller; the cached copy only changes once the
// backend confirms.
func (s *Balance) TopUp(ctx context.Context, amount float64) (float64, error) {
	sess := s.sig.Current()
	if !sess.Authenticated() {
		return 0, ErrNotAuthenticated
	}

	current, err := s.api.GetBalance(ctx, sess.UserID)
	if err != nil {
		return 0, fmt.Errorf("top-up: read balance: %w", err)
	}
	next := current + amount
	if err := s.api.SetBalance(ctx, sess.UserID, next); err != nil {
		return 0, fmt.Errorf("top-up: write balance: %w", err)
	}
	if err := s.api.InsertTopUp(ctx, port.TopUpInput{UserID: sess.UserID, Amount: amount}); err != nil {
		logger.Warnf(ctx, "balance: top-up history insert failed: %v", err)
	}

	s.mu.Lock()
	s.value = &next
	s.mu.Unlock()
	return next, nil
}
