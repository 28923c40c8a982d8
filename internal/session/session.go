package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/narravid/narravid-go/internal/uuid"
)

// Session is the identity the sync engine runs under. Auth flows themselves
// (OAuth, password reset, refresh) live in the backend; this package only
// mirrors their outcome.
type Session struct {
	UserID       uuid.UUID
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

func (s Session) Authenticated() bool {
	return !s.UserID.IsZero()
}

type EventKind string

const (
	SignedIn       EventKind = "SIGNED_IN"
	SignedOut      EventKind = "SIGNED_OUT"
	TokenRefreshed EventKind = "TOKEN_REFRESHED"
	Restored       EventKind = "RESTORED"
)

// Event is one auth transition as reported by the backend auth service.
type Event struct {
	Kind    EventKind
	Session Session
}

// Signal holds the current session and fans out auth transitions to
// subscribers. Publishing never blocks: a subscriber that stops draining
// loses events rather than stalling the auth path.
type Signal struct {
	mu      sync.RWMutex
	current Session
	subs    map[chan Event]struct{}
	buffer  int
}

func NewSignal() *Signal {
	return &Signal{
		subs:   make(map[chan Event]struct{}),
		buffer: 8,
	}
}

// Current returns the session as of the last Set call.
func (s *Signal) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set records the new session and emits the transition to every subscriber.
func (s *Signal) Set(kind EventKind, sess Session) {
	s.mu.Lock()
	s.current = sess
	evt := Event{Kind: kind, Session: sess}
	for ch := range s.subs {
		select {
		case ch <- evt:
		default:
		}
	}
	s.mu.Unlock()
}

// Subscribe returns a channel of auth transitions plus a cancel func that
// detaches and closes it.
func (s *Signal) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, s.buffer)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, ch)
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

var ErrInvalidToken = errors.New("session: invalid access token")

// ParseAccessToken extracts the user id and expiry from a backend access
// token. With a secret the HMAC signature is verified; without one the claims
// are read unverified, which is acceptable for a client inspecting its own
// token.
func ParseAccessToken(token, secret string) (Session, error) {
	claims := jwt.MapClaims{}

	var err error
	if secret == "" {
		_, _, err = jwt.NewParser().ParseUnverified(token, claims)
	} else {
		var tok *jwt.Token
		tok, err = jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
			}
			return []byte(secret), nil
		})
		if err == nil && !tok.Valid {
			err = ErrInvalidToken
		}
	}
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return Session{}, fmt.Errorf("%w: missing sub claim", ErrInvalidToken)
	}
	uid, err := uuid.Parse(sub)
	if err != nil {
		return Session{}, fmt.Errorf("%w: sub is not a uuid", ErrInvalidToken)
	}

	sess := Session{UserID: uid, AccessToken: token}
	if exp, ok := claims["exp"].(float64); ok {
		sess.ExpiresAt = time.Unix(int64(exp), 0)
	}
	return sess, nil
}
