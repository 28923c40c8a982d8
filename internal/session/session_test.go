package session

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/narravid/narravid-go/internal/uuid"
)

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func TestParseAccessToken(t *testing.T) {
	uid := uuid.NewUUID()
	exp := time.Now().Add(time.Hour)
	secret := "super-secret"

	tests := []struct {
		name    string
		token   func(t *testing.T) string
		secret  string
		wantErr bool
	}{
		{
			name: "valid verified token",
			token: func(t *testing.T) string {
				return signToken(t, jwt.MapClaims{"sub": uid.String(), "exp": exp.Unix()}, secret)
			},
			secret: secret,
		},
		{
			name: "wrong signature",
			token: func(t *testing.T) string {
				return signToken(t, jwt.MapClaims{"sub": uid.String(), "exp": exp.Unix()}, "other-secret")
			},
			secret:  secret,
			wantErr: true,
		},
		{
			name: "expired",
			token: func(t *testing.T) string {
				return signToken(t, jwt.MapClaims{"sub": uid.String(), "exp": time.Now().Add(-time.Hour).Unix()}, secret)
			},
			secret:  secret,
			wantErr: true,
		},
		{
			name: "missing sub",
			token: func(t *testing.T) string {
				return signToken(t, jwt.MapClaims{"exp": exp.Unix()}, secret)
			},
			secret:  secret,
			wantErr: true,
		},
		{
			name: "sub is not a uuid",
			token: func(t *testing.T) string {
				return signToken(t, jwt.MapClaims{"sub": "bob", "exp": exp.Unix()}, secret)
			},
			secret:  secret,
			wantErr: true,
		},
		{
			name: "unverified parse without a secret",
			token: func(t *testing.T) string {
				return signToken(t, jwt.MapClaims{"sub": uid.String(), "exp": exp.Unix()}, "whatever")
			},
			secret: "",
		},
		{
			name:    "garbage token",
			token:   func(t *testing.T) string { return "not.a.jwt" },
			secret:  secret,
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sess, err := ParseAccessToken(tc.token(t), tc.secret)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidToken) {
					t.Fatalf("err = %v; want ErrInvalidToken", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if sess.UserID != uid {
				t.Errorf("user id = %s; want %s", sess.UserID, uid)
			}
			if !sess.Authenticated() {
				t.Error("parsed session should be authenticated")
			}
			if sess.ExpiresAt.Unix() != exp.Unix() {
				t.Errorf("expires at = %v; want %v", sess.ExpiresAt.Unix(), exp.Unix())
			}
		})
	}
}

func TestSignalFanOut(t *testing.T) {
	sig := NewSignal()
	events, cancel := sig.Subscribe()
	defer cancel()

	uid := uuid.NewUUID()
	sig.Set(SignedIn, Session{UserID: uid, AccessToken: "tok"})

	select {
	case evt := <-events:
		if evt.Kind != SignedIn {
			t.Errorf("kind = %q; want %q", evt.Kind, SignedIn)
		}
		if evt.Session.UserID != uid {
			t.Errorf("user id = %s; want %s", evt.Session.UserID, uid)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the auth event")
	}

	if got := sig.Current(); got.UserID != uid {
		t.Errorf("current user = %s; want %s", got.UserID, uid)
	}
}

func TestSignalCancelDetaches(t *testing.T) {
	sig := NewSignal()
	events, cancel := sig.Subscribe()

	cancel()
	cancel() // idempotent

	if _, ok := <-events; ok {
		t.Error("channel should be closed after cancel")
	}

	// Publishing after cancel must not panic on the closed channel.
	sig.Set(SignedOut, Session{})
}

func TestSignalNeverBlocks(t *testing.T) {
	sig := NewSignal()
	_, cancel := sig.Subscribe()
	defer cancel()

	// Nobody drains: more events than the buffer must not stall the caller.
	for i := 0; i < 20; i++ {
		sig.Set(TokenRefreshed, Session{UserID: uuid.NewUUID()})
	}
}
