package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/narravid/narravid-go/internal/uuid"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewCache(mr.Addr(), ""), mr
}

func TestSignedURLRoundTrip(t *testing.T) {
	c, mr := newTestCache(t)
	id := uuid.NewUUID()
	url := "https://signed.example/cat.mp4"

	c.SetSignedURL(context.Background(), id, url, time.Now().Add(time.Hour))

	got, err := c.GetSignedURL(context.Background(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != url {
		t.Errorf("url = %q; want %q", got, url)
	}

	// The entry carries the remaining TTL, so it dies with the URL.
	mr.FastForward(2 * time.Hour)
	got, err = c.GetSignedURL(context.Background(), id)
	if err != nil {
		t.Fatalf("get after expiry: %v", err)
	}
	if got != "" {
		t.Errorf("url after expiry = %q; want empty", got)
	}
}

func TestGetSignedURLMiss(t *testing.T) {
	c, _ := newTestCache(t)

	got, err := c.GetSignedURL(context.Background(), uuid.NewUUID())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "" {
		t.Errorf("url = %q; want empty on a miss", got)
	}
}

func TestSetSignedURLExpiredIsNoop(t *testing.T) {
	c, _ := newTestCache(t)
	id := uuid.NewUUID()

	c.SetSignedURL(context.Background(), id, "https://signed.example/late.mp4", time.Now().Add(-time.Minute))

	got, err := c.GetSignedURL(context.Background(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "" {
		t.Error("an already-expired URL must not be cached")
	}
}

func TestDeleteSignedURL(t *testing.T) {
	c, _ := newTestCache(t)
	id := uuid.NewUUID()

	c.SetSignedURL(context.Background(), id, "https://signed.example/cat.mp4", time.Now().Add(time.Hour))
	if err := c.DeleteSignedURL(context.Background(), id); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := c.GetSignedURL(context.Background(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "" {
		t.Errorf("url = %q; want empty after delete", got)
	}
}
