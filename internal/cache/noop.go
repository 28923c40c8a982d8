package cache

import (
	"context"
	"time"

	"github.com/narravid/narravid-go/internal/port"
	"github.com/narravid/narravid-go/internal/uuid"
)

type NoopCache struct{}

// compile-time check: *NoopCache must satisfy port.URLCache
var _ port.URLCache = (*NoopCache)(nil)

func NewNoop() *NoopCache {
	return &NoopCache{}
}

func (n *NoopCache) GetSignedURL(ctx context.Context, id uuid.UUID) (string, error) {
	return "", nil // always cache miss
}

func (n *NoopCache) SetSignedURL(ctx context.Context, id uuid.UUID, url string, validUntil time.Time) {
}

func (n *NoopCache) DeleteSignedURL(ctx context.Context, id uuid.UUID) error { return nil }
