package port

import (
	"context"
	"time"

	"github.com/narravid/narravid-go/internal/uuid"
)

// URLCache remembers resolved signed URLs so repeated lookups inside the TTL
// window skip the resolver round-trip.
type URLCache interface {
	GetSignedURL(ctx context.Context, id uuid.UUID) (string, error)
	SetSignedURL(ctx context.Context, id uuid.UUID, url string, validUntil time.Time)
	DeleteSignedURL(ctx context.Context, id uuid.UUID) error
}
