package port

import (
	"context"
	"time"

	"github.com/narravid/narravid-go/internal/uuid"
)

type ResolveInput struct {
	RecordID uuid.UUID
	Bucket   string
	Path     string
	Expires  time.Duration
	Filename string
}

// URLResolver produces a time-limited download URL for a stored asset. It
// never retries internally; retry policy belongs to the caller.
type URLResolver interface {
	ResolveDownloadURL(ctx context.Context, in ResolveInput) (string, error)
}
