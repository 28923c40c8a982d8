package port

import (
	"context"
	"time"

	"github.com/narravid/narravid-go/internal/uuid"
)

// TaskDispatcher enqueues asynchronous tasks related to signed-URL upkeep.
type TaskDispatcher interface {
	EnqueueRefreshSignedURL(ctx context.Context, id uuid.UUID, notBefore time.Time) error
}
