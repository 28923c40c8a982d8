package worker

import (
	"context"
	"errors"

	"github.com/narravid/narravid-go/internal/logger"
	"github.com/narravid/narravid-go/internal/port"
	"github.com/narravid/narravid-go/internal/store"
	"github.com/narravid/narravid-go/internal/task"
	"github.com/narravid/narravid-go/internal/uuid"
)

// RefreshSignedURLHandler re-resolves the signed URL for one video shortly
// before the previous one expires. A record that left the collection or lost
// its completed status is not an error; the task just becomes a no-op.
func RefreshSignedURLHandler(ctx context.Context, p task.RefreshSignedURLPayload, videos port.VideoStore) error {
	id, err := uuid.Parse(p.VideoID)
	if err != nil {
		logger.Warnf(ctx, "refresh task with invalid video id %q: %v", p.VideoID, err)
		return nil
	}

	if _, err := videos.RefreshSignedURL(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrNotResolvable) {
			logger.Debugf(ctx, "skipping url refresh for %s: %v", id, err)
			return nil
		}
		return err
	}

	logger.Infof(ctx, "refreshed signed url for video #%s", id)
	return nil
}
