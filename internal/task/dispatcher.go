package task

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/narravid/narravid-go/internal/port"
	"github.com/narravid/narravid-go/internal/uuid"
)

type Dispatcher struct {
	client *asynq.Client
}

// compile-time check
var _ port.TaskDispatcher = (*Dispatcher)(nil)

func NewDispatcher(addr, password string) *Dispatcher {
	c := asynq.NewClient(asynq.RedisClientOpt{Addr: addr, Password: password})
	return &Dispatcher{client: c}
}

// EnqueueRefreshSignedURL schedules a refresh shortly before the current URL
// expires. Re-enqueueing for the same video replaces the pending task
// instead of stacking duplicates.
func (d *Dispatcher) EnqueueRefreshSignedURL(ctx context.Context, id uuid.UUID, notBefore time.Time) error {
	t, err := NewRefreshSignedURLTask(id.String())
	if err != nil {
		return err
	}
	opts := []asynq.Option{
		asynq.ProcessAt(notBefore),
		asynq.TaskID("refresh:" + id.String()),
	}
	if _, err := d.client.EnqueueContext(ctx, t, opts...); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return err
	}
	return nil
}
