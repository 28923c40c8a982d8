package mock

import (
	"context"
	"time"

	"github.com/narravid/narravid-go/internal/uuid"
)

// MockDispatcher implements task dispatching for tests.
type MockDispatcher struct {
	RefreshCalled bool
	RefreshIDs    []uuid.UUID
	RefreshAt     time.Time
	RefreshErr    error
}

func (m *MockDispatcher) EnqueueRefreshSignedURL(ctx context.Context, id uuid.UUID, notBefore time.Time) error {
	m.RefreshCalled = true
	m.RefreshIDs = append(m.RefreshIDs, id)
	m.RefreshAt = notBefore
	return m.RefreshErr
}
