package port

import (
	"context"

	"github.com/narravid/narravid-go/internal/model"
	"github.com/narravid/narravid-go/internal/uuid"
)

// VideoSnapshot is the read model handed to HTTP consumers. It mirrors the
// flags the store tracks internally so callers can render loading/error
// states without extra round-trips.
type VideoSnapshot struct {
	Items         []model.Video `json:"items"`
	IsInitialLoad bool          `json:"is_initial_load"`
	IsLoadingMore bool          `json:"is_loading_more"`
	HasMore       bool          `json:"has_more"`
	Error         string        `json:"error,omitempty"`
}

// VideoStore owns the authoritative in-memory collection for the current
// user.
type VideoStore interface {
	Snapshot() VideoSnapshot
	Get(id uuid.UUID) (model.Video, bool)
	FetchPage(ctx context.Context, reset bool)
	LoadMore(ctx context.Context)
	DeleteVideo(ctx context.Context, id uuid.UUID) error
	DeleteVideos(ctx context.Context, ids []uuid.UUID) error
	RefreshSignedURL(ctx context.Context, id uuid.UUID) (string, error)
	HasActiveGeneration() bool
}

// BalanceStore is the single-scalar sibling of VideoStore.
type BalanceStore interface {
	Fetch(ctx context.Context)
	Current() *float64
}
