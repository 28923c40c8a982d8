package port

import (
	"context"

	"github.com/narravid/narravid-go/internal/model"
	"github.com/narravid/narravid-go/internal/uuid"
)

// ListVideosInput is one page of the authoritative ordering
// (created_at desc, id desc).
type ListVideosInput struct {
	UserID uuid.UUID
	Offset int
	Limit  int
}

// VideoAPI reads and mutates video rows through the backend REST surface.
type VideoAPI interface {
	ListVideos(ctx context.Context, in ListVideosInput) ([]model.Video, error)
	GetVideo(ctx context.Context, id uuid.UUID) (*model.Video, error)
	DeleteVideos(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) error
}

type CreateGenerationInput struct {
	Prompt       string
	Voice        string
	RefreshToken string
}

// GenerationCreator submits a new text-to-video job. Acceptance is
// asynchronous: the resulting row arrives later through realtime.
type GenerationCreator interface {
	CreateGeneration(ctx context.Context, in CreateGenerationInput) error
}

type TopUpInput struct {
	UserID uuid.UUID
	Amount float64
}

// BalanceAPI reads and writes the single balance scalar plus its append-only
// top-up history.
type BalanceAPI interface {
	GetBalance(ctx context.Context, userID uuid.UUID) (float64, error)
	SetBalance(ctx context.Context, userID uuid.UUID, balance float64) error
	InsertTopUp(ctx context.Context, in TopUpInput) error
}
