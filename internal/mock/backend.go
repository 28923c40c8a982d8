package mock

import (
	"context"

	"github.com/narravid/narravid-go/internal/model"
	"github.com/narravid/narravid-go/internal/port"
	"github.com/narravid/narravid-go/internal/uuid"
)

// VideoAPI implements backend video reads and deletes for tests.
type VideoAPI struct {
	// stored values
	ListOut []model.Video
	GetOut  *model.Video

	// errors
	ListErr   error
	GetErr    error
	DeleteErr error

	// call flags
	ListCalled   bool
	GetCalled    bool
	DeleteCalled bool

	// captured inputs
	ListIn    port.ListVideosInput
	GetID     uuid.UUID
	DeleteIDs []uuid.UUID

	// optional per-call override
	ListFn func(ctx context.Context, in port.ListVideosInput) ([]model.Video, error)
}

func (m *VideoAPI) ListVideos(ctx context.Context, in port.ListVideosInput) ([]model.Video, error) {
	m.ListCalled = true
	m.ListIn = in
	if m.ListFn != nil {
		return m.ListFn(ctx, in)
	}
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.ListOut, nil
}

func (m *VideoAPI) GetVideo(ctx context.Context, id uuid.UUID) (*model.Video, error) {
	m.GetCalled = true
	m.GetID = id
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return m.GetOut, nil
}

func (m *VideoAPI) DeleteVideos(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) error {
	m.DeleteCalled = true
	m.DeleteIDs = append(m.DeleteIDs, ids...)
	return m.DeleteErr
}

// GenerationCreator implements job submission for tests.
type GenerationCreator struct {
	CreateCalled bool
	CreateIn     port.CreateGenerationInput
	CreateErr    error
}

func (m *GenerationCreator) CreateGeneration(ctx context.Context, in port.CreateGenerationInput) error {
	m.CreateCalled = true
	m.CreateIn = in
	return m.CreateErr
}

// BalanceAPI implements balance reads and writes for tests.
type BalanceAPI struct {
	BalanceOut float64

	GetErr    error
	SetErr    error
	InsertErr error

	GetCalled    bool
	SetCalled    bool
	InsertCalled bool

	SetValue float64
	InsertIn port.TopUpInput
}

func (m *BalanceAPI) GetBalance(ctx context.Context, userID uuid.UUID) (float64, error) {
	m.GetCalled = true
	if m.GetErr != nil {
		return 0, m.GetErr
	}
	return m.BalanceOut, nil
}

func (m *BalanceAPI) SetBalance(ctx context.Context, userID uuid.UUID, balance float64) error {
	m.SetCalled = true
	m.SetValue = balance
	return m.SetErr
}

func (m *BalanceAPI) InsertTopUp(ctx context.Context, in port.TopUpInput) error {
	m.InsertCalled = true
	m.InsertIn = in
	return m.InsertErr
}
