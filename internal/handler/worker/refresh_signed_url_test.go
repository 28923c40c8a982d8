package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/narravid/narravid-go/internal/model"
	"github.com/narravid/narravid-go/internal/port"
	"github.com/narravid/narravid-go/internal/store"
	"github.com/narravid/narravid-go/internal/task"
	"github.com/narravid/narravid-go/internal/uuid"
)

type fakeVideoStore struct {
	refreshErr    error
	refreshCalled bool
	refreshedID   uuid.UUID
}

var _ port.VideoStore = (*fakeVideoStore)(nil)

func (f *fakeVideoStore) Snapshot() port.VideoSnapshot              { return port.VideoSnapshot{} }
func (f *fakeVideoStore) Get(id uuid.UUID) (model.Video, bool)      { return model.Video{}, false }
func (f *fakeVideoStore) FetchPage(ctx context.Context, reset bool) {}
func (f *fakeVideoStore) LoadMore(ctx context.Context)              {}
func (f *fakeVideoStore) HasActiveGeneration() bool                 { return false }

func (f *fakeVideoStore) DeleteVideo(ctx context.Context, id uuid.UUID) error { return nil }

func (f *fakeVideoStore) DeleteVideos(ctx context.Context, ids []uuid.UUID) error { return nil }

func (f *fakeVideoStore) RefreshSignedURL(ctx context.Context, id uuid.UUID) (string, error) {
	f.refreshCalled = true
	f.refreshedID = id
	if f.refreshErr != nil {
		return "", f.refreshErr
	}
	return "https://signed.example/a.mp4", nil
}

func TestRefreshSignedURLHandler(t *testing.T) {
	id := uuid.NewUUID()
	videos := &fakeVideoStore{}

	err := RefreshSignedURLHandler(context.Background(), task.RefreshSignedURLPayload{VideoID: id.String()}, videos)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !videos.refreshCalled {
		t.Fatal("refresh should reach the store")
	}
	if videos.refreshedID != id {
		t.Errorf("id = %s; want %s", videos.refreshedID, id)
	}
}

func TestRefreshSignedURLHandlerInvalidID(t *testing.T) {
	videos := &fakeVideoStore{}

	if err := RefreshSignedURLHandler(context.Background(), task.RefreshSignedURLPayload{VideoID: "nope"}, videos); err != nil {
		t.Fatalf("an invalid id should not requeue the task, got %v", err)
	}
	if videos.refreshCalled {
		t.Error("store must not be hit for an invalid id")
	}
}

func TestRefreshSignedURLHandlerSkipsGoneRecords(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"record gone", store.ErrNotFound},
		{"no longer completed", store.ErrNotResolvable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			videos := &fakeVideoStore{refreshErr: tc.err}
			p := task.RefreshSignedURLPayload{VideoID: uuid.NewUUID().String()}
			if err := RefreshSignedURLHandler(context.Background(), p, videos); err != nil {
				t.Fatalf("a vanished record should not requeue the task, got %v", err)
			}
		})
	}
}

func TestRefreshSignedURLHandlerPropagatesFailures(t *testing.T) {
	videos := &fakeVideoStore{refreshErr: errors.New("resolver down")}
	p := task.RefreshSignedURLPayload{VideoID: uuid.NewUUID().String()}

	if err := RefreshSignedURLHandler(context.Background(), p, videos); err == nil {
		t.Fatal("transient failures should be returned so the task retries")
	}
}
