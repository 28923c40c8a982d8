package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/narravid/narravid-go/internal/api_context"
	"github.com/narravid/narravid-go/internal/model"
	"github.com/narravid/narravid-go/internal/port"
	"github.com/narravid/narravid-go/internal/store"
	"github.com/narravid/narravid-go/internal/uuid"
)

// fakeVideoStore implements port.VideoStore for handler tests.
type fakeVideoStore struct {
	snapshot port.VideoSnapshot
	video    model.Video
	found    bool
	active   bool

	deleteErr  error
	refreshURL string
	refreshErr error

	fetchCalled    bool
	fetchReset     bool
	loadMoreCalled bool
	deletedIDs     []uuid.UUID
}

var _ port.VideoStore = (*fakeVideoStore)(nil)

func (f *fakeVideoStore) Snapshot() port.VideoSnapshot { return f.snapshot }

func (f *fakeVideoStore) Get(id uuid.UUID) (model.Video, bool) { return f.video, f.found }

func (f *fakeVideoStore) FetchPage(ctx context.Context, reset bool) {
	f.fetchCalled = true
	f.fetchReset = reset
}

func (f *fakeVideoStore) LoadMore(ctx context.Context) { f.loadMoreCalled = true }

func (f *fakeVideoStore) DeleteVideo(ctx context.Context, id uuid.UUID) error {
	f.deletedIDs = append(f.deletedIDs, id)
	return f.deleteErr
}

func (f *fakeVideoStore) DeleteVideos(ctx context.Context, ids []uuid.UUID) error {
	f.deletedIDs = append(f.deletedIDs, ids...)
	return f.deleteErr
}

func (f *fakeVideoStore) RefreshSignedURL(ctx context.Context, id uuid.UUID) (string, error) {
	return f.refreshURL, f.refreshErr
}

func (f *fakeVideoStore) HasActiveGeneration() bool { return f.active }

func withVideoID(req *http.Request, id uuid.UUID) *http.Request {
	ctx := context.WithValue(req.Context(), api_context.VideoIDKey, id)
	return req.WithContext(ctx)
}

func TestListVideosHandler(t *testing.T) {
	videos := &fakeVideoStore{snapshot: port.VideoSnapshot{
		Items:   []model.Video{{ID: uuid.NewUUID(), Prompt: "a cat"}},
		HasMore: true,
	}}

	rec := httptest.NewRecorder()
	ListVideosHandler(videos)(rec, httptest.NewRequest(http.MethodGet, "/videos", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", rec.Code)
	}
	var got port.VideoSnapshot
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].Prompt != "a cat" {
		t.Errorf("items = %+v; want the snapshot's items", got.Items)
	}
	if !got.HasMore {
		t.Error("has_more should round-trip")
	}
}

func TestGetVideoHandler(t *testing.T) {
	id := uuid.NewUUID()
	videos := &fakeVideoStore{video: model.Video{ID: id, Prompt: "found"}, found: true}

	req := withVideoID(httptest.NewRequest(http.MethodGet, "/videos/"+id.String(), nil), id)
	rec := httptest.NewRecorder()
	GetVideoHandler(videos)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", rec.Code)
	}

	videos.found = false
	rec = httptest.NewRecorder()
	GetVideoHandler(videos)(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d; want 404", rec.Code)
	}
}

func TestGetVideoHandlerWithoutID(t *testing.T) {
	rec := httptest.NewRecorder()
	GetVideoHandler(&fakeVideoStore{})(rec, httptest.NewRequest(http.MethodGet, "/videos/x", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d; want 400", rec.Code)
	}
}

func TestRefreshVideosHandler(t *testing.T) {
	videos := &fakeVideoStore{}
	rec := httptest.NewRecorder()
	RefreshVideosHandler(videos)(rec, httptest.NewRequest(http.MethodPost, "/videos/refresh", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", rec.Code)
	}
	if !videos.fetchCalled || !videos.fetchReset {
		t.Error("refresh should trigger a reset fetch")
	}
}

func TestLoadMoreHandler(t *testing.T) {
	videos := &fakeVideoStore{}
	rec := httptest.NewRecorder()
	LoadMoreHandler(videos)(rec, httptest.NewRequest(http.MethodPost, "/videos/load_more", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", rec.Code)
	}
	if !videos.loadMoreCalled {
		t.Error("load more should reach the store")
	}
}

func TestRefreshSignedURLHandler(t *testing.T) {
	id := uuid.NewUUID()

	tests := []struct {
		name       string
		store      *fakeVideoStore
		wantStatus int
	}{
		{
			name:       "success",
			store:      &fakeVideoStore{refreshURL: "https://signed.example/a.mp4"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "not found",
			store:      &fakeVideoStore{refreshErr: store.ErrNotFound},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "not resolvable",
			store:      &fakeVideoStore{refreshErr: store.ErrNotResolvable},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "resolution failed",
			store:      &fakeVideoStore{refreshErr: store.ErrResolutionFailed},
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := withVideoID(httptest.NewRequest(http.MethodPost, "/videos/"+id.String()+"/refresh_url", nil), id)
			rec := httptest.NewRecorder()
			RefreshSignedURLHandler(tc.store)(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d; want %d", rec.Code, tc.wantStatus)
			}
			if tc.wantStatus == http.StatusOK {
				var body map[string]string
				if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if body["url"] != tc.store.refreshURL {
					t.Errorf("url = %q; want %q", body["url"], tc.store.refreshURL)
				}
			}
		})
	}
}

func TestDeleteVideoHandler(t *testing.T) {
	id := uuid.NewUUID()

	tests := []struct {
		name       string
		store      *fakeVideoStore
		wantStatus int
	}{
		{"success", &fakeVideoStore{}, http.StatusNoContent},
		{"unauthenticated", &fakeVideoStore{deleteErr: store.ErrNotAuthenticated}, http.StatusUnauthorized},
		{"backend failure", &fakeVideoStore{deleteErr: store.ErrDeleteFailed}, http.StatusBadGateway},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := withVideoID(httptest.NewRequest(http.MethodDelete, "/videos/"+id.String(), nil), id)
			rec := httptest.NewRecorder()
			DeleteVideoHandler(tc.store)(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d; want %d", rec.Code, tc.wantStatus)
			}
		})
	}
}

func TestDeleteVideosHandler(t *testing.T) {
	first := uuid.NewUUID()
	second := uuid.NewUUID()
	videos := &fakeVideoStore{}

	body := `{"ids":["` + first.String() + `","` + second.String() + `"]}`
	req := httptest.NewRequest(http.MethodPost, "/videos/delete_batch", strings.NewReader(body))
	rec := httptest.NewRecorder()
	DeleteVideosHandler(videos)(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d; want 204", rec.Code)
	}
	if len(videos.deletedIDs) != 2 {
		t.Errorf("deleted = %d ids; want 2", len(videos.deletedIDs))
	}
}

func TestDeleteVideosHandlerEmptyIDs(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/videos/delete_batch", strings.NewReader(`{"ids":[]}`))
	DeleteVideosHandler(&fakeVideoStore{})(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d; want 400", rec.Code)
	}
}

func TestDeleteVideosHandlerInvalidJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/videos/delete_batch", strings.NewReader(`{`))
	DeleteVideosHandler(&fakeVideoStore{})(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d; want 400", rec.Code)
	}
}
